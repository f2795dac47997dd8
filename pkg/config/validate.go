package config

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validate the current settings
func (c *Config) Validate() error {
	errs := validation.Errors{}
	for _, key := range c.Keys() {
		errs[key] = validation.Validate(key, validation.By(func(value interface{}) error {
			return ValidKey(value.(string))
		}))
	}

	if server := c.DefaultServer(); server != "" {
		errs[KeyDefaultServer] = ValidateServer(server)
	}
	if timeout := c.GetString(KeyTimeout); timeout != "" {
		errs[KeyTimeout] = validation.Validate(timeout, validation.By(func(value interface{}) error {
			d, err := ParseTimeout(value.(string))
			if err != nil {
				return err
			}
			return validation.Validate(d, validation.Min(time.Duration(0)))
		}))
	}
	return errs.Filter()
}

var httpRex = regexp.MustCompile(`^https?://`)

// ValidateServer checks the URL of a server
func ValidateServer(server string) error {
	return validation.Validate(server,
		validation.Required,
		is.URL,
		validation.Match(httpRex).Error("must be an http or https URL"),
	)
}

// ValidateLocalRepo checks the minimal requirements on a local repository path
func ValidateLocalRepo(pth string) error {
	return validation.Validate(pth,
		validation.Required.Error("a local repository is required"),
		validation.RuneLength(2, 0).Error("a local repository path must be at least 2 characters long"),
	)
}
