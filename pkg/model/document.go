package model

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/autodataman/pkg/core/status"
	"github.com/oneconcern/autodataman/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const documentIndent = "    "

// document is a generic JSON object, as decoded before structural checks
type document map[string]interface{}

func parseDocument(data []byte, kind string) (document, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, malformed(kind, "invalid JSON: %v", err)
	}
	doc, ok := raw.(map[string]interface{})
	if !ok {
		return nil, malformed(kind, "document must be a JSON object")
	}
	return doc, nil
}

func malformed(kind, format string, args ...interface{}) *errors.Error {
	return status.ErrMalformedMetadata.Wrapf(kind+" metadata: "+format, args...)
}

func (d document) object(kind, key, label string) (document, error) {
	v, ok := d[key]
	if !ok {
		return nil, malformed(kind, "missing %q key", label)
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, malformed(kind, "%q must be type \"object\"", label)
	}
	return obj, nil
}

func (d document) str(kind, key, label string) (string, error) {
	v, ok := d[key]
	if !ok {
		return "", malformed(kind, "missing %q key", label)
	}
	s, ok := v.(string)
	if !ok {
		return "", malformed(kind, "%q must be type \"string\"", label)
	}
	return s, nil
}

func (d document) optionalStr(kind, key, label string) (string, error) {
	if _, ok := d[key]; !ok {
		return "", nil
	}
	return d.str(kind, key, label)
}

func (d document) strings(kind, key, label string) ([]string, error) {
	v, ok := d[key]
	if !ok {
		return nil, malformed(kind, "missing %q key", label)
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, malformed(kind, "%q must be type \"array\"", label)
	}
	res := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, malformed(kind, "%q must be an array of strings", label)
		}
		res = append(res, s)
	}
	return res, nil
}

func (d document) objects(kind, key, label string) ([]document, error) {
	v, ok := d[key]
	if !ok {
		return nil, malformed(kind, "missing %q key", label)
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, malformed(kind, "%q must be type \"array\"", label)
	}
	res := make([]document, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, malformed(kind, "%q must be an array of objects", label)
		}
		res = append(res, obj)
	}
	return res, nil
}

// Encoder knows how to render itself as a canonical metadata document
type Encoder interface {
	Encode() []byte
}

func encode(v interface{}) []byte {
	// documents are plain structs of strings and slices: marshaling cannot fail
	data, err := json.MarshalIndent(v, "", documentIndent)
	if err != nil {
		panic(err)
	}
	return data
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func find(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return NotFound
}

func remove(names []string, name string) []string {
	i := find(names, name)
	if i == NotFound {
		return names
	}
	return append(names[:i:i], names[i+1:]...)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
