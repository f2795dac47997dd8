package core

import (
	"net/http"
	"time"

	"github.com/oneconcern/autodataman/pkg/config"
	"github.com/oneconcern/autodataman/pkg/metadata"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type (
	// Option sets options for core operations
	Option func(*Settings)

	// ProgressFunc is called once per downloaded file
	ProgressFunc func(FileProgress)

	// FileProgress reports on a downloaded file
	FileProgress struct {
		Index    int
		Total    int
		Filename string
		Bytes    int64
	}

	// Settings defines various settings for core operations
	Settings struct {
		fs       afero.Fs
		client   *http.Client
		timeout  time.Duration
		config   *config.Config
		runner   CommandRunner
		progress ProgressFunc
		l        *zap.Logger
	}
)

func defaultSettings(opts []Option) *Settings {
	s := &Settings{
		fs:     afero.NewOsFs(),
		runner: ShellRunner{},
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// WithFs sets the file system hosting the local repository. It defaults to the OS file system.
func WithFs(fs afero.Fs) Option {
	return func(s *Settings) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithHTTPClient sets the HTTP client used to talk to the server
func WithHTTPClient(client *http.Client) Option {
	return func(s *Settings) {
		s.client = client
	}
}

// WithTimeout sets a timeout on every request issued to the server. Zero means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Settings) {
		s.timeout = timeout
	}
}

// WithConfig provides the settings to resolve post-download commands.
// Without a configuration, post-download actions are skipped.
func WithConfig(cfg *config.Config) Option {
	return func(s *Settings) {
		s.config = cfg
	}
}

// WithCommandRunner sets the runner of post-download commands
func WithCommandRunner(runner CommandRunner) Option {
	return func(s *Settings) {
		if runner != nil {
			s.runner = runner
		}
	}
}

// WithProgress sets a callback to report on downloaded files
func WithProgress(progress ProgressFunc) Option {
	return func(s *Settings) {
		s.progress = progress
	}
}

// WithLogger sets the logger for core operations
func WithLogger(logger *zap.Logger) Option {
	return func(s *Settings) {
		if logger != nil {
			s.l = logger
		}
	}
}

func (s *Settings) remote(server string) (*metadata.Loader, error) {
	return metadata.NewRemote(server,
		metadata.WithHTTPClient(s.client),
		metadata.WithTimeout(s.timeout),
		metadata.WithLogger(s.l),
	)
}

func (s *Settings) local(root string) *metadata.Loader {
	return metadata.NewLocal(s.fs, root, metadata.WithLogger(s.l))
}
