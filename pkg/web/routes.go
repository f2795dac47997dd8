// Package web serves a local repository as a read-only catalog over plain HTTP GET.
//
// The local layout mirrors the wire layout, so that a local cache may be used
// as the server of another local repository.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oneconcern/autodataman/pkg/model"
	"github.com/oneconcern/autodataman/pkg/storage"
	"github.com/oneconcern/autodataman/pkg/storage/localfs"
	"github.com/oneconcern/autodataman/pkg/storage/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// ServerParams configures the catalog server
type ServerParams struct {
	Root   string
	Fs     afero.Fs
	Logger *zap.Logger
}

// Server for a local repository
type Server struct {
	store  storage.Store
	params ServerParams
	l      *zap.Logger
}

// NewServer builds a catalog server for the repository rooted at params.Root
func NewServer(params ServerParams) *Server {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:  localfs.New(params.Fs, params.Root),
		params: params,
		l:      logger,
	}
}

/* handlers */

// HandleObject streams a descriptor or data file
func (s *Server) HandleObject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		if hidden(key) {
			http.NotFound(w, r)
			return
		}

		rdr, err := s.store.Get(r.Context(), key)
		switch {
		case err == nil:
		case errors.Is(err, status.ErrNotFound), errors.Is(err, status.ErrInvalidKey):
			http.NotFound(w, r)
			return
		default:
			s.l.Error("serving object", zap.String("key", key), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		defer rdr.Close()

		w.Header().Set("Content-Type", contentType(key))
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		if _, err = io.Copy(w, rdr); err != nil {
			s.l.Warn("interrupted transfer", zap.String("key", key), zap.Error(err))
		}
	}
}

// hidden objects are never served: staging directories and dot files
func hidden(key string) bool {
	for _, part := range strings.Split(key, "/") {
		if model.IsStagingDir(part) || strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".json", model.LegacyExtension:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// InitRouter mounts the catalog routes
func InitRouter(srv *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(srv.l))
	r.Use(middleware.Recoverer)

	r.Get("/*", srv.HandleObject())
	r.Head("/*", srv.HandleObject())

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// ListenAndServe runs the catalog server until the context is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           InitRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.l.Info("serving repository", zap.String("root", s.params.Root), zap.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.l.Error("http server shutdown", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}
