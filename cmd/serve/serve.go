// Package serve implements the content server for the desktop client.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/fsnotify/fsnotify"
	"github.com/gigurra/deskfolio/cmd/common"
	"github.com/gigurra/deskfolio/cmd/desktop/content"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// bundleFile is the portfolio document the server validates and caches.
const bundleFile = "portfolio.json"

type Params struct {
	Dir     string `pos:"true" optional:"true" help:"Content directory (portfolio.json, images, media)." default:"."`
	Port    int    `short:"p" help:"Port to listen on." default:"8080"`
	Host    string `help:"Host interface to bind to." default:"localhost"`
	NoCache bool   `help:"Disable browser caching." default:"false"`

	ReadTimeoutMillis  int64 `help:"Maximum duration for reading the entire request, including the body (ms)." default:"5000"`
	WriteTimeoutMillis int64 `help:"Maximum duration before timing out writes of the response (ms)." default:"30000"`
	IdleTimeoutMillis  int64 `help:"Maximum amount of time to wait for the next request when keep-alives are enabled (ms)." default:"120000"`
	MaxHeaderBytes     int   `help:"Maximum number of bytes the server will read parsing the request header's keys and values." default:"1048576"` // 1MB
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "serve",
		Short:       "Serve the portfolio bundle, media files and server time",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(cmd.Context(), params); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "serve: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func Run(ctx context.Context, params *Params) error {
	absDir, err := filepath.Abs(params.Dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory %s: %w", params.Dir, err)
	}

	if _, err := os.Stat(absDir); os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", absDir)
	}

	cache := newBundleCache(filepath.Join(absDir, bundleFile))
	if err := cache.Reload(); err != nil {
		// Not fatal: the bundle endpoint serves 503 until a valid file
		// shows up and the watcher picks it up.
		slog.Warn("bundle not loaded", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(absDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", absDir, err)
	}
	go watchBundle(ctx, watcher, cache)

	addr := fmt.Sprintf("%s:%d", params.Host, params.Port)
	server := &http.Server{
		Addr:           addr,
		Handler:        newHandler(absDir, cache, params.NoCache),
		ReadTimeout:    time.Duration(params.ReadTimeoutMillis) * time.Millisecond,
		WriteTimeout:   time.Duration(params.WriteTimeoutMillis) * time.Millisecond,
		IdleTimeout:    time.Duration(params.IdleTimeoutMillis) * time.Millisecond,
		MaxHeaderBytes: params.MaxHeaderBytes,
	}

	// Handle graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("Serving %s at http://%s\n", absDir, addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-serverErr:
		return err
	}
}

// watchBundle reloads the cached bundle whenever portfolio.json changes on
// disk. Invalid content keeps the previous good copy in place.
func watchBundle(ctx context.Context, watcher *fsnotify.Watcher, cache *bundleCache) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != bundleFile {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if err := cache.Reload(); err != nil {
				slog.Warn("bundle reload failed, keeping previous copy", "error", err)
			} else {
				slog.Info("bundle reloaded", "file", event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

// bundleCache holds the validated portfolio.json bytes.
type bundleCache struct {
	mu   sync.RWMutex
	path string
	body []byte
}

func newBundleCache(path string) *bundleCache {
	return &bundleCache{path: path}
}

// Reload reads and validates the bundle file. On any error the previously
// cached copy stays in place.
func (c *bundleCache) Reload() error {
	body, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.path, err)
	}
	var bundle content.Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return fmt.Errorf("invalid bundle %s: %w", c.path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.body = body
	return nil
}

// Bytes returns the cached bundle, if one has been loaded.
func (c *bundleCache) Bytes() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.body, c.body != nil
}

func newHandler(dir string, cache *bundleCache, noCache bool) http.Handler {
	fs := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()[:8]

		// Headers
		if noCache {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		switch r.URL.Path {
		case "/time":
			rw.Header().Set("Content-Type", "application/json")
			rw.Header().Set("Cache-Control", "no-store")
			_ = json.NewEncoder(rw).Encode(time.Now().UTC().Format(time.RFC3339Nano))
		case "/", "/" + bundleFile:
			if body, ok := cache.Bytes(); ok {
				rw.Header().Set("Content-Type", "application/json")
				_, _ = rw.Write(body)
			} else {
				http.Error(rw, "bundle unavailable", http.StatusServiceUnavailable)
			}
		default:
			fs.ServeHTTP(rw, r)
		}

		slog.Info("request",
			"id", reqID,
			"status", rw.status,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
