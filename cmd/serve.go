package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conneroisu/sitepanel/internal/errors"
	"github.com/conneroisu/sitepanel/internal/server"
	"github.com/conneroisu/sitepanel/internal/sites"
	"github.com/conneroisu/sitepanel/internal/watcher"
	"github.com/conneroisu/sitepanel/internal/websocket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Start the admin server",
		Long: `Start the admin web server.

The server renders the admin UI under /admin, serves a JSON API under /api
and pushes live updates to open admin pages over /ws. With live reload on,
editing the config file reloads every open admin page.

Examples:
  sitepanel serve                       # Serve on localhost:8080
  sitepanel serve --port 9000           # Serve on another port
  sitepanel serve --live-reload         # Reload pages when the config changes`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	AddStandardFlags(cmd, "server")

	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("development.live_reload", cmd.Flags().Lookup("live-reload"))

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The hub is created before the service so writes can notify it.
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	hub := websocket.NewHub(a.config.Server.AllowedOrigins, a.logger)
	a.sites = sites.NewService(a.api, sites.WithLogger(a.logger), sites.WithNotifier(hub))

	if a.config.Development.LiveReload {
		if stopWatch, err := watchConfig(ctx, a, hub); err != nil {
			a.logger.Warn(ctx, err, "Live reload disabled")
		} else if stopWatch != nil {
			defer stopWatch()
		}
	}

	srv := server.New(a.config, a.sites, hub, a.logger)
	return startServer(ctx, cmd.OutOrStdout(), a.config.Addr(), srv)
}

// startServer runs srv until ctx ends. When it fails to start, the server is
// still shut down so the hub goroutine and rate limiter are released.
func startServer(ctx context.Context, out io.Writer, addr string, srv *server.Server) error {
	fmt.Fprintf(out, "sitepanel admin at http://%s/admin\n", addr)
	if err := srv.Start(ctx); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return err
	}
	return nil
}

// watchConfig reloads viper and every open admin page when the config file
// changes. It returns nil when no config file is in use.
func watchConfig(ctx context.Context, a *app, hub *websocket.Hub) (func(), error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		return nil, nil
	}

	w, err := watcher.NewConfigWatcher(path, a.config.Development.Debounce, a.logger)
	if err != nil {
		return nil, err
	}
	w.AddHandler(func(event watcher.ChangeEvent) error {
		if event.Type == watcher.EventTypeDeleted {
			return nil
		}
		if err := viper.ReadInConfig(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, errors.ErrCodeConfigInvalid, "reload config file").
				WithContext("path", event.Path)
		}
		a.logger.Info(ctx, "Config file changed, reloading admin pages", "path", event.Path)
		hub.Reload()
		return nil
	})
	w.Start(ctx)

	return func() {
		if err := w.Stop(); err != nil {
			a.logger.Warn(ctx, err, "Failed to stop config watcher")
		}
	}, nil
}
