package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/takeshy/wallframe/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the screensaver HTTP server",
	Long: `Start the HTTP server that backs the screensaver frontend.

It serves the photo list and photo files, the configuration API, the
Home Assistant weather/media proxies and the Google Photos picker
workflow, plus the static frontend assets.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}

	static := staticDir
	if _, err := os.Stat(static); err != nil {
		app.log.Warn("static directory not found, serving API only", "dir", static)
		static = ""
	}

	srv := server.New(app.config, app.library, app.auth, app.picker, app.ha, static, app.log)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", servePort),
		Handler: srv.Handler(),
	}

	// Graceful shutdown on signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		app.log.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(ctx)
	}()

	app.log.Info("starting server", "addr", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
