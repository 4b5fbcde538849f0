package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/photofilter/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editing API and the browser editor",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("web-dir", "", "Directory with the browser editor (index.html, photofilter.wasm); empty disables it")
	serveCmd.Flags().Int("max-sessions", 64, "Maximum number of concurrent editing sessions")
	serveCmd.Flags().String("max-upload", "32 MiB", "Maximum upload size (e.g. 10MB, 32 MiB)")
	serveCmd.Flags().Duration("session-ttl", 30*time.Minute, "Drop sessions idle for longer than this (0 keeps them forever)")
	serveCmd.Flags().Int("preview-size", 1024, "Largest preview edge in pixels")
	serveCmd.Flags().Int("max-concurrent", runtime.NumCPU(), "Max concurrent renders (default: number of CPUs)")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.web_dir", "web-dir")
	mustBind("serve.max_sessions", "max-sessions")
	mustBind("serve.max_upload", "max-upload")
	mustBind("serve.session_ttl", "session-ttl")
	mustBind("serve.preview_size", "preview-size")
	mustBind("serve.max_concurrent", "max-concurrent")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	presets, err := cfg.Presets.PresetTable()
	if err != nil {
		return err
	}
	export, err := cfg.Export.Options()
	if err != nil {
		return err
	}
	maxUpload, err := cfg.Serve.MaxUploadBytes()
	if err != nil {
		return err
	}

	api := server.New(server.Config{
		Presets:              presets,
		Export:               export,
		MaxSessions:          cfg.Serve.MaxSessions,
		MaxUploadBytes:       maxUpload,
		SessionTTL:           cfg.Serve.SessionTTL,
		PreviewSize:          cfg.Serve.PreviewSize,
		MaxConcurrentRenders: cfg.Serve.MaxConcurrent,
	}, logger)

	apiHandler := api.Handler()
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/healthz", apiHandler)

	webDir := viper.GetString("serve.web_dir")
	if webDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(webDir)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go api.Run(ctx, time.Minute)

	srv := &http.Server{Addr: cfg.Serve.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	logger.Info("photofilter server listening",
		"addr", cfg.Serve.Addr,
		"web_dir", webDir,
		"max_sessions", cfg.Serve.MaxSessions,
		"max_upload", cfg.Serve.MaxUpload,
		"session_ttl", cfg.Serve.SessionTTL,
		"presets", len(presets),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
