package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/pfm-classifier/internal/api"
	"github.com/Veraticus/pfm-classifier/internal/certs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions over HTTP",
		Long: `Load the model bundle once and serve:

  GET  /healthz   service and model status
  POST /predict   classify one transaction
  GET  /metrics   Prometheus metrics

If the model cannot be loaded the server still starts, reports
model_loaded=false and answers /predict with 503.

With --tls a self-signed certificate for localhost (plus any --tls-host
names) is created under server.cert_dir and reused until it nears expiry.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr")); err != nil {
				return err
			}
			if err := viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls")); err != nil {
				return err
			}
			return viper.BindPFlag("server.tls_hosts", cmd.Flags().Lookup("tls-host"))
		},
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default: :8000)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	cmd.Flags().StringSlice("tls-host", nil, "extra DNS name or IP for the certificate")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := loadRuntime()
	if err != nil {
		return err
	}

	svc := newService(rt)
	if err := svc.Load(ctx); err != nil {
		slog.Warn("Serving without a model", "path", rt.ModelPath, "error", err)
	}

	server := api.NewServer(svc, api.Options{
		ReadTimeout:  rt.ReadTimeout,
		WriteTimeout: rt.WriteTimeout,
	})

	listen := func() error { return server.Listen(rt.ServerAddr) }
	if rt.TLS {
		cert, err := certs.NewStore(rt.CertDir, rt.TLSHosts...).Certificate()
		if err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		listen = func() error { return server.ListenTLS(rt.ServerAddr, cert) }
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
