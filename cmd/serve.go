package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snappy-gold/appraisal-api/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the public appraisal API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		spots := initSpotCache()
		service, err := initAppraisalService(spots)
		if err != nil {
			return err
		}
		relay, err := initRelay()
		if err != nil {
			return err
		}

		api := server.New(service, spots, st, relay, server.Options{
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			AnalyzesPerDay:  cfg.Server.AnalyzesPerDay,
			SessionTTL:      time.Duration(cfg.Server.SessionTTLMins) * time.Minute,
			MaxImageBytes:   cfg.Server.MaxImageBytes,
			MaxImagesPerReq: cfg.Server.MaxImagesPerReq,
		})
		defer api.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown: stop accepting, then let in-flight lead
		// deliveries drain.
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Error("server shutdown", zap.Error(err))
			}
			relay.Drain()
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
