package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muses-project/progress/internal/infrastructure/config"
	"github.com/muses-project/progress/internal/infrastructure/logging"
	"github.com/muses-project/progress/internal/infrastructure/wiring"
	"github.com/muses-project/progress/pkg/infrastructure/httpapi"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:       "serve quest|mission|cascade",
	Short:     "Run one of the HTTP services",
	ValidArgs: []string{config.ServiceQuest, config.ServiceMission, config.ServiceCascade},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Example: `  # Quest service on an embedded sqlite file
  muses serve quest --addr :8001

  # Mission service talking to a local quest service
  QUEST_SVC_URL=http://localhost:8001 muses serve mission --addr :8002

  # Cascade entry point with token checks
  MUSES_JWT_SECRET=xxx QUEST_SVC_URL=... MISSION_SVC_URL=... muses serve cascade`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg, err := config.Load(configFile)
		if err != nil {
			return MapError(err)
		}
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		logger := logging.New(logging.Options{Debug: cfg.Debug, File: cfg.LogFile, Service: name})
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := wiring.Build(ctx, name, cfg, logger)
		if err != nil {
			return MapError(fmt.Errorf("build %s service: %w", name, err))
		}
		defer func() {
			if err := svc.Close(); err != nil {
				logger.Warn("release resources", zap.Error(err))
			}
		}()

		server := httpapi.NewServer(cfg.Addr, svc.Handler, logger)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown failed", zap.Error(err))
			}
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "Starting %s service on %s\n", name, cfg.Addr)
		if err := server.Start(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides addr / MUSES_ADDR)")
}
