package main

import (
	"context"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlaswatch/api/internal/server"
	"github.com/atlaswatch/api/pkg/briefing"
	"github.com/atlaswatch/api/pkg/cache"
	"github.com/atlaswatch/api/pkg/designation"
	"github.com/atlaswatch/api/pkg/horizons"
	"github.com/atlaswatch/api/pkg/logging"
	"github.com/atlaswatch/api/pkg/mpc"
	"github.com/atlaswatch/api/pkg/positions"
	pkgServer "github.com/atlaswatch/api/pkg/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, catalog, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logging.Logger.Sync() }()

			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				cfg.Server.Port = port
			}

			instanceID, err := pkgServer.GetOrCreateInstanceID(cfg.Server.InstanceIDFile)
			if err != nil {
				return err
			}

			if cfg.OpenAI.APIKey == "" {
				logging.Logger.Warn("No OpenAI API key configured, mission briefings will fail",
					zap.String("env", "OPENAI_API_KEY"))
			}

			responseCache, persister := cache.NewFromConfig(cfg.Cache.TTL, cfg.Cache.FilePath)
			resolver := designation.NewResolver(responseCache, designation.DefaultRemember)
			horizonsClient := horizons.NewClient(cfg.Horizons.BaseURL, cfg.Horizons.Timeout)
			mpcClient := mpc.NewClient(cfg.MPC.BaseURL, cfg.MPC.Timeout)
			generator := briefing.NewGenerator(briefing.Config{
				APIKey:      cfg.OpenAI.APIKey,
				BaseURL:     cfg.OpenAI.BaseURL,
				Model:       cfg.OpenAI.Model,
				Temperature: cfg.OpenAI.Temperature,
				Timeout:     cfg.OpenAI.Timeout,
			})
			tracked := catalog.Tracked()
			positionService := positions.NewService(responseCache, horizonsClient, resolver, tracked)

			srv := server.New(echo.New(), server.Dependencies{
				Positions:         positionService,
				Resolver:          resolver,
				Ephemeris:         horizonsClient,
				Observations:      mpcClient,
				Briefing:          generator,
				BriefingRateLimit: cfg.Server.BriefingRateLimit,
			}, instanceID, &server.VersionInfo{
				Version:   version,
				BuildTime: buildTime,
				GoVersion: runtime.Version(),
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var wg sync.WaitGroup
			if persister != nil {
				wg.Add(1)
				go func() {
					defer wg.Done()
					persister.Run(ctx, cfg.Cache.SaveInterval)
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(cfg.Addr())
			}()
			logging.Logger.Info("Server initialized",
				zap.String("addr", cfg.Addr()),
				zap.String("tracked", tracked.Name),
				zap.String("instance_id", instanceID))

			select {
			case err = <-errCh:
				stop()
			case <-ctx.Done():
				logging.Logger.Info("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				err = srv.Shutdown(shutdownCtx)
			}

			// waits for the final cache save
			wg.Wait()
			return err
		},
	}

	cmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	return cmd
}
