package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevin07696/payment-bridge/internal/adapters/ports"
	"github.com/kevin07696/payment-bridge/internal/adapters/secrets"
	"github.com/kevin07696/payment-bridge/internal/channel"
	"github.com/kevin07696/payment-bridge/internal/config"
	"github.com/kevin07696/payment-bridge/internal/dispatch"
	"github.com/kevin07696/payment-bridge/internal/registry"
	"github.com/kevin07696/payment-bridge/pkg/encoding"
	"github.com/kevin07696/payment-bridge/pkg/observability"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "payment-bridge",
		Short:         "Line-delimited JSON bridge to card payment gateways",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(gatewaysCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Read requests from stdin and write responses to stdout until end of input",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func gatewaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gateways",
		Short: "Print the configured gateways as JSON lines and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			sink := channel.DiagnosticSink(logger)
			defer sink.Close()

			reg, err := buildRegistry(cmd.Context(), cfg, sink, logger)
			if err != nil {
				return err
			}
			for _, gw := range reg.Gateways() {
				if err := encoding.WriteLine(cmd.OutOrStdout(), gw); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting payment bridge",
		zap.String("version", Version),
		zap.String("environment", cfg.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink := channel.DiagnosticSink(logger)
	defer sink.Close()

	reg, err := buildRegistry(ctx, cfg, sink, logger)
	if err != nil {
		logger.Error("Failed to configure gateways", zap.Error(err))
		return err
	}

	if cfg.Metrics.Addr != "" {
		server := observability.StartMetricsServer(cfg.Metrics.Addr, observability.NewHealthChecker(reg), logger)
		defer func() {
			if err := observability.ShutdownMetricsServer(server); err != nil {
				logger.Warn("Metrics server shutdown failed", zap.Error(err))
			}
		}()
	}

	dispatcher := dispatch.New(reg, logger.Named("dispatch"))
	if err := channel.New(os.Stdin, os.Stdout, dispatcher, logger.Named("channel")).Serve(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("Shutting down on signal")
			return nil
		}
		logger.Error("Request loop stopped", zap.Error(err))
		return err
	}

	logger.Info("Payment bridge stopped")
	return nil
}

// bootstrap loads the environment and builds the logger. Nothing it sets up writes to stdout.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	logger, err := initLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	channel.RedirectStdLog(logger)
	return cfg, logger, nil
}

func buildRegistry(ctx context.Context, cfg *config.Config, diagnostics io.Writer, logger *zap.Logger) (*registry.Registry, error) {
	secretManager, err := secrets.New(ctx, cfg.SecretOptions(), logger.Named("secrets"))
	if err != nil {
		return nil, fmt.Errorf("init secrets provider: %w", err)
	}

	configs, err := registry.ParseConfiguration(cfg.PaymentConfiguration)
	if err != nil {
		return nil, err
	}

	deps := ports.BackendDeps{
		Logger:      logger.Named("backend"),
		Diagnostics: diagnostics,
	}
	return registry.New(ctx, configs, secretManager, deps, logger.Named("registry"))
}

// initLogger initializes the logger on stderr
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logger.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Logger.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	return zapCfg.Build()
}
