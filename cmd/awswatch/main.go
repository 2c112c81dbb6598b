package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/FabricioMatosSIlva/awswatch-go/internal/api"
	"github.com/FabricioMatosSIlva/awswatch-go/internal/config"
	"github.com/FabricioMatosSIlva/awswatch-go/internal/logging"
	"github.com/FabricioMatosSIlva/awswatch-go/internal/monitoring"
	"github.com/FabricioMatosSIlva/awswatch-go/pkg/awsclient"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var envPath string

var rootCmd = &cobra.Command{
	Use:     "awswatch",
	Short:   "awswatch - live SQS queue and DynamoDB work-pool monitor",
	Long:    `awswatch polls SQS queue counters and the DynamoDB work-pool table in the background and serves classified live snapshots over HTTP`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("awswatch %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Printf("Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "path to the .env configuration file")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer() error {
	cfg, err := config.Load(envPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		Component: "awswatch",
		FilePath:  cfg.LogFile,
	})
	defer logging.Shutdown()

	log.Info().
		Str("version", Version).
		Str("region", cfg.Region).
		Str("credentialMethod", cfg.CredentialSource().Method()).
		Msg("Starting awswatch")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Monitors are explicit instances owned here; the API layer gets
	// handles, never globals.
	queueMonitor := monitoring.NewQueueMonitor(dialSQS)
	workPoolMonitor := monitoring.NewWorkPoolMonitor(dialDynamo)
	applyConfig(queueMonitor, workPoolMonitor, cfg)

	src := cfg.CredentialSource()
	if err := queueMonitor.AuthenticateAndStart(ctx, src); err != nil {
		return fmt.Errorf("start queue monitor: %w", err)
	}
	if err := workPoolMonitor.AuthenticateAndStart(ctx, src); err != nil {
		queueMonitor.Stop()
		return fmt.Errorf("start work-pool monitor: %w", err)
	}

	watcher, err := config.NewWatcher(envPath)
	if err != nil {
		log.Warn().Err(err).Msg("Config hot-reload unavailable")
	} else {
		watcher.OnReload(func(next *config.Config) {
			applyConfig(queueMonitor, workPoolMonitor, next)
		})
		if err := watcher.Start(); err != nil {
			log.Warn().Err(err).Msg("Config hot-reload unavailable")
		} else {
			defer watcher.Stop()
		}
	}

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.NewRouter(queueMonitor, workPoolMonitor),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		log.Info().Msg("Shutting down")
		queueMonitor.Stop()
		workPoolMonitor.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return err
	}

	log.Info().Msg("Shutdown complete")
	return nil
}

func applyConfig(queues *monitoring.QueueMonitor, workPool *monitoring.WorkPoolMonitor, cfg *config.Config) {
	queues.Configure(cfg.Region, cfg.QueueNames, cfg.QueuePollInterval)
	workPool.Configure(cfg.Region, cfg.WorkPoolTable, cfg.WorkPoolPollInterval)
}

func dialSQS(ctx context.Context, src awsclient.CredentialSource, region string) (monitoring.QueueClient, error) {
	return awsclient.NewSQSClient(ctx, src, region)
}

func dialDynamo(ctx context.Context, src awsclient.CredentialSource, region string) (monitoring.WorkPoolClient, error) {
	return awsclient.NewDynamoClient(ctx, src, region)
}
