/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/shmkv/pkg/channel"
	"github.com/ssargent/shmkv/pkg/config"
	"github.com/ssargent/shmkv/pkg/diag"
	"github.com/ssargent/shmkv/pkg/server"
	"github.com/ssargent/shmkv/pkg/store"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the store server",
	Long: `Run the shmkv server. It creates the shared memory region and the
semaphore, then applies commands published by clients until a shutdown
command arrives or the process is interrupted.

Examples:
  shmkv serve --size 64
  shmkv serve -s 64 --dump --diag --diag-port 9400`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		if err := applyServeFlags(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if container == nil {
			return fmt.Errorf("dependency container not initialized")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServe(ctx, cfg, container.GetChannelFactory(), container.GetRegistry(), loggerFrom(cmd))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("size", "s", 0, "Number of hash table buckets")
	serveCmd.Flags().Duration("poll-interval", 0, "Sleep between idle polls (0 spins)")
	serveCmd.Flags().Bool("dump", false, "Log the table after every command")
	serveCmd.Flags().Bool("reset-lock", false, "Release a semaphore left held by a previous run")
	serveCmd.Flags().Bool("diag", false, "Serve metrics and the table dump over HTTP")
	serveCmd.Flags().Int("diag-port", 0, "Diagnostics port")
}

// applyServeFlags copies explicitly set flags over the loaded config
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("size") {
		cfg.Table.Size, err = flags.GetInt("size")
	}
	if err == nil && flags.Changed("poll-interval") {
		cfg.Channel.PollInterval, err = flags.GetDuration("poll-interval")
	}
	if err == nil && flags.Changed("dump") {
		cfg.Logging.DumpTable, err = flags.GetBool("dump")
	}
	if err == nil && flags.Changed("reset-lock") {
		cfg.Channel.ResetLock, err = flags.GetBool("reset-lock")
	}
	if err == nil && flags.Changed("diag") {
		cfg.Diagnostics.Enabled, err = flags.GetBool("diag")
	}
	if err == nil && flags.Changed("diag-port") {
		cfg.Diagnostics.Port, err = flags.GetInt("diag-port")
	}
	if err != nil {
		return fmt.Errorf("invalid flag: %w", err)
	}
	return nil
}

// runServe owns the channel for the lifetime of the server
func runServe(
	ctx context.Context,
	cfg *config.Config,
	factory channel.Factory,
	registry *prometheus.Registry,
	logger *zap.Logger,
) error {
	table, err := store.NewTable(store.TableConfig{Size: cfg.Table.Size})
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	region, err := factory.CreateRegion(cfg.Channel.ShmKey, cfg.Channel.Capacity)
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	openSem := func() (channel.Semaphore, error) {
		return factory.CreateSemaphore(cfg.Channel.Semaphore)
	}

	metrics := server.NewMetrics(registry)
	srv := server.NewServer(region, openSem, table, server.Config{
		PollInterval: cfg.Channel.PollInterval,
		DumpTable:    cfg.Logging.DumpTable,
		PublishDump:  cfg.Diagnostics.Enabled,
		ResetLock:    cfg.Channel.ResetLock,
	}, logger, metrics)

	if !cfg.Diagnostics.Enabled {
		return srv.Run(ctx)
	}

	diagCtx, cancelDiag := context.WithCancel(ctx)
	defer cancelDiag()

	addr := net.JoinHostPort(cfg.Diagnostics.Bind, strconv.Itoa(cfg.Diagnostics.Port))
	router := diag.NewRouter(diag.Options{
		Gatherer:   registry,
		Table:      srv,
		InstanceID: srv.InstanceID(),
		Logger:     logger,
	})

	diagDone := make(chan error, 1)
	go func() {
		diagDone <- diag.Serve(diagCtx, addr, router, logger)
	}()

	runErr := srv.Run(ctx)
	cancelDiag()
	if err := <-diagDone; err != nil {
		logger.Error("diagnostics server stopped with error", zap.Error(err))
	}
	return runErr
}
