package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/shmkv/pkg/channel"
	"github.com/ssargent/shmkv/pkg/client"
	"github.com/ssargent/shmkv/pkg/codec"
	"github.com/ssargent/shmkv/pkg/config"
)

// publish sends command to the running server
func publish(cmd *cobra.Command, command codec.Command) error {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}
	if container == nil {
		return fmt.Errorf("dependency container not initialized")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runPublish(ctx, cfg, container.GetChannelFactory(), loggerFrom(cmd), command); err != nil {
		return err
	}

	if len(command.Key) > 0 {
		cmd.Printf("Sent %s for key '%s'\n", command.Op, command.Key)
	} else {
		cmd.Printf("Sent %s\n", command.Op)
	}
	return nil
}

func runPublish(
	ctx context.Context,
	cfg *config.Config,
	factory channel.Factory,
	logger *zap.Logger,
	command codec.Command,
) error {
	syncer, err := factory.Open(cfg.Channel.ShmKey, cfg.Channel.Capacity, cfg.Channel.Semaphore)
	if err != nil {
		return fmt.Errorf("failed to attach to server (is it running?): %w", err)
	}

	p := client.NewPublisher(syncer, logger)
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn("failed to close channel", zap.Error(err))
		}
	}()

	return p.Publish(ctx, command)
}

// argOrFlag returns the named flag when set, else the positional argument
// at index i.
func argOrFlag(cmd *cobra.Command, args []string, flag string, i int) (string, bool) {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v, true
	}
	if i < len(args) {
		return args[i], true
	}
	return "", false
}

func requireKey(cmd *cobra.Command, args []string) ([]byte, error) {
	key, ok := argOrFlag(cmd, args, "key", 0)
	if !ok || key == "" {
		return nil, fmt.Errorf("key is required for %s", cmd.Name())
	}
	return []byte(key), nil
}
