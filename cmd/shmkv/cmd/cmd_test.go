package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ssargent/shmkv/pkg/channel"
	"github.com/ssargent/shmkv/pkg/codec"
	"github.com/ssargent/shmkv/pkg/config"
	"github.com/ssargent/shmkv/pkg/di"
)

func resetFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func writeTestConfig(t *testing.T) string {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Logging.Level = "error"
	cfg.Channel.PollInterval = time.Millisecond

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.SaveConfig(cfg, path))
	return path
}

// execute runs the CLI with a local channel factory
func execute(t *testing.T, factory channel.Factory, args ...string) (string, error) {
	t.Helper()

	c := di.NewContainer()
	c.SetChannelFactory(factory)
	SetContainer(c)

	resetFlags(rootCmd.PersistentFlags())
	for _, sub := range rootCmd.Commands() {
		resetFlags(sub.Flags())
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", writeTestConfig(t)}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}

type testServer struct {
	factory *channel.LocalFactory
	logs    *observer.ObservedLogs
	done    chan error
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Table.Size = 4
	cfg.Channel.PollInterval = time.Millisecond

	core, logs := observer.New(zapcore.InfoLevel)
	ts := &testServer{
		factory: channel.NewLocalFactory(),
		logs:    logs,
		done:    make(chan error, 1),
	}

	go func() {
		ts.done <- runServe(context.Background(), cfg, ts.factory, prometheus.NewRegistry(), zap.New(core))
	}()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("server started").Len() == 1
	}, 5*time.Second, time.Millisecond)
	return ts
}

func (ts *testServer) wait(t *testing.T) {
	t.Helper()
	select {
	case err := <-ts.done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeAndPublish(t *testing.T) {
	ts := startTestServer(t)
	ctx := context.Background()
	cfg := config.DefaultConfig()
	logger := zap.NewNop()

	require.NoError(t, runPublish(ctx, cfg, ts.factory, logger, codec.Insert([]byte("a"), []byte("1"))))
	require.NoError(t, runPublish(ctx, cfg, ts.factory, logger, codec.Get([]byte("a"))))
	require.NoError(t, runPublish(ctx, cfg, ts.factory, logger, codec.Delete([]byte("a"))))
	require.NoError(t, runPublish(ctx, cfg, ts.factory, logger, codec.Get([]byte("a"))))
	require.NoError(t, runPublish(ctx, cfg, ts.factory, logger, codec.Shutdown()))

	ts.wait(t)

	results := ts.logs.FilterMessage("Result is").All()
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].ContextMap()["value"])
	assert.Equal(t, 1, ts.logs.FilterMessage("Result is not found").Len())
	assert.Equal(t, 1, ts.logs.FilterMessage("server stopped").Len())
}

func TestClientCommands(t *testing.T) {
	ts := startTestServer(t)

	out, err := execute(t, ts.factory, "insert", "k", "v")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent insert for key 'k'")

	out, err = execute(t, ts.factory, "get", "-k", "k")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent get for key 'k'")

	_, err = execute(t, ts.factory, "insert", "--key", "k2", "--value", "v2")
	require.NoError(t, err)

	_, err = execute(t, ts.factory, "delete", "k")
	require.NoError(t, err)

	out, err = execute(t, ts.factory, "shutdown")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent shutdown")

	ts.wait(t)

	results := ts.logs.FilterMessage("Result is").All()
	require.Len(t, results, 1)
	assert.Equal(t, "v", results[0].ContextMap()["value"])
}

func TestClientCommands_NoServer(t *testing.T) {
	_, err := execute(t, channel.NewLocalFactory(), "get", "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, channel.ErrAttach)
	assert.Contains(t, err.Error(), "is it running")
}

func TestClientCommands_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"insert without value", []string{"insert", "k"}, "value is required"},
		{"insert without key", []string{"insert"}, "key is required"},
		{"get without key", []string{"get"}, "key is required"},
		{"delete with empty key", []string{"delete", "-k", ""}, "key is required"},
		{"get with too many args", []string{"get", "a", "b"}, "accepts at most 1 arg"},
		{"shutdown with args", []string{"shutdown", "now"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, channel.NewLocalFactory(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyServeFlags(t *testing.T) {
	defer resetFlags(serveCmd.Flags())

	require.NoError(t, serveCmd.ParseFlags([]string{
		"-s", "64",
		"--poll-interval", "5ms",
		"--dump",
		"--diag",
		"--diag-port", "9999",
	}))

	cfg := config.DefaultConfig()
	require.NoError(t, applyServeFlags(serveCmd, cfg))

	assert.Equal(t, 64, cfg.Table.Size)
	assert.Equal(t, 5*time.Millisecond, cfg.Channel.PollInterval)
	assert.True(t, cfg.Logging.DumpTable)
	assert.True(t, cfg.Diagnostics.Enabled)
	assert.Equal(t, 9999, cfg.Diagnostics.Port)
	assert.False(t, cfg.Channel.ResetLock)
}

func TestApplyServeFlags_UnsetFlagsKeepConfig(t *testing.T) {
	defer resetFlags(serveCmd.Flags())

	cfg := config.DefaultConfig()
	cfg.Table.Size = 32
	require.NoError(t, applyServeFlags(serveCmd, cfg))

	assert.Equal(t, 32, cfg.Table.Size)
	assert.Equal(t, 9400, cfg.Diagnostics.Port)
}

func TestLoadConfig_LogLevelOverride(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("log-level", "", "")

	require.NoError(t, cmd.Flags().Set("config", writeTestConfig(t)))
	require.NoError(t, cmd.Flags().Set("log-level", "debug"))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, time.Millisecond, cfg.Channel.PollInterval)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("log-level", "", "")
	require.NoError(t, cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")))

	_, err := loadConfig(cmd)
	assert.Error(t, err)
}

func TestServe_InvalidConfig(t *testing.T) {
	_, err := execute(t, channel.NewLocalFactory(), "serve", "--size", "0")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
