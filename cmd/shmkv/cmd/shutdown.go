package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/shmkv/pkg/codec"
)

// shutdownCmd represents the shutdown command
var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Stop the running server",
	Long: `Ask the running shmkv server to stop. The server clears its table and
removes the semaphore before exiting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publish(cmd, codec.Shutdown())
	},
}

func init() {
	rootCmd.AddCommand(shutdownCmd)
}
