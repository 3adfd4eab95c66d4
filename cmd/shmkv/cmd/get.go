package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/shmkv/pkg/codec"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Look up a key",
	Long: `Ask the running shmkv server to look up a key. The server logs the
result.

Example:
  shmkv get mykey`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := requireKey(cmd, args)
		if err != nil {
			return err
		}
		return publish(cmd, codec.Get(key))
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringP("key", "k", "", "Key to look up")
}
