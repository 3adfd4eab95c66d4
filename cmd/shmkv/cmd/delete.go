package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/shmkv/pkg/codec"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [key]",
	Short: "Delete a key",
	Long: `Delete a key from the running shmkv server. Deleting a missing key is
not an error.

Example:
  shmkv delete mykey`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := requireKey(cmd, args)
		if err != nil {
			return err
		}
		return publish(cmd, codec.Delete(key))
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().StringP("key", "k", "", "Key to delete")
}
