package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/shmkv/pkg/codec"
)

// insertCmd represents the insert command
var insertCmd = &cobra.Command{
	Use:   "insert [key] [value]",
	Short: "Insert or replace a key",
	Long: `Insert a key-value pair into the running shmkv server, replacing any
existing value for the key.

Examples:
  shmkv insert mykey myvalue
  shmkv insert -k mykey -v myvalue`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := requireKey(cmd, args)
		if err != nil {
			return err
		}
		value, ok := argOrFlag(cmd, args, "value", 1)
		if !ok {
			return fmt.Errorf("value is required for insert")
		}
		return publish(cmd, codec.Insert(key, []byte(value)))
	},
}

func init() {
	rootCmd.AddCommand(insertCmd)
	insertCmd.Flags().StringP("key", "k", "", "Key to insert")
	insertCmd.Flags().StringP("value", "v", "", "Value to store")
}
