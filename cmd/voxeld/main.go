package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	ConfigFlag string
	SqliteFlag bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "voxeld",
		Short: "voxeld server administration tools",
	}
	rootCmd.PersistentFlags().StringVarP(&ConfigFlag, "config", "c", "", "Path to the server config directory")
	rootCmd.PersistentFlags().BoolVar(&SqliteFlag, "sqlite", false, "Use a local sqlite database instead of the configured postgres instance")

	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	accountDeleteCmd.Flags().BoolVar(&PermanentFlag, "permanent", false, "Permanently delete the account (as opposed to a soft delete)")

	vitalsCmd.AddCommand(vitalsResetCmd)

	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(vitalsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
	}
}
