package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the orb CLI.`,
	// no config or logger needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("orb version %s\n", version)
		fmt.Println("Opening-range breakout backtester and paper trader")
		fmt.Println("https://github.com/rustyeddy/orb")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
