package main

import (
	"fmt"
	"os"

	"github.com/benvon/keyword-rotator/cmd/keywordctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var verbose bool
	var rootCmd = &cobra.Command{
		Use:   "keywordctl",
		Short: "Operator tool for the keyword rotator",
		Long:  "CLI tool for seeding the keyword pool, running rotations and managing service settings",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return commands.SetupLogging(verbose)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(commands.NewSeedCmd())
	rootCmd.AddCommand(commands.NewBackfillCmd())
	rootCmd.AddCommand(commands.NewRotateCmd())
	rootCmd.AddCommand(commands.NewActiveCmd())
	rootCmd.AddCommand(commands.NewPoolCmd())
	rootCmd.AddCommand(commands.NewDiversifyCmd())
	rootCmd.AddCommand(commands.NewSuggestCmd())
	rootCmd.AddCommand(commands.NewTokenCmd())
	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())

	err := rootCmd.Execute()
	commands.FlushLogs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
