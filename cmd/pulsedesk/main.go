package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "pulsedesk",
	Short:         "Local content desk: discover GCC industry news, draft and publish social posts",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(articlesCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(postsCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
