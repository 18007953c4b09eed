package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "codescout",
		Short:         "Search and read GitHub code through a cache and a content sanitizer",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (default: built-in settings)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	root.PersistentFlags().BoolVar(&opts.anonymous, "anonymous", false, "skip token discovery and call GitHub unauthenticated")

	root.AddCommand(
		newSearchCmd(opts),
		newFetchCmd(opts),
		newTreeCmd(opts),
		newServeCmd(opts),
		newConfigCmd(opts),
	)
	return root
}
