package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cmsBaseURL string

var rootCmd = &cobra.Command{
	Use:           "herbctl",
	Short:         "herbctl inspects Herbarium formulas and contributions",
	Long:          "herbctl renders formula breakdowns from files or the CMS and validates contribution drafts before they are submitted.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultCMS := os.Getenv("CMS_BASE_URL")
	if defaultCMS == "" {
		defaultCMS = "http://localhost:8888"
	}
	rootCmd.PersistentFlags().StringVar(&cmsBaseURL, "cms", defaultCMS, "Base URL of the CMS")
}
