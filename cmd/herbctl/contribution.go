package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"herbarium/internal/contribution"
)

// draft is the on-disk form of a contribution: its mode plus the fields a
// user would type into the web form.
type draft struct {
	ContributionType    string `yaml:"contribution_type"`
	contribution.Fields `yaml:",inline"`
}

var contributionCmd = &cobra.Command{
	Use:   "contribution",
	Short: "Work with contribution drafts",
}

var contributionValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a contribution draft and print the payload that would be sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read draft: %w", err)
		}
		var d draft
		if err := yaml.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("parse draft: %w", err)
		}

		payload, err := contribution.Build(d.ContributionType, d.Fields)
		if err != nil {
			var fieldErrs contribution.Errors
			if errors.As(err, &fieldErrs) {
				keys := make([]string, 0, len(fieldErrs))
				for key := range fieldErrs {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", key, fieldErrs[key])
				}
			}
			return fmt.Errorf("draft is invalid")
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	},
}

func init() {
	contributionCmd.AddCommand(contributionValidateCmd)
	rootCmd.AddCommand(contributionCmd)
}
