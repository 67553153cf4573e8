package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"herbarium/internal/cms"
	"herbarium/internal/herbal"
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown <file>",
	Short: "Show the role breakdown of a formula file (YAML, JSON, text sheet or PDF)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formula, err := readFormulaFile(args[0])
		if err != nil {
			return err
		}
		printBreakdown(cmd.OutOrStdout(), herbal.NewBreakdown(formula))
		return nil
	},
}

var formulaTimeout time.Duration

var formulaCmd = &cobra.Command{
	Use:   "formula <id>",
	Short: "Fetch a formula from the CMS and show its breakdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cms.NewClient(cms.Config{BaseURL: cmsBaseURL, Timeout: formulaTimeout})
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), formulaTimeout)
		defer cancel()
		formula, err := client.GetFormula(ctx, args[0])
		if err != nil {
			return err
		}
		printBreakdown(cmd.OutOrStdout(), herbal.NewBreakdown(formula))
		return nil
	},
}

// readFormulaFile accepts formula sheets (.txt or .pdf) and otherwise the
// same loose attribute shapes the CMS returns. JSON files parse as YAML.
func readFormulaFile(path string) (herbal.Formula, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return herbal.Formula{}, fmt.Errorf("read formula: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return parseSheet(string(raw)), nil
	case ".pdf":
		text, err := extractPDFText(raw)
		if err != nil {
			return herbal.Formula{}, fmt.Errorf("read pdf: %w", err)
		}
		return parseSheet(text), nil
	}

	var attrs map[string]any
	if err := yaml.Unmarshal(raw, &attrs); err != nil {
		return herbal.Formula{}, fmt.Errorf("parse formula: %w", err)
	}
	if len(attrs) == 0 {
		return herbal.Formula{}, fmt.Errorf("parse formula: %s is empty", path)
	}
	return herbal.FormulaFromAttributes(attrs), nil
}

func printBreakdown(out io.Writer, breakdown herbal.Breakdown) {
	formula := breakdown.Formula
	fmt.Fprintf(out, "%s\n", formula.Title)
	if formula.TotalWeight > 0 {
		fmt.Fprintf(out, "Total weight: %s\n", herbal.FormatQuantity(formula.TotalWeight, formula.TotalWeightUnit))
	}
	for _, warning := range breakdown.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}

	if !breakdown.Grouped {
		fmt.Fprintln(out)
		printIngredients(out, breakdown, formula.Ingredients)
		return
	}
	for _, group := range breakdown.Groups.NonEmpty() {
		fmt.Fprintf(out, "\n%s\n", group.Label)
		printIngredients(out, breakdown, group.Ingredients)
	}
}

func printIngredients(out io.Writer, breakdown herbal.Breakdown, ingredients []herbal.Ingredient) {
	fmt.Fprintln(out, "HERB\tQUANTITY\tSHARE\tFUNCTION")
	for _, ingredient := range ingredients {
		share := herbal.FormatPercentage(breakdown.Percentage(ingredient))
		if share == "" {
			share = "-"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n",
			ingredient.DisplayTitle(),
			herbal.FormatQuantity(ingredient.Quantity, ingredient.DisplayUnit()),
			share,
			ingredient.Function,
		)
	}
}

func init() {
	formulaCmd.Flags().DurationVar(&formulaTimeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.AddCommand(breakdownCmd)
	rootCmd.AddCommand(formulaCmd)
}
