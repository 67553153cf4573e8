package main

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"herbarium/internal/herbal"
)

// Formula sheets are the plain text handouts practitioners keep: a title
// line, one "Herb  quantity unit  role" line per ingredient and an optional
// "Total: 40 g" line.
var (
	sheetIngredient = regexp.MustCompile(`^(?:[-*•]\s*)?(.+?)\s+(\d+(?:[.,]\d+)?)\s*([A-Za-zµ]+)?(?:\s+[(\[]?([A-Za-z]+)[)\]]?)?$`)
	sheetTotal      = regexp.MustCompile(`(?i)^total(?:\s+weight)?\s*:\s*(\d+(?:[.,]\d+)?)\s*([A-Za-zµ]+)?$`)
)

func parseSheet(text string) herbal.Formula {
	var formula herbal.Formula
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if match := sheetTotal.FindStringSubmatch(line); match != nil {
			formula.TotalWeight = herbal.ParseNumber(strings.ReplaceAll(match[1], ",", "."))
			formula.TotalWeightUnit = match[2]
			continue
		}
		if match := sheetIngredient.FindStringSubmatch(line); match != nil {
			formula.Ingredients = append(formula.Ingredients, herbal.Ingredient{
				Title:    strings.TrimSpace(match[1]),
				Quantity: herbal.ParseNumber(strings.ReplaceAll(match[2], ",", ".")),
				Unit:     match[3],
				Role:     herbal.ParseRole(match[4]),
			})
			continue
		}
		if formula.Title == "" {
			formula.Title = line
		}
	}
	return formula
}

// extractPDFText returns the plain text of every page, one page per line
// group.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}
