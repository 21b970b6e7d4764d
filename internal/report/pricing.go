package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nulzo/cost-report/internal/store/model"
)

const (
	hoursPerMonth = 730

	included = "Included"
	unknown  = "Unknown"
	noCalc   = "-"
)

// Line is a single row of a provider table.
type Line struct {
	Input       string
	Value       string
	Price       string
	Cost        string
	Calculation string
	URL         string
}

// EstimateLine derives the estimated cost and its calculation from a memo price.
//   - "$r/hour" costs r × 730
//   - "$r/GB/month" costs r × value, where a non-numeric value counts as 1
//   - anything else is Included
func EstimateLine(price, value string) (cost, calculation string) {
	price = strings.TrimSpace(price)

	switch {
	case strings.HasSuffix(price, "/GB/month"):
		rate, ok := parseAmount(strings.TrimSuffix(price, "/GB/month"))
		if !ok {
			break
		}
		qty, ok := parseAmount(value)
		if !ok {
			qty = 1
		}
		return formatAmount(rate * qty), fmt.Sprintf("%s × %s GB", price, strconv.FormatFloat(qty, 'f', -1, 64))

	case strings.HasSuffix(price, "/hour"):
		rate, ok := parseAmount(strings.TrimSuffix(price, "/hour"))
		if !ok {
			break
		}
		return formatAmount(rate * hoursPerMonth), fmt.Sprintf("%s × %d hours", price, hoursPerMonth)
	}

	return included, noCalc
}

// Covered reports whether memo holds a price for every pair.
func Covered(memo model.Pricing, pairs []Pair) bool {
	if len(memo) == 0 {
		return false
	}
	for _, p := range pairs {
		if _, ok := memo[model.PricingKey(p.Input, p.Value)]; !ok {
			return false
		}
	}
	return true
}

// PricedFragment renders a provider table purely from memoized prices.
func PricedFragment(name string, memo model.Pricing, pairs []Pair) string {
	lines := make([]Line, 0, len(pairs))
	var total float64

	for _, p := range pairs {
		entry := memo[model.PricingKey(p.Input, p.Value)]
		cost, calc := EstimateLine(entry.Price, p.Value)
		if amount, ok := parseAmount(cost); ok {
			total += amount
		}
		lines = append(lines, Line{
			Input:       p.Input,
			Value:       p.Value,
			Price:       entry.Price,
			Cost:        cost,
			Calculation: calc,
			URL:         entry.URL,
		})
	}

	return renderFragment(name, lines, "$"+formatAmount(total))
}

func renderFragment(name string, lines []Line, total string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Provider: %s\n\n", name)
	b.WriteString("| Input | Value | Original Price (USD) | Estimated Cost (USD) | Cost Calculation | Pricing Source URL |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			escapeCell(l.Input), escapeCell(l.Value), escapeCell(l.Price),
			escapeCell(l.Cost), escapeCell(l.Calculation), escapeCell(l.URL))
	}
	fmt.Fprintf(&b, "| **Total** | | | %s | | |\n", total)
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", `\|`)
}

// parseAmount accepts "$1,234.50", "**$3**" and plain numbers.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*")
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
