package report

import (
	"fmt"
	"strings"
)

// totalRow reads a fragment's Total row. The estimated cost is the third cell
// from the end and the original price the fourth.
func totalRow(fragment string) (original, cost string, ok bool) {
	for _, line := range strings.Split(fragment, "\n") {
		if !isTableLine(line) {
			continue
		}
		cells := splitRow(line)
		if len(cells) < 3 || !isTotalRow(cells) {
			continue
		}
		cost = cells[len(cells)-3]
		if len(cells) >= 4 {
			original = cells[len(cells)-4]
		}
		return original, cost, true
	}
	return "", "", false
}

// Totals builds the cross-provider summary table with a grand total. Costs that
// cannot be parsed are shown as-is and left out of the sum.
func Totals(selections []Selection, fragments []string) string {
	var b strings.Builder
	b.WriteString("## Totals\n\n")
	b.WriteString("| Provider | Original Price (USD) | Estimated Cost (USD) |\n")
	b.WriteString("|---|---|---|\n")

	var grand float64
	for i, s := range selections {
		original, cost, ok := totalRow(fragments[i])
		if !ok {
			cost = unknown
		}
		if original == "" {
			original = noCalc
		}
		if amount, parsed := parseAmount(cost); parsed {
			grand += amount
			cost = "$" + formatAmount(amount)
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(s.Provider.Name), escapeCell(original), escapeCell(cost))
	}
	fmt.Fprintf(&b, "| **Grand Total** | | **$%s** |\n", formatAmount(grand))

	return b.String()
}

// Notes lists one pricing source per provider as plain text.
func Notes(selections []Selection, fragments []string) string {
	var b strings.Builder
	b.WriteString("## Notes\n\n")
	for i, s := range selections {
		url := FirstURL(fragments[i])
		if url == "" {
			url = DefaultPricingURL(s.Provider.Name)
		}
		fmt.Fprintf(&b, "- %s: %s\n", s.Provider.Name, url)
	}
	return b.String()
}

// Assemble joins the fragments in request order. The model's own Totals and
// Notes (trailer) are kept; missing ones are synthesized.
func Assemble(selections []Selection, fragments []string, trailer string) string {
	parts := make([]string, 0, len(fragments)+3)
	for _, f := range fragments {
		parts = append(parts, strings.TrimSpace(f))
	}

	if len(selections) > 1 && !strings.Contains(trailer, "## Totals") {
		parts = append(parts, strings.TrimSpace(Totals(selections, fragments)))
	}
	if trailer = strings.TrimSpace(trailer); trailer != "" {
		parts = append(parts, trailer)
	}
	if !strings.Contains(trailer, "## Notes") {
		parts = append(parts, strings.TrimSpace(Notes(selections, fragments)))
	}

	return strings.Join(parts, "\n\n") + "\n"
}
