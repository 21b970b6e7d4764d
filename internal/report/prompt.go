package report

import (
	"fmt"
	"strings"
)

// SystemPrompt is sent as the system message of every report request.
const SystemPrompt = "You are a cloud cost optimization expert."

// Summary renders one "<Name>: Inputs=<json>" line per selection.
func Summary(selections []Selection) string {
	lines := make([]string, 0, len(selections))
	for _, s := range selections {
		lines = append(lines, fmt.Sprintf("%s: Inputs=%s", s.Provider.Name, serializeInputs(s.Inputs)))
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt returns the user prompt for a batch of providers.
func BuildPrompt(selections []Selection) string {
	var b strings.Builder

	b.WriteString("Estimate the monthly cost of each of the following providers based on the usage inputs given. ")
	b.WriteString("Use current public list prices. If exact pricing is unavailable, say so and point to the provider's pricing page.\n\n")
	b.WriteString("Inputs:\n")
	b.WriteString(Summary(selections))
	b.WriteString("\n\nFormatting rules:\n")
	b.WriteString("1. For each provider, in the order listed above, start a section with the heading `## Provider: <Provider Name>`.\n")
	b.WriteString("2. Under each heading write exactly one markdown table with these columns, in this order: ")
	b.WriteString("| Input | Value | Original Price (USD) | Estimated Cost (USD) | Cost Calculation | Pricing Source URL |\n")
	b.WriteString("3. Write one row per input. Express hourly prices as `$<rate>/hour` and storage or transfer prices as `$<rate>/GB/month`. Use `Included` when an input carries no extra cost.\n")
	b.WriteString("4. End every provider table with a `Total` row whose Estimated Cost (USD) cell holds the provider's monthly total, e.g. `$123.45`.\n")
	if len(selections) > 1 {
		b.WriteString("5. After the provider sections, add a `## Totals` table with the columns | Provider | Original Price (USD) | Estimated Cost (USD) |, one row per provider, ending in a `Grand Total` row.\n")
	}
	b.WriteString("Finally add a `## Notes` section listing the pricing source URL of each provider as plain text (not a link), formatted as `- <Provider Name>: <url>`.\n")
	b.WriteString("Do not add any other sections.")

	return b.String()
}
