package report

import (
	"regexp"
	"strings"

	"github.com/nulzo/cost-report/internal/store/model"
)

const providerMarker = "## Provider:"

var urlPattern = regexp.MustCompile(`https?://[^\s|<>()\[\]"'` + "`" + `]+`)

// HasTables is the minimal sanity check on model output.
func HasTables(text string) bool {
	return strings.Contains(text, "|") && strings.Contains(text, "---")
}

// Splitter cuts a batched response into n provider fragments. Anything that
// belongs to the whole report (a Totals or Notes section) is returned as trailer.
// Fewer than n segments may come back.
type Splitter func(text string, n int) (segments []string, trailer string)

// SplitPositional assigns the i-th "## Provider:" section to the i-th provider,
// without looking at the names. Text before the first marker is dropped. A
// reply without any marker is a single section for the first provider.
func SplitPositional(text string, n int) ([]string, string) {
	if n <= 0 {
		return nil, ""
	}

	parts := strings.Split(text, providerMarker)
	if len(parts) < 2 {
		body, tail := cutTrailer(text)
		body = strings.TrimSpace(body)
		if body == "" {
			return nil, tail
		}
		return []string{body + "\n"}, tail
	}

	var trailers []string
	segments := make([]string, 0, len(parts)-1)
	for _, part := range parts[1:] {
		body, tail := cutTrailer(part)
		if tail != "" {
			trailers = append(trailers, tail)
		}
		segments = append(segments, providerMarker+strings.TrimRight(body, " \t\r\n")+"\n")
	}
	if len(segments) > n {
		segments = segments[:n]
	}

	return segments, strings.Join(trailers, "\n\n")
}

// cutTrailer splits off the first report-level heading found in a section.
func cutTrailer(section string) (body, trailer string) {
	offset := 0
	for _, line := range strings.SplitAfter(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if offset > 0 && (strings.HasPrefix(trimmed, "## Totals") || strings.HasPrefix(trimmed, "## Notes")) {
			return section[:offset], strings.TrimSpace(section[offset:])
		}
		offset += len(line)
	}
	return section, ""
}

func isTableLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "|")
}

// splitRow returns the cells of a markdown table row, without the outer pipes.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// isTotalRow matches the closing row of a table, "| **Total** | ... |", and not
// inputs that merely contain the word.
func isTotalRow(cells []string) bool {
	return len(cells) > 0 && strings.EqualFold(strings.Trim(cells[0], "* "), "Total")
}

func isDivider(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}
	return true
}

// ExtractPricing collects the memo entries of a provider fragment: for every
// table row other than the Total row, the Input, Value, Original Price and
// Pricing Source URL cells. Unknown prices are not memoized.
func ExtractPricing(fragment string) model.Pricing {
	pricing := model.Pricing{}
	for _, line := range strings.Split(fragment, "\n") {
		if !isTableLine(line) {
			continue
		}
		cells := splitRow(line)
		if len(cells) < 6 || isTotalRow(cells) || isDivider(cells) || strings.EqualFold(cells[0], "Input") {
			continue
		}

		// the memo keeps the quoted unit price (Original Price column), not the
		// estimated cost, so the /hour and /GB/month rules can re-derive a cost
		price := cells[2]
		if price == "" || strings.EqualFold(price, unknown) {
			continue
		}

		url := cells[5]
		if found := urlPattern.FindString(url); found != "" {
			url = found
		}
		pricing[model.PricingKey(cells[0], cells[1])] = model.PriceEntry{Price: price, URL: url}
	}
	return pricing
}

// FirstURL returns the first URL-looking substring of text, or "".
func FirstURL(text string) string {
	return strings.TrimRight(urlPattern.FindString(text), ".,;:")
}
