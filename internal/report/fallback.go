package report

import "strings"

// DefaultPricingURL guesses a pricing page from the provider name.
func DefaultPricingURL(name string) string {
	host := strings.Join(strings.Fields(strings.ToLower(name)), "")
	return "https://www." + host + ".com/pricing"
}

// FallbackFragment is the table used when the model gave nothing usable for s.
func FallbackFragment(s Selection) string {
	url := DefaultPricingURL(s.Provider.Name)
	pairs := s.Pairs()
	lines := make([]Line, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, Line{
			Input:       p.Input,
			Value:       p.Value,
			Price:       unknown,
			Cost:        unknown,
			Calculation: noCalc,
			URL:         url,
		})
	}
	return renderFragment(s.Provider.Name, lines, unknown)
}
