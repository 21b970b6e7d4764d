package report

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/nulzo/cost-report/internal/store/model"
)

// Selection is one provider snapshot plus the usage figures entered for it.
type Selection struct {
	Provider model.Provider
	Inputs   map[string]string
}

// Pair is one (input, value) combination a selection asks to be priced.
type Pair struct {
	Input string
	Value string
}

// Pairs lists the selection's inputs in schema order, using the field default
// when no value was entered. Inputs unknown to the schema follow, sorted.
func (s Selection) Pairs() []Pair {
	pairs := make([]Pair, 0, len(s.Provider.Inputs)+len(s.Inputs))
	seen := make(map[string]struct{}, len(s.Provider.Inputs))

	for _, field := range s.Provider.Inputs {
		seen[field.Name] = struct{}{}
		value, ok := s.Inputs[field.Name]
		if !ok {
			value = field.DefaultValue
		}
		pairs = append(pairs, Pair{Input: field.Name, Value: value})
	}

	var extra []string
	for name := range s.Inputs {
		if _, ok := seen[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		pairs = append(pairs, Pair{Input: name, Value: s.Inputs[name]})
	}

	return pairs
}

// CacheKey is the provider name followed by the JSON encoding of the inputs.
// Map keys are encoded in sorted order, so the key does not depend on the
// order the client sent them in.
func CacheKey(s Selection) string {
	return s.Provider.Name + serializeInputs(s.Inputs)
}

func serializeInputs(inputs map[string]string) string {
	if inputs == nil {
		inputs = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(inputs); err != nil {
		return "{}"
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
