// Package seed loads the bundled provider catalog into a store.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/nulzo/cost-report/internal/store"
	"github.com/nulzo/cost-report/internal/store/model"
	"gopkg.in/yaml.v3"
)

//go:embed providers.yaml
var defaultCatalog []byte

type inputDefinition struct {
	Name         string `yaml:"name"`
	Label        string `yaml:"label"`
	Type         string `yaml:"type"`
	DefaultValue string `yaml:"default"`
	Description  string `yaml:"description"`
}

type providerDefinition struct {
	Name   string            `yaml:"name"`
	Inputs []inputDefinition `yaml:"inputs"`
}

// Result reports what Apply did with each provider name.
type Result struct {
	Created  []string
	Replaced []string
	Skipped  []string
}

// Load returns the bundled catalog.
func Load() ([]model.Provider, error) {
	return Parse(defaultCatalog)
}

// Parse decodes a catalog document of the form {providers: [{name, inputs}]}.
func Parse(data []byte) ([]model.Provider, error) {
	var wrapper struct {
		Providers []providerDefinition `yaml:"providers"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	providers := make([]model.Provider, 0, len(wrapper.Providers))
	for _, def := range wrapper.Providers {
		if def.Name == "" {
			return nil, errors.New("catalog entry without a name")
		}
		inputs := make(model.InputFields, 0, len(def.Inputs))
		for _, in := range def.Inputs {
			inputs = append(inputs, model.InputField{
				Name:         in.Name,
				Label:        in.Label,
				Type:         in.Type,
				DefaultValue: in.DefaultValue,
				Description:  in.Description,
			})
		}
		providers = append(providers, model.Provider{Name: def.Name, Inputs: inputs})
	}
	return providers, nil
}

// Apply creates every provider. Existing names are skipped, or deleted and
// recreated (dropping their price memo) when replace is set.
func Apply(ctx context.Context, repo store.ProviderRepository, providers []model.Provider, replace bool) (*Result, error) {
	res := &Result{}
	for i := range providers {
		p := providers[i]
		err := repo.Create(ctx, &p)
		if err == nil {
			res.Created = append(res.Created, p.Name)
			continue
		}
		if !errors.Is(err, store.ErrConflict) {
			return res, fmt.Errorf("create %s: %w", p.Name, err)
		}
		if !replace {
			res.Skipped = append(res.Skipped, p.Name)
			continue
		}

		if err := repo.Delete(ctx, p.Name); err != nil {
			return res, fmt.Errorf("delete %s: %w", p.Name, err)
		}
		p = providers[i]
		if err := repo.Create(ctx, &p); err != nil {
			return res, fmt.Errorf("recreate %s: %w", p.Name, err)
		}
		res.Replaced = append(res.Replaced, p.Name)
	}
	return res, nil
}
