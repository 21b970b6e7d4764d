package v1

import (
	"strings"
	"time"

	"github.com/nulzo/cost-report/internal/report"
	"github.com/nulzo/cost-report/internal/store/model"
	"github.com/nulzo/cost-report/pkg/api"
)

func toModelInputs(in []api.InputField) model.InputFields {
	if in == nil {
		return nil
	}
	out := make(model.InputFields, 0, len(in))
	for _, f := range in {
		out = append(out, model.InputField{
			Name:         strings.TrimSpace(f.Name),
			Label:        f.Label,
			Type:         f.Type,
			DefaultValue: f.DefaultValue,
			Description:  f.Description,
		})
	}
	return out
}

func toModelPricing(in map[string]api.PriceEntry) model.Pricing {
	if in == nil {
		return nil
	}
	out := make(model.Pricing, len(in))
	for k, v := range in {
		out[k] = model.PriceEntry{Price: v.Price, URL: v.URL}
	}
	return out
}

func toAPIProvider(p *model.Provider) api.Provider {
	out := api.Provider{
		ID:        p.ID,
		Name:      p.Name,
		Inputs:    make([]api.InputField, 0, len(p.Inputs)),
		CreatedAt: timePtr(p.CreatedAt),
		UpdatedAt: timePtr(p.UpdatedAt),
	}
	for _, f := range p.Inputs {
		out.Inputs = append(out.Inputs, api.InputField{
			Name:         f.Name,
			Label:        f.Label,
			Type:         f.Type,
			DefaultValue: f.DefaultValue,
			Description:  f.Description,
		})
	}
	if len(p.Pricing) > 0 {
		out.Pricing = make(map[string]api.PriceEntry, len(p.Pricing))
		for k, v := range p.Pricing {
			out.Pricing[k] = api.PriceEntry{Price: v.Price, URL: v.URL}
		}
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toSelections(in []api.SelectedProvider) []report.Selection {
	out := make([]report.Selection, 0, len(in))
	for _, sp := range in {
		out = append(out, report.Selection{
			Provider: model.Provider{
				ID:     sp.Provider.ID,
				Name:   strings.TrimSpace(sp.Provider.Name),
				Inputs: toModelInputs(sp.Provider.Inputs),
			},
			Inputs: sp.Inputs,
		})
	}
	return out
}
