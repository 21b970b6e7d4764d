package api

import "time"

// InputField is one metered dimension of a provider.
type InputField struct {
	Name         string `json:"name" binding:"required,notblank"`
	Label        string `json:"label,omitempty"`
	Type         string `json:"type,omitempty" binding:"omitempty,oneof=number text dropdown"`
	DefaultValue string `json:"defaultValue"`
	Description  string `json:"description"`
}

type PriceEntry struct {
	Price string `json:"price"`
	URL   string `json:"url"`
}

type Provider struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Inputs    []InputField          `json:"inputs"`
	Pricing   map[string]PriceEntry `json:"pricing,omitempty"`
	CreatedAt *time.Time            `json:"createdAt,omitempty"`
	UpdatedAt *time.Time            `json:"updatedAt,omitempty"`
}

type CreateProviderRequest struct {
	Name    string                `json:"name" binding:"required"`
	Inputs  []InputField          `json:"inputs" binding:"required,min=1,unique=Name,dive"`
	Pricing map[string]PriceEntry `json:"pricing,omitempty"`
}

// UpdateProviderRequest is a partial update; nil fields are left untouched.
type UpdateProviderRequest struct {
	Name    *string               `json:"name,omitempty" binding:"omitempty,min=1"`
	Inputs  []InputField          `json:"inputs,omitempty" binding:"omitempty,min=1,unique=Name,dive"`
	Pricing map[string]PriceEntry `json:"pricing,omitempty"`
}

type DuplicateProviderRequest struct {
	ProviderID string `json:"providerId" binding:"required"`
}

type ProviderResponse struct {
	Provider Provider `json:"provider"`
}

type ProviderListResponse struct {
	Providers []Provider `json:"providers"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
