package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/cost-report/internal/server/validator"
	"github.com/nulzo/cost-report/internal/store"
	"github.com/nulzo/cost-report/internal/store/model"
	"github.com/nulzo/cost-report/pkg/api"
)

type ProviderHandler struct {
	repo      store.ProviderRepository
	validator *validator.Validator
}

func NewProviderHandler(repo store.ProviderRepository, v *validator.Validator) *ProviderHandler {
	return &ProviderHandler{
		repo:      repo,
		validator: v,
	}
}

// storeError maps catalog sentinel errors onto problem documents.
func storeError(err error, action string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return api.NotFoundError("Provider not found")
	case errors.Is(err, store.ErrConflict):
		return api.ConflictError("A provider with this name already exists")
	default:
		return api.InternalError("Failed to "+action, err)
	}
}

func (h *ProviderHandler) List(c *gin.Context) {
	providers, err := h.repo.List(c.Request.Context())
	if err != nil {
		_ = c.Error(storeError(err, "fetch providers"))
		return
	}

	resp := api.ProviderListResponse{Providers: make([]api.Provider, 0, len(providers))}
	for i := range providers {
		resp.Providers = append(resp.Providers, toAPIProvider(&providers[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProviderHandler) Get(c *gin.Context) {
	p, err := h.repo.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		_ = c.Error(storeError(err, "fetch provider"))
		return
	}
	c.JSON(http.StatusOK, api.ProviderResponse{Provider: toAPIProvider(p)})
}

func (h *ProviderHandler) Create(c *gin.Context) {
	var req api.CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		_ = c.Error(api.ValidationError(map[string]string{"name": "name is a required field"}))
		return
	}

	p := &model.Provider{
		Name:    name,
		Inputs:  toModelInputs(req.Inputs),
		Pricing: toModelPricing(req.Pricing),
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		_ = c.Error(storeError(err, "create provider"))
		return
	}

	c.JSON(http.StatusCreated, api.ProviderResponse{Provider: toAPIProvider(p)})
}

func (h *ProviderHandler) Update(c *gin.Context) {
	var req api.UpdateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	if req.Name == nil && req.Inputs == nil && req.Pricing == nil {
		_ = c.Error(api.BadRequestError("No fields to update"))
		return
	}

	patch := model.ProviderPatch{
		Inputs:  toModelInputs(req.Inputs),
		Pricing: toModelPricing(req.Pricing),
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			_ = c.Error(api.ValidationError(map[string]string{"name": "name must not be empty"}))
			return
		}
		patch.Name = &name
	}

	p, err := h.repo.Update(c.Request.Context(), c.Param("ref"), patch)
	if err != nil {
		_ = c.Error(storeError(err, "update provider"))
		return
	}

	c.JSON(http.StatusOK, api.ProviderResponse{Provider: toAPIProvider(p)})
}

func (h *ProviderHandler) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("ref")); err != nil {
		_ = c.Error(storeError(err, "delete provider"))
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Provider deleted successfully"})
}

func (h *ProviderHandler) Duplicate(c *gin.Context) {
	var req api.DuplicateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.BadRequestError("Provider ID is required",
			api.WithExtension("errors", h.validator.ParseError(err))))
		return
	}

	p, err := h.repo.Duplicate(c.Request.Context(), req.ProviderID)
	if err != nil {
		_ = c.Error(storeError(err, "duplicate provider"))
		return
	}

	c.JSON(http.StatusOK, api.ProviderResponse{Provider: toAPIProvider(p)})
}
