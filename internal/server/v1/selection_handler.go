package v1

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/cost-report/internal/server/validator"
	"github.com/nulzo/cost-report/pkg/api"
)

// SelectionHandler checks one provider + input values pair before the UI adds
// it to the working set.
type SelectionHandler struct {
	validator *validator.Validator
}

func NewSelectionHandler(v *validator.Validator) *SelectionHandler {
	return &SelectionHandler{validator: v}
}

func (h *SelectionHandler) Validate(c *gin.Context) {
	var req api.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}
	if req.Provider.Inputs == nil {
		_ = c.Error(api.BadRequestError("Invalid request: provider, provider.name, and provider.inputs are required"))
		return
	}

	var missing, invalid []string
	for _, field := range req.Provider.Inputs {
		value, ok := req.Inputs[field.Name]
		if !ok || value == "" {
			missing = append(missing, field.Name)
			continue
		}
		if field.Type == "number" && !isFiniteNumber(value) {
			invalid = append(invalid, field.Name)
		}
	}

	if len(missing) > 0 {
		_ = c.Error(api.BadRequestError("Missing or empty inputs: " + strings.Join(missing, ", ")))
		return
	}
	if len(invalid) > 0 {
		_ = c.Error(api.BadRequestError("Invalid number inputs: " + strings.Join(invalid, ", ")))
		return
	}

	c.JSON(http.StatusOK, api.SelectionResponse{
		Provider: req.Provider.Name,
		Inputs:   req.Inputs,
	})
}

func isFiniteNumber(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && !math.IsInf(v, 0) && !math.IsNaN(v)
}
