package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/cost-report/internal/report"
	"github.com/nulzo/cost-report/internal/server/validator"
	"github.com/nulzo/cost-report/pkg/api"
)

type ReportHandler struct {
	generator *report.Generator
	validator *validator.Validator
}

func NewReportHandler(generator *report.Generator, v *validator.Validator) *ReportHandler {
	return &ReportHandler{
		generator: generator,
		validator: v,
	}
}

func (h *ReportHandler) Create(c *gin.Context) {
	var req api.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.BadRequestError(report.EmptySelectionMessage,
			api.WithType("/problems/validation"),
			api.WithExtension("errors", h.validator.ParseError(err))))
		return
	}

	res, err := h.generator.Generate(c.Request.Context(), toSelections(req.Providers))
	if err != nil {
		// the generator only returns problem documents
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, api.ReportResponse{Report: res.HTML})
}
