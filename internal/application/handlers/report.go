package handlers

import (
	"context"
	"fmt"
	"slices"

	"github.com/ersonp/sheetlink/internal/domain/services"
	"github.com/ersonp/sheetlink/internal/infrastructure/config"
)

// ReportHandler builds group reports.
type ReportHandler struct {
	service *services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// ReportRequest selects the report shape and output format.
type ReportRequest struct {
	AnchorEntity string
	SumColumn    string
	Format       string
}

// Handle validates the request and builds the report.
func (h *ReportHandler) Handle(ctx context.Context, req ReportRequest) (*services.Report, error) {
	if req.Format != "" && !slices.Contains(config.ReportFormats, req.Format) {
		return nil, fmt.Errorf("invalid format %q, valid formats: %v", req.Format, config.ReportFormats)
	}

	report, err := h.service.Build(ctx, services.ReportOptions{
		AnchorEntity: req.AnchorEntity,
		SumColumn:    req.SumColumn,
	})
	if err != nil {
		return nil, fmt.Errorf("building report: %w", err)
	}
	return report, nil
}
