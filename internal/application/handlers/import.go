package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/ersonp/sheetlink/internal/domain/services"
	"github.com/ersonp/sheetlink/internal/infrastructure/parsers"
)

// ImportHandler handles importing spreadsheet files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format     string                    // "csv", "json", "xlsx", or "auto"
	Delimiter  rune                      // CSV field separator
	Encoding   string                    // CSV character set
	TrimSpace  bool                      // Trim cells before typing
	DryRun     bool                      // Validate without saving
	OnConflict services.ConflictStrategy // How to handle existing entities
}

// Handle parses a file into tables and imports each one as an entity.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*services.ImportResult, error) {
	parserOpts := parsers.Options{Delimiter: opts.Delimiter, Encoding: opts.Encoding}

	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath, parserOpts)
	} else {
		parser = parsers.ForFormat(opts.Format, parserOpts)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	tables, err := parser.Parse(file, filePath)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(tables) == 0 {
		return &services.ImportResult{}, nil
	}

	return h.service.Import(ctx, tables, services.ImportOptions{
		DryRun:     opts.DryRun,
		OnConflict: opts.OnConflict,
		TrimSpace:  opts.TrimSpace,
	})
}
