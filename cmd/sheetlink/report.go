package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/ersonp/sheetlink/internal/application/handlers"
	"github.com/ersonp/sheetlink/internal/domain/services"
)

const reportSheet = "Report"

type reportFlags struct {
	format string
	output string
	anchor string
	sum    string
}

func newReportCmd() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render one row per record group",
		Long: `Renders every record group as one row. Cells come from the group's member
in the anchor entity (or its first member). The sum column, when set, holds
the total of that column over the group's other members.

Examples:
  sheetlink report
  sheetlink report --anchor users.Sheet1 --sum Gutschrift --format xlsx -o report.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format (markdown, csv, json, xlsx; default from config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&flags.anchor, "anchor", "", "Entity whose row supplies the cells (default from config)")
	cmd.Flags().StringVar(&flags.sum, "sum", "", "Column to total over the other members (default from config)")

	return cmd
}

func runReport(cmd *cobra.Command, flags reportFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(deps *Deps) error {
		req := handlers.ReportRequest{
			AnchorEntity: firstNonEmpty(flags.anchor, deps.Config.Report.AnchorEntity),
			SumColumn:    firstNonEmpty(flags.sum, deps.Config.Report.SumColumn),
			Format:       firstNonEmpty(flags.format, deps.Config.Report.Format, "markdown"),
		}

		report, err := deps.ReportHandler.Handle(ctx, req)
		if err != nil {
			return err
		}

		if req.Format == "xlsx" && flags.output == "" {
			return errors.New("xlsx output needs --output")
		}

		return writeReportTo(cmd.OutOrStdout(), flags.output, req.Format, report)
	})
}

func writeReportTo(stdout io.Writer, output, format string, report *services.Report) (err error) {
	w := stdout
	if output != "" {
		var f *os.File
		f, err = os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing file: %w", cerr)
			}
		}()
		w = f
	}

	if err := renderReport(w, format, report); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if output != "" {
		fmt.Fprintf(stdout, "Wrote %d rows to %s\n", len(report.Rows), output)
	}
	return nil
}

func renderReport(w io.Writer, format string, report *services.Report) error {
	switch format {
	case "markdown":
		return formatMarkdown(w, report)
	case "csv":
		return formatCSV(w, report)
	case "json":
		return writeJSON(w, report)
	case "xlsx":
		return formatXLSX(w, report)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func formatMarkdown(w io.Writer, report *services.Report) error {
	if _, err := fmt.Fprintf(w, "# Group Report\n\nGroups: %d", len(report.Rows)); err != nil {
		return err
	}
	if report.Skipped > 0 {
		if _, err := fmt.Fprintf(w, " (%d skipped without anchor)", report.Skipped); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, "\n\n"); err != nil {
		return err
	}

	header := append([]string{"Group", "Rows"}, report.Columns...)
	escaped := make([]string, len(header))
	rule := make([]string, len(header))
	for i, h := range header {
		escaped[i] = escapeMarkdown(h)
		rule[i] = strings.Repeat("-", max(3, len(escaped[i])))
	}
	if _, err := fmt.Fprintf(w, "| %s |\n|%s|\n", strings.Join(escaped, " | "), "-"+strings.Join(rule, "-|-")+"-"); err != nil {
		return err
	}

	for _, row := range report.Rows {
		cells := make([]string, 0, len(row.Cells)+2)
		cells = append(cells, shortID(row.GroupID), fmt.Sprint(row.Members))
		for _, c := range row.Cells {
			cells = append(cells, escapeMarkdown(c))
		}
		if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | ")); err != nil {
			return err
		}
	}
	return nil
}

func formatCSV(w io.Writer, report *services.Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(report.Columns); err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := writer.Write(row.Cells); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatXLSX(w io.Writer, report *services.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}

	if err := setSheetRow(f, 1, report.Columns); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(reportSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, row := range report.Rows {
		if err := setSheetRow(f, i+2, row.Cells); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func setSheetRow(f *excelize.File, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return f.SetSheetRow(reportSheet, cell, &values)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
