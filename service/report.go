package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pysmell/pysmell/domain"
)

// ReportWriter renders an analysis response as a text and optional CSV
// report. Section and entry order follow the response's smell order, which
// the engines keep deterministic, so reports over unchanged input are
// byte-identical.
type ReportWriter struct{}

func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// sectionOrder fixes how categories appear in reports
var sectionOrder = []domain.SmellCategory{
	domain.CategoryStructural,
	domain.CategoryCode,
	domain.CategoryArchitectural,
}

var sectionTitles = map[domain.SmellCategory]string{
	domain.CategoryStructural:    "Structural Smells",
	domain.CategoryCode:          "Code Smells",
	domain.CategoryArchitectural: "Architectural Smells",
}

// WriteText renders the human-readable report
func (w *ReportWriter) WriteText(out io.Writer, resp *domain.AnalyzeResponse, filter domain.SmellType) error {
	var b strings.Builder
	b.WriteString("Code Quality Analysis Report\n")
	b.WriteString("============================\n\n")

	grouped := groupByCategory(resp.Smells)
	for _, category := range sectionOrder {
		if !filter.Includes(category) {
			continue
		}
		smells := grouped[category]
		title := sectionTitles[category]
		if len(smells) == 0 {
			fmt.Fprintf(&b, "No %s detected.\n\n", strings.ToLower(title))
			continue
		}
		b.WriteString(title + ":\n")
		b.WriteString(strings.Repeat("-", len(title)+1) + "\n")
		for _, s := range smells {
			fmt.Fprintf(&b, "- %s: %s\n", s.Kind, s.Description)
			if s.Line > 0 {
				fmt.Fprintf(&b, "  Line: %d\n", s.Line)
			}
			fmt.Fprintf(&b, "  File: %s\n", s.FilePath)
			fmt.Fprintf(&b, "  Severity: %s\n\n", s.Severity)
		}
	}

	b.WriteString("Summary:\n")
	b.WriteString("--------\n")
	counts := resp.CountByCategory()
	for _, category := range sectionOrder {
		if !filter.Includes(category) {
			continue
		}
		fmt.Fprintf(&b, "Total %s: %d\n", sectionTitles[category], counts[category])
	}
	fmt.Fprintf(&b, "\nFiles analyzed: %d, skipped: %d\n", resp.FilesAnalyzed, resp.FilesSkipped)

	if len(resp.Errors) > 0 {
		b.WriteString("\nSkipped files:\n")
		for _, fe := range resp.Errors {
			fmt.Fprintf(&b, "- %s: %s\n", fe.FilePath, fe.Message)
		}
	}

	_, err := io.WriteString(out, b.String())
	return err
}

// WriteCSV renders the machine-readable report. Rows appear grouped by
// category in section order.
func (w *ReportWriter) WriteCSV(out io.Writer, resp *domain.AnalyzeResponse, filter domain.SmellType) error {
	cw := csv.NewWriter(out)
	header := []string{"Type", "Name", "Description", "File", "Module/Class", "Line Number", "Severity"}
	if err := cw.Write(header); err != nil {
		return err
	}

	grouped := groupByCategory(resp.Smells)
	for _, category := range sectionOrder {
		if !filter.Includes(category) {
			continue
		}
		for _, s := range grouped[category] {
			line := ""
			if s.Line > 0 {
				line = strconv.Itoa(s.Line)
			}
			row := []string{
				string(s.Category),
				s.Kind,
				s.Description,
				s.FilePath,
				s.ModuleClass,
				line,
				string(s.Severity),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func groupByCategory(smells []domain.Smell) map[domain.SmellCategory][]domain.Smell {
	grouped := make(map[domain.SmellCategory][]domain.Smell)
	for _, s := range smells {
		grouped[s.Category] = append(grouped[s.Category], s)
	}
	return grouped
}
