package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cruce-web/internal/models"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type CSVService struct{}

func NewCSVService() *CSVService {
	return &CSVService{}
}

// ExportCruce writes the report as UTF-8 CSV with a byte order mark, which spreadsheet tools
// need to detect the encoding.
func (s *CSVService) ExportCruce(table models.ResultTable, w io.Writer) error {
	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)

	if err := cw.Write(models.ReportColumns); err != nil {
		return err
	}

	record := make([]string, len(models.ReportColumns))
	for _, row := range table {
		for i, v := range exportValues(row) {
			record[i] = models.ToString(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Close()
}

// ExportCruceFile saves the CSV to outputPath.
func (s *CSVService) ExportCruceFile(table models.ResultTable, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error {
		return s.ExportCruce(table, w)
	})
}

func writeFile(outputPath string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Exporter writes a report in one format.
type Exporter interface {
	ExportCruce(table models.ResultTable, w io.Writer) error
	ExportCruceFile(table models.ResultTable, outputPath string) error
}

// ExporterFor returns the exporter and file extension for format.
func ExporterFor(format string) (Exporter, string, error) {
	switch format {
	case models.FormatXLSX, "":
		return NewExcelService(), "xlsx", nil
	case models.FormatCSV:
		return NewCSVService(), "csv", nil
	default:
		return nil, "", &models.FilterValidationError{Field: "format", Value: format, Reason: "must be xlsx or csv"}
	}
}
