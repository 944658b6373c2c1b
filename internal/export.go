package internal

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportBaseName is the fixed file name (without extension) of every export.
const ExportBaseName = "expense_report"

// ExportSheetName is the worksheet name used in spreadsheet exports.
const ExportSheetName = "Expenses"

// ErrUnknownFormat is returned for export formats that have no registered exporter.
var ErrUnknownFormat = errors.New("unknown export format")

var exportColumns = []string{"id", "description", "amount", "category", "date"}

// Exporter writes an expense collection to a file
type Exporter interface {
	Export(path string, expenses []Expense) error
}

// ExporterFunc is a function that implements Exporter
type ExporterFunc func(path string, expenses []Expense) error

func (f ExporterFunc) Export(path string, expenses []Expense) error {
	return f(path, expenses)
}

// exporters is the registry of available exporters, keyed by format name
// which doubles as file extension
var exporters = map[string]Exporter{}

// RegisterExporter registers an exporter with the given format name
func RegisterExporter(format string, e Exporter) {
	exporters[format] = e
}

// GetExporter returns the exporter for the given format
func GetExporter(format string) (Exporter, error) {
	e, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownFormat, format, AvailableFormats())
	}
	return e, nil
}

// AvailableFormats returns the registered export formats, sorted
func AvailableFormats() []string {
	var formats []string
	for name := range exporters {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

// IsKnownFormat returns true if the name is a registered export format
func IsKnownFormat(name string) bool {
	_, ok := exporters[name]
	return ok
}

// ExportFileName returns the fixed file name for a format, e.g. expense_report.csv
func ExportFileName(format string) string {
	return ExportBaseName + "." + format
}

// ParseExportArg parses an export argument that may carry a target directory.
// Returns (format, dir). If the prefix is not a known format, format is empty.
// Example: "csv" → ("csv", "")
// Example: "xlsx:/tmp/out" → ("xlsx", "/tmp/out")
// Example: "pdf:/tmp" → ("", "pdf:/tmp")
func ParseExportArg(arg string) (format, dir string) {
	idx := strings.Index(arg, ":")
	if idx == -1 {
		if IsKnownFormat(arg) {
			return arg, ""
		}
		return "", arg
	}
	prefix := arg[:idx]
	if IsKnownFormat(prefix) {
		return prefix, arg[idx+1:]
	}
	return "", arg
}

// ExportTarget is one requested export: a format and the directory to write into.
type ExportTarget struct {
	Format string
	Dir    string
}

// ParseExportTargets parses a comma separated list such as "csv,xlsx:/tmp".
// Entries without a directory use defaultDir.
func ParseExportTargets(list, defaultDir string) ([]ExportTarget, error) {
	var targets []ExportTarget
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		format, dir := ParseExportArg(entry)
		if format == "" {
			return nil, fmt.Errorf("%w in %q (available: %v)", ErrUnknownFormat, entry, AvailableFormats())
		}
		if dir == "" {
			dir = defaultDir
		}
		targets = append(targets, ExportTarget{Format: format, Dir: dir})
	}
	return targets, nil
}

// ExportTo writes expenses in the given format into dir using the fixed file
// name and returns the path written.
func ExportTo(format, dir string, expenses []Expense) (string, error) {
	e, err := GetExporter(format)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, ExportFileName(format))
	if err := e.Export(path, expenses); err != nil {
		return "", fmt.Errorf("exporting %s: %w", format, err)
	}
	return path, nil
}

func exportRow(e Expense) []string {
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.Description,
		e.Amount.String(),
		e.Category,
		e.Date,
	}
}

// ExportCSV writes a header row followed by one row per expense.
func ExportCSV(path string, expenses []Expense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, e := range expenses {
		if err := w.Write(exportRow(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", e.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return f.Close()
}

// ExportXLSX writes a workbook with a single "Expenses" sheet. Ids and
// amounts are stored as numbers so the sheet can be summed.
func ExportXLSX(path string, expenses []Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	// New workbooks start with "Sheet1"
	if err := f.SetSheetName(f.GetSheetName(0), ExportSheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range expenses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("computing cell: %w", err)
		}
		amount, _ := e.Amount.Float64()
		row := []any{e.ID, e.Description, amount, e.Category, e.Date}
		if err := f.SetSheetRow(ExportSheetName, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", e.ID, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// ExportJSON writes the expenses as an indented JSON array.
func ExportJSON(path string, expenses []Expense) error {
	if expenses == nil {
		expenses = []Expense{}
	}
	data, err := json.MarshalIndent(expenses, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func init() {
	// Register built-in exporters
	RegisterExporter("csv", ExporterFunc(ExportCSV))
	RegisterExporter("xlsx", ExporterFunc(ExportXLSX))
	RegisterExporter("json", ExporterFunc(ExportJSON))
}
