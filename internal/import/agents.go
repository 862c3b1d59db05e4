// Package agentimport provides CSV ingestion for agent baselines and
// availability feeds.
package agentimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MacJediWizard/availcheck/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Column names expected in CSV headers. Matching is case-insensitive.
const (
	ColumnDomain            = "Domain"
	ColumnAgentName         = "Agent Name"
	ColumnLastAvailableDate = "Last Available Date"
	ColumnAvailableDate     = "Available Date"
)

// BaselineColumns is the exact header set of a baseline CSV.
var BaselineColumns = []string{ColumnDomain, ColumnAgentName}

// AvailabilityColumns is the exact header set of an availability CSV.
// ColumnAvailableDate is accepted in place of ColumnLastAvailableDate.
var AvailabilityColumns = []string{ColumnDomain, ColumnAgentName, ColumnLastAvailableDate}

var (
	ErrEmptyFile      = errors.New("CSV file is empty")
	ErrInvalidHeader  = errors.New("invalid headers")
	ErrInvalidRow     = errors.New("invalid row")
	ErrDuplicateAgent = errors.New("duplicate agent")
	ErrNoRecords      = errors.New("no data records found")
)

// IngestionError is a fatal problem with a CSV file, raised before any
// availability evaluation runs.
type IngestionError struct {
	Source   string
	Row      int
	Expected []string
	Detail   string
	Err      error
}

func (e *IngestionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, " (expected columns: %s)", strings.Join(e.Expected, ", "))
	}
	return b.String()
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// ParseOptions configures the CSV parsing behavior.
type ParseOptions struct {
	// Source names the input in error messages, usually the file path.
	Source    string
	Delimiter rune
}

// DefaultParseOptions returns default CSV parsing options.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Delimiter: ','}
}

// Parser reads baseline and availability CSV files.
type Parser struct {
	options ParseOptions
	fold    cases.Caser
}

// NewParser creates a new CSV parser with the given options.
func NewParser(options ParseOptions) *Parser {
	if options.Delimiter == 0 {
		options.Delimiter = ','
	}
	return &Parser{options: options, fold: cases.Fold()}
}

// columnMapping holds the resolved position of each required column.
type columnMapping struct {
	domain    int
	agentName int
	date      int
	width     int
}

func (p *Parser) newReader(r io.Reader) *csv.Reader {
	// Strip a UTF-8 BOM and decode UTF-16 exports that carry one.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	csvReader := csv.NewReader(decoded)
	csvReader.Comma = p.options.Delimiter
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true
	csvReader.LazyQuotes = true
	return csvReader
}

func (p *Parser) fail(err error, row int, detail string, expected []string) *IngestionError {
	return &IngestionError{
		Source:   p.options.Source,
		Row:      row,
		Expected: expected,
		Detail:   detail,
		Err:      err,
	}
}

func (p *Parser) normalizeHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.Trim(h, "\"'")
	return p.fold.String(strings.TrimSpace(h))
}

// resolveColumns maps header names to positions. Every header must be one of
// the wanted columns and every wanted column must be present exactly once.
func (p *Parser) resolveColumns(header []string, wanted map[string]*int, expected []string) error {
	seen := make(map[*int]bool, len(wanted))
	for i, h := range header {
		target, ok := wanted[p.normalizeHeader(h)]
		if !ok || seen[target] {
			return p.fail(ErrInvalidHeader, 1, fmt.Sprintf("got %s", quoteAll(header)), expected)
		}
		seen[target] = true
		*target = i
	}
	if len(seen) != len(expected) {
		return p.fail(ErrInvalidHeader, 1, fmt.Sprintf("got %s", quoteAll(header)), expected)
	}
	return nil
}

// ParseBaseline reads a baseline CSV with the columns Domain and Agent Name.
// Rows keep file order. Blank values, duplicates and empty files are errors.
func (p *Parser) ParseBaseline(r io.Reader) ([]models.BaselineRow, error) {
	csvReader := p.newReader(r)

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, p.fail(ErrEmptyFile, 0, "", BaselineColumns)
	}
	if err != nil {
		return nil, p.fail(ErrInvalidRow, 1, err.Error(), BaselineColumns)
	}

	cols := columnMapping{width: len(header)}
	wanted := map[string]*int{
		p.fold.String(ColumnDomain):    &cols.domain,
		p.fold.String(ColumnAgentName): &cols.agentName,
	}
	if err := p.resolveColumns(header, wanted, BaselineColumns); err != nil {
		return nil, err
	}

	var out []models.BaselineRow
	firstSeen := make(map[models.BaselineRow]int)

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, p.fail(ErrInvalidRow, errorLine(err), err.Error(), BaselineColumns)
		}
		line, _ := csvReader.FieldPos(0)
		if isBlankRecord(record) {
			continue
		}
		if len(record) < cols.width || !blankTail(record, cols.width) {
			return nil, p.fail(ErrInvalidRow, line,
				fmt.Sprintf("expected %d fields, got %d", cols.width, len(record)), BaselineColumns)
		}

		row := models.BaselineRow{
			Domain:    cleanValue(record[cols.domain]),
			AgentName: cleanValue(record[cols.agentName]),
		}
		if row.Domain == "" || row.AgentName == "" {
			return nil, p.fail(ErrInvalidRow, line, "empty domain or agent name", BaselineColumns)
		}
		if first, dup := firstSeen[row]; dup {
			return nil, p.fail(ErrDuplicateAgent, line,
				fmt.Sprintf("%s/%s (first occurrence in row %d)", row.Domain, row.AgentName, first), nil)
		}
		firstSeen[row] = line
		out = append(out, row)
	}

	if len(out) == 0 {
		return nil, p.fail(ErrNoRecords, 0, "", BaselineColumns)
	}
	return out, nil
}

// ParseAvailability reads an availability CSV for one operating system.
// An empty or header-only file is a valid empty feed. Timestamps are returned
// raw; normalization happens in the availability engine.
func (p *Parser) ParseAvailability(r io.Reader, platform models.OperatingSystem) ([]models.AvailabilityRecord, error) {
	csvReader := p.newReader(r)

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, p.fail(ErrInvalidRow, 1, err.Error(), AvailabilityColumns)
	}

	cols := columnMapping{width: len(header)}
	wanted := map[string]*int{
		p.fold.String(ColumnDomain):            &cols.domain,
		p.fold.String(ColumnAgentName):         &cols.agentName,
		p.fold.String(ColumnLastAvailableDate): &cols.date,
		p.fold.String(ColumnAvailableDate):     &cols.date,
	}
	if err := p.resolveColumns(header, wanted, AvailabilityColumns); err != nil {
		return nil, err
	}
	dateIsLast := cols.date == cols.width-1

	var out []models.AvailabilityRecord
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, p.fail(ErrInvalidRow, errorLine(err), err.Error(), AvailabilityColumns)
		}
		line, _ := csvReader.FieldPos(0)
		if isBlankRecord(record) {
			continue
		}

		var raw string
		switch {
		case len(record) < cols.width:
			return nil, p.fail(ErrInvalidRow, line,
				fmt.Sprintf("expected %d fields, got %d", cols.width, len(record)), AvailabilityColumns)
		case len(record) > cols.width && dateIsLast:
			// An unquoted date such as "Jan 31, 2026 @ 12:38:00.504" spills
			// across fields; stitch it back together.
			raw = joinValues(record[cols.date:])
		case len(record) > cols.width && !blankTail(record, cols.width):
			return nil, p.fail(ErrInvalidRow, line,
				fmt.Sprintf("expected %d fields, got %d", cols.width, len(record)), AvailabilityColumns)
		default:
			raw = cleanValue(record[cols.date])
		}

		key := models.NewAgentKey(platform, cleanValue(record[cols.domain]), cleanValue(record[cols.agentName]))
		if key.Domain == "" || key.AgentName == "" {
			return nil, p.fail(ErrInvalidRow, line, "empty domain or agent name", AvailabilityColumns)
		}

		out = append(out, models.AvailabilityRecord{
			Key:          key,
			RawTimestamp: raw,
			RowNumber:    line,
		})
	}

	return out, nil
}

// ReadBaselineFile opens and parses a baseline CSV file.
func ReadBaselineFile(path string) ([]models.BaselineRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open baseline CSV: %w", err)
	}
	defer f.Close()

	opts := DefaultParseOptions()
	opts.Source = path
	return NewParser(opts).ParseBaseline(f)
}

// ReadAvailabilityFile opens and parses an availability CSV file.
func ReadAvailabilityFile(path string, platform models.OperatingSystem) ([]models.AvailabilityRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open availability CSV: %w", err)
	}
	defer f.Close()

	opts := DefaultParseOptions()
	opts.Source = path
	return NewParser(opts).ParseAvailability(f, platform)
}

func errorLine(err error) int {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.StartLine
	}
	return 0
}

func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'")
	return strings.TrimSpace(s)
}

func joinValues(parts []string) string {
	cleaned := make([]string, len(parts))
	for i, part := range parts {
		cleaned[i] = cleanValue(part)
	}
	return strings.Join(cleaned, ", ")
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// blankTail reports whether every field at or beyond width is empty.
func blankTail(record []string, width int) bool {
	if len(record) <= width {
		return true
	}
	return isBlankRecord(record[width:])
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", strings.TrimSpace(v))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// CSVTemplateHeader returns the header row for a baseline or availability template.
func CSVTemplateHeader(availability bool) []string {
	if availability {
		return append([]string(nil), AvailabilityColumns...)
	}
	return append([]string(nil), BaselineColumns...)
}
