// Package csvimport turns lead spreadsheets into intake payloads. Rows are
// parsed independently; a row without a name, make or model is skipped.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode"

	"dealership_backend/internal/leads/domain"
	"dealership_backend/platform/apperr"
	"dealership_backend/platform/phone"
	"dealership_backend/platform/sanitize"

	"github.com/shopspring/decimal"
)

// Column headers of the import template.
const (
	ColFullName    = "Full Name"
	ColPhone       = "Phone"
	ColMake        = "Make"
	ColModel       = "Model"
	ColYear        = "Year"
	ColMileage     = "Mileage"
	ColColor       = "Color"
	ColTrim        = "Trim"
	ColRegion      = "Region"
	ColAskingPrice = "Asking Price"
	ColSource      = "Source"
	ColPriority    = "Priority"
)

// Columns lists every required header in template order.
var Columns = []string{
	ColFullName, ColPhone, ColMake, ColModel, ColYear, ColMileage,
	ColColor, ColTrim, ColRegion, ColAskingPrice, ColSource, ColPriority,
}

// ReasonMissingRequiredField marks rows without a name, make or model.
const ReasonMissingRequiredField = "missing_required_field"

// ReasonMalformedRow marks lines the CSV reader could not split into fields.
const ReasonMalformedRow = "malformed_row"

// Bounds of the numeric columns. Values outside them take the column default.
const (
	minVehicleYear = 1900
	maxMileage     = 2_000_000
)

var maxAskingPrice = decimal.RequireFromString("999999999999.99")

// DefaultSource is used when the Source column is blank.
const DefaultSource = "csv_import"

// Row is the outcome of parsing one data line. Exactly one of Lead and
// SkipReason is set.
type Row struct {
	Line       int             `json:"line"`
	Lead       *domain.NewLead `json:"lead,omitempty"`
	SkipReason string          `json:"skipReason,omitempty"`
}

// Parser converts CSV documents using a phone region and a clock for the
// Year fallback.
type Parser struct {
	region string
	now    func() time.Time
}

func NewParser(region string, now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{region: region, now: now}
}

// Parse reads a whole document. Only the header can fail the file; a line
// the reader cannot split is skipped as malformed.
func (p *Parser) Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperr.Validation("csv file is empty")
	}
	if err != nil {
		return nil, apperr.Validation("csv header cannot be read").WithDetails(err.Error())
	}

	index, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rows = append(rows, Row{Line: line, SkipReason: ReasonMalformedRow})
			continue
		}
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("csv line %d cannot be read", line)).WithDetails(err.Error())
		}
		if isBlankRecord(record) {
			continue
		}
		rows = append(rows, p.parseRecord(line, index, record))
	}

	return rows, nil
}

func (p *Parser) parseRecord(line int, index map[string]int, record []string) Row {
	get := func(col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return sanitize.Line(record[i])
	}

	fullName := get(ColFullName)
	vehicleMake := get(ColMake)
	vehicleModel := get(ColModel)
	if fullName == "" || vehicleMake == "" || vehicleModel == "" {
		return Row{Line: line, SkipReason: ReasonMissingRequiredField}
	}

	year := p.now().Year()
	if v, ok := parseNumber(get(ColYear)); ok && v.IsInteger() &&
		v.GreaterThanOrEqual(decimal.NewFromInt(minVehicleYear)) && v.LessThanOrEqual(decimal.NewFromInt(int64(year+1))) {
		year = int(v.IntPart())
	}
	mileage := 0
	if v, ok := parseNumber(get(ColMileage)); ok && !v.IsNegative() && v.LessThanOrEqual(decimal.NewFromInt(maxMileage)) {
		mileage = int(v.IntPart())
	}
	askingPrice := decimal.Zero
	if v, ok := parseNumber(get(ColAskingPrice)); ok && !v.IsNegative() && v.LessThanOrEqual(maxAskingPrice) {
		askingPrice = v.Round(2)
	}

	priority, err := domain.ParsePriority(get(ColPriority))
	if err != nil {
		priority = domain.PriorityNormal
	}
	source := get(ColSource)
	if source == "" {
		source = DefaultSource
	}

	return Row{Line: line, Lead: &domain.NewLead{
		Type:   domain.LeadTypePurchase,
		Status: domain.StatusNew,
		Vehicle: domain.VehicleInfo{
			Make:        vehicleMake,
			Model:       vehicleModel,
			Year:        year,
			Mileage:     mileage,
			Color:       get(ColColor),
			Trim:        get(ColTrim),
			Region:      get(ColRegion),
			AskingPrice: askingPrice,
		},
		Contact: domain.ContactInfo{
			FullName: fullName,
			Phone:    phone.NormalizeE164(get(ColPhone), p.region),
		},
		Source:   source,
		Priority: priority,
	}}
}

func indexHeader(header []string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := byName[key]; !dup {
			byName[key] = i
		}
	}

	index := make(map[string]int, len(Columns))
	missing := make([]string, 0)
	for _, col := range Columns {
		i, ok := byName[strings.ToLower(col)]
		if !ok {
			missing = append(missing, col)
			continue
		}
		index[col] = i
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("csv is missing required columns").WithDetails(map[string][]string{"missing": missing})
	}
	return index, nil
}

var plainNumber = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// parseNumber accepts a plain decimal wrapped in a currency or unit label,
// with comma thousand separators: "AED 45,000" or "120,000 km". Anything
// else inside the number, such as "1e3" or "2020-05", is not a number.
func parseNumber(raw string) (decimal.Decimal, bool) {
	s := strings.TrimLeftFunc(raw, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '-' && r != '.'
	})
	s = strings.TrimRightFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	s = strings.ReplaceAll(s, ",", "")
	if !plainNumber.MatchString(s) {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
