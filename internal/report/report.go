// Package report turns a lab result into a printable document.
package report

import (
	"errors"
	"strconv"
	"strings"

	"clinical-lookup/internal/records"
)

// ErrNoResult is returned when there is nothing to format.
var ErrNoResult = errors.New("report: no result to format")

const defaultDateLayout = "02/01/2006"

// Letterhead is printed above every report.
type Letterhead struct {
	Name    string
	Tagline string
	Contact string
}

// DefaultLetterhead is used when no letterhead is configured.
var DefaultLetterhead = Letterhead{
	Name:    "CLINICAL LABORATORY",
	Tagline: "DIAGNOSTIC CENTER",
}

// Style is the colour and label for a flag.
type Style struct {
	Color string
	Label string
}

var flagStyles = map[records.Flag]Style{
	records.FlagHigh:   {Color: "#ef4444", Label: "High"},
	records.FlagLow:    {Color: "#f59e0b", Label: "Low"},
	records.FlagNormal: {Color: "#10b981", Label: "Normal"},
}

// StyleFor returns the presentation of f. Unknown flags render as normal.
func StyleFor(f records.Flag) Style {
	if s, ok := flagStyles[f]; ok {
		return s
	}
	return flagStyles[records.FlagNormal]
}

// Row is one printed value.
type Row struct {
	Parameter string
	Value     string
	Unit      string
	// Reference is empty unless both bounds are known.
	Reference string
	Flag      records.Flag
	Style     Style
}

// Document is the printable form of a result.
type Document struct {
	Letterhead       Letterhead
	Title            string
	PatientName      string
	PatientID        string
	Study            string
	Code             string
	Category         string
	Date             string
	ValidationStatus string
	Interpretation   string
	Rows             []Row
}

type options struct {
	letterhead Letterhead
	dateLayout string
}

// Option configures Format.
type Option func(*options)

// WithLetterhead replaces the default letterhead.
func WithLetterhead(l Letterhead) Option {
	return func(o *options) { o.letterhead = l }
}

// WithDateLayout sets the time layout used for the result date.
func WithDateLayout(layout string) Option {
	return func(o *options) { o.dateLayout = layout }
}

// Format builds the document for r. It does not modify r and returns the
// same document for the same input.
func Format(r *records.ResultDetail, opts ...Option) (Document, error) {
	if r == nil {
		return Document{}, ErrNoResult
	}
	o := options{letterhead: DefaultLetterhead, dateLayout: defaultDateLayout}
	for _, opt := range opts {
		opt(&o)
	}

	doc := Document{
		Letterhead:       o.letterhead,
		Title:            "RESULT OF " + strings.ToUpper(r.Study),
		PatientID:        "N/A",
		Study:            r.Study,
		Code:             r.Code,
		Category:         r.Category,
		ValidationStatus: r.ValidationStatus,
		Rows:             make([]Row, 0, len(r.Values)),
	}
	if !r.Date.IsZero() {
		doc.Date = r.Date.Format(o.dateLayout)
	}
	if r.Patient != nil {
		doc.PatientName = r.Patient.Name
		if r.Patient.Identifier != "" {
			doc.PatientID = r.Patient.Identifier
		}
	}
	if r.Interpretation != nil {
		doc.Interpretation = strings.TrimSpace(*r.Interpretation)
	}

	for _, v := range r.Values {
		flag := v.Flag
		if !flag.IsValid() {
			flag = records.DeriveFlag(v.Value, v.RefMin, v.RefMax)
		}
		row := Row{
			Parameter: v.Parameter,
			Value:     v.Value,
			Unit:      v.Unit,
			Flag:      flag,
			Style:     StyleFor(flag),
		}
		if v.HasReference() {
			row.Reference = formatNumber(*v.RefMin) + " - " + formatNumber(*v.RefMax)
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc, nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
