package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"text/tabwriter"
)

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>body{font-family:Arial,sans-serif;padding:30px;max-width:700px;margin:0 auto}h2{text-align:center;color:#4f46e5;margin-bottom:5px}table{width:100%;border-collapse:collapse;margin:15px 0}td,th{padding:8px;border-bottom:1px solid #eee;text-align:left}.header-info p{margin:3px 0;font-size:13px}.interpretation{background:#f0fdf4;border-left:4px solid #10b981;padding:15px;margin:15px 0}</style>
</head><body>
<h2>{{.Letterhead.Name}}</h2>
{{with .Letterhead.Tagline}}<p style="text-align:center;color:#666;font-size:13px">{{.}}</p>{{end}}
{{with .Letterhead.Contact}}<p style="text-align:center;color:#888;font-size:11px">{{.}}</p>{{end}}
<h3 style="text-align:center">{{.Title}}</h3>
<div class="header-info">
{{with .PatientName}}<p><strong>Patient:</strong> {{.}}</p>{{end}}
<p><strong>ID:</strong> {{.PatientID}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Code:</strong> {{.Code}}</p>
{{with .Category}}<p><strong>Category:</strong> {{.}}</p>{{end}}
{{with .ValidationStatus}}<p><strong>Status:</strong> {{.}}</p>{{end}}
</div>
<table><thead><tr><th>Parameter</th><th>Result</th><th>Ref.</th><th>Flag</th></tr></thead><tbody>
{{range .Rows}}<tr><td>{{.Parameter}}</td><td style="font-weight:bold;color:{{.Style.Color}}">{{.Value}} {{.Unit}}</td><td>{{if .Reference}}{{.Reference}} {{.Unit}}{{end}}</td><td>{{.Style.Label}}</td></tr>
{{end}}</tbody></table>
{{with .Interpretation}}<div class="interpretation"><strong>Interpretation:</strong><br>{{.}}</div>{{end}}
</body></html>
`))

// WriteHTML renders the document as a standalone HTML page.
func (d Document) WriteHTML(w io.Writer) error {
	return htmlTmpl.Execute(w, d)
}

// WriteText renders the document as aligned plain text.
func (d Document) WriteText(w io.Writer) error {
	var b strings.Builder
	b.WriteString(d.Letterhead.Name + "\n")
	if d.Letterhead.Tagline != "" {
		b.WriteString(d.Letterhead.Tagline + "\n")
	}
	if d.Letterhead.Contact != "" {
		b.WriteString(d.Letterhead.Contact + "\n")
	}
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(d.Title + "\n\n")
	if d.PatientName != "" {
		fmt.Fprintf(&b, "Patient: %s\n", d.PatientName)
	}
	fmt.Fprintf(&b, "ID:      %s\n", d.PatientID)
	fmt.Fprintf(&b, "Date:    %s\n", d.Date)
	fmt.Fprintf(&b, "Code:    %s\n", d.Code)
	if d.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", d.Category)
	}
	if d.ValidationStatus != "" {
		fmt.Fprintf(&b, "Status:  %s\n", d.ValidationStatus)
	}
	b.WriteString("\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PARAMETER\tRESULT\tREF.\tFLAG")
	for _, r := range d.Rows {
		value := strings.TrimSpace(r.Value + " " + r.Unit)
		ref := r.Reference
		if ref != "" && r.Unit != "" {
			ref += " " + r.Unit
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Parameter, value, ref, r.Style.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if d.Interpretation != "" {
		if _, err := fmt.Fprintf(w, "\nInterpretation:\n%s\n", d.Interpretation); err != nil {
			return err
		}
	}
	return nil
}
