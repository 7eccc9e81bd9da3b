// Package console is the terminal front end of a lookup session.
package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"clinical-lookup/internal/lookup"
	"clinical-lookup/internal/records"
	"clinical-lookup/internal/report"
)

const dateLayout = "02/01/2006"

// Render writes a view to w.
func Render(w io.Writer, v lookup.View) {
	fmt.Fprintf(w, "\n[%s]\n", breadcrumb(v.Frames))
	switch v.State {
	case lookup.StateSearch:
		renderSearch(w, v)
	case lookup.StateHistoryLoading:
		name := ""
		if v.Patient != nil {
			name = v.Patient.DisplayName
		}
		fmt.Fprintf(w, "Loading history for %s...\n", name)
	case lookup.StateHistoryLoaded:
		renderHistory(w, v)
	case lookup.StateOrderDetail:
		renderOrder(w, v.Order)
	case lookup.StateResultDetail:
		renderResult(w, v.Result)
	}
}

func breadcrumb(frames []lookup.Frame) string {
	parts := make([]string, 0, len(frames))
	for _, f := range frames {
		if f.Kind == lookup.FrameSearch {
			parts = append(parts, string(f.Kind))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d", f.Kind, f.ID))
	}
	return strings.Join(parts, " > ")
}

func renderSearch(w io.Writer, v lookup.View) {
	fmt.Fprintf(w, "Query: %q\n", v.Query)
	if v.Err != nil {
		fmt.Fprintf(w, "! could not load history: %v\n", v.Err)
	}
	if v.Searching {
		fmt.Fprintln(w, "Searching...")
	}
	if v.SearchErr != nil {
		fmt.Fprintf(w, "! search failed: %v\n", v.SearchErr)
	}
	if len(v.Results) == 0 {
		if !v.Searching && len(strings.TrimSpace(v.Query)) >= lookup.MinQueryLength {
			fmt.Fprintln(w, "No patients found.")
		}
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, p := range v.Results {
		fmt.Fprintf(tw, "%d)\t%s\t%s\n", i+1, p.DisplayName, p.Identifier)
	}
	tw.Flush()
}

func renderHistory(w io.Writer, v lookup.View) {
	h := v.History
	if h == nil {
		return
	}
	fmt.Fprintf(w, "%s  ID: %s\n", h.Patient.FullName(), orNA(h.Patient.Identifier))
	if h.Patient.DateOfBirth != nil {
		fmt.Fprintf(w, "Born: %s\n", h.Patient.DateOfBirth.Format(dateLayout))
	}
	if h.Patient.BloodType != "" {
		fmt.Fprintf(w, "Blood type: %s\n", h.Patient.BloodType)
	}
	if h.Patient.Allergies != "" {
		fmt.Fprintf(w, "Allergies: %s\n", h.Patient.Allergies)
	}
	fmt.Fprintf(w, "Orders: %d  Results: %d  (tab: %s)\n", h.Counts.Orders, h.Counts.Results, v.Tab)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if v.Tab == lookup.TabResults {
		for _, r := range h.Results {
			fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\n", r.ID, r.Study, formatDate(r.Date), r.Status)
		}
	} else {
		for _, o := range h.Orders {
			fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\t%d studies\n", o.ID, o.Number, formatDate(o.Date), o.Status, o.StudyCount)
		}
	}
	tw.Flush()

	if v.Loading {
		fmt.Fprintf(w, "Loading %s %d...\n", v.LoadingClass, v.LoadingID)
	}
	if v.DetailErr != nil {
		fmt.Fprintf(w, "! load failed: %v (:retry)\n", v.DetailErr)
	}
}

func renderOrder(w io.Writer, o *records.OrderDetail) {
	if o == nil {
		return
	}
	fmt.Fprintf(w, "Order %s  %s  %s\n", o.Number, formatDate(o.Date), o.Status)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, l := range o.LineItems {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\n", l.Study, l.Price, l.Status)
	}
	fmt.Fprintf(tw, "Total\t%.2f\t\n", o.Total())
	tw.Flush()
}

func renderResult(w io.Writer, r *records.ResultDetail) {
	doc, err := report.Format(r)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "%s  %s  %s\n", doc.Study, doc.Date, doc.ValidationStatus)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range doc.Rows {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", row.Parameter, row.Value, row.Unit, row.Reference, row.Style.Label)
	}
	tw.Flush()
	if doc.Interpretation != "" {
		fmt.Fprintf(w, "Interpretation: %s\n", doc.Interpretation)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
