package lookup

import "clinical-lookup/internal/records"

// View is a snapshot of a session. Records it points to are shared with
// the session and must be treated as read-only.
type View struct {
	SessionID string
	State     State
	Frames    []Frame

	Query     string
	Results   []records.PatientSummary
	Searching bool
	SearchErr error

	Patient *records.PatientSummary
	History *records.PatientHistory
	Tab     Tab

	Order  *records.OrderDetail
	Result *records.ResultDetail

	// Loading is set while a drill-in fetch is pending.
	Loading      bool
	LoadingClass Class
	LoadingID    uint

	// DetailErr is the last failed drill-in on the history view.
	DetailErr error
	// Err is the last failed history load, shown on the search view.
	Err      error
	CanRetry bool
}
