package console

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinical-lookup/internal/lookup"
	"clinical-lookup/internal/records"
)

// syncRuntime runs background work and posts inline.
type syncRuntime struct{}

func (syncRuntime) Go(fn func())   { fn() }
func (syncRuntime) Post(fn func()) { fn() }

type inlineLoop struct{}

func (inlineLoop) Do(_ context.Context, fn func()) error { fn(); return nil }

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

// queuedScheduler holds the last armed func until fire.
type queuedScheduler struct{ f func() }

func (s *queuedScheduler) AfterFunc(_ time.Duration, f func()) lookup.Timer {
	s.f = f
	return stubTimer{}
}

func (s *queuedScheduler) fire() {
	if f := s.f; f != nil {
		s.f = nil
		f()
	}
}

type stubAPI struct{}

func (stubAPI) Search(context.Context, string) ([]records.PatientSummary, error) {
	return []records.PatientSummary{{ID: 7, DisplayName: "Maria Lopez", Identifier: "001-0000001-1"}}, nil
}

func (stubAPI) History(_ context.Context, id uint) (*records.PatientHistory, error) {
	return &records.PatientHistory{
		Patient: records.Patient{ID: id, FirstName: "Maria", LastName: "Lopez"},
		Orders:  []records.OrderSummary{{ID: 101, Number: "ORD-101", StudyCount: 2}},
		Results: []records.ResultSummary{{ID: 501, Study: "Complete Blood Count"}},
		Counts:  records.Counts{Orders: 1, Results: 1},
	}, nil
}

func (stubAPI) Order(_ context.Context, id uint) (*records.OrderDetail, error) {
	return &records.OrderDetail{ID: id, Number: "ORD-101", LineItems: []records.OrderLine{
		{Study: "Glucose", Price: 12.5}, {Study: "Lipid Panel", Price: 20},
	}}, nil
}

func (stubAPI) Result(_ context.Context, id uint) (*records.ResultDetail, error) {
	lo, hi := 4.5, 11.0
	return &records.ResultDetail{ID: id, Study: "Complete Blood Count", Values: []records.ResultValue{
		{Parameter: "WBC", Value: "12.1", RefMin: &lo, RefMax: &hi, Flag: records.FlagHigh},
	}}, nil
}

func newTestREPL(t *testing.T) (*REPL, *queuedScheduler, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	sched := &queuedScheduler{}
	sess := lookup.NewSession(stubAPI{}, syncRuntime{},
		lookup.WithScheduler(sched),
		lookup.WithObserver(func(v lookup.View) { Render(&out, v) }))
	return NewREPL(inlineLoop{}, sess, &out), sched, &out
}

func exec(t *testing.T, r *REPL, line string) {
	t.Helper()
	quit, err := r.Exec(context.Background(), line)
	require.NoError(t, err, line)
	require.False(t, quit)
}

func TestREPL_DrillDownSession(t *testing.T) {
	r, sched, out := newTestREPL(t)

	exec(t, r, "mar")
	sched.fire()
	assert.Contains(t, out.String(), "1)  Maria Lopez")

	exec(t, r, ":select 1")
	assert.Contains(t, out.String(), "[search > history 7]")
	assert.Contains(t, out.String(), "ORD-101")

	exec(t, r, ":tab results")
	assert.Contains(t, out.String(), "(tab: results)")

	exec(t, r, ":order 101")
	assert.Regexp(t, `Total\s+32\.50`, out.String())

	exec(t, r, ":back")
	exec(t, r, ":result 501")
	assert.Contains(t, out.String(), "[search > history 7 > result 501]")

	out.Reset()
	exec(t, r, ":print")
	assert.Contains(t, out.String(), "RESULT OF COMPLETE BLOOD COUNT")
	assert.Contains(t, out.String(), "4.5 - 11")
}

func TestREPL_PrintToFile(t *testing.T) {
	r, _, _ := newTestREPL(t)
	require.NoError(t, r.sess.SelectPatient(records.PatientSummary{ID: 7}))
	exec(t, r, ":result 501")

	path := filepath.Join(t.TempDir(), "cbc.html")
	exec(t, r, ":print "+path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "<!DOCTYPE html>"))
}

func TestREPL_Errors(t *testing.T) {
	r, _, _ := newTestREPL(t)
	ctx := context.Background()

	for _, line := range []string{":select", ":select 3", ":order abc", ":tab invoices", ":bogus", ":retry", ":print"} {
		_, err := r.Exec(ctx, line)
		assert.Error(t, err, line)
	}
	quit, err := r.Exec(ctx, ":quit")
	assert.NoError(t, err)
	assert.True(t, quit)
}

func TestREPL_Run(t *testing.T) {
	r, _, out := newTestREPL(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := r.Run(ctx, strings.NewReader(":bogus\n:quit\n:back\n"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "! unknown command :bogus")
}

func TestRender_Search(t *testing.T) {
	var out bytes.Buffer
	Render(&out, lookup.View{
		State:     lookup.StateSearch,
		Frames:    []lookup.Frame{{Kind: lookup.FrameSearch}},
		Query:     "zzz",
		SearchErr: &records.APIError{Kind: records.ErrRateLimited, Op: "search", Status: 429},
	})
	assert.Contains(t, out.String(), "[search]")
	assert.Contains(t, out.String(), "No patients found.")
	assert.Contains(t, out.String(), "search failed: search: rate limited (status 429)")
}
