package lookup

import (
	"context"
	"fmt"
	"time"

	"clinical-lookup/internal/records"
)

// manualRuntime queues background work and posts so tests decide the
// order in which responses arrive.
type manualRuntime struct {
	background []func()
	posted     []func()
}

func (r *manualRuntime) Go(fn func())   { r.background = append(r.background, fn) }
func (r *manualRuntime) Post(fn func()) { r.posted = append(r.posted, fn) }

func (r *manualRuntime) runBackground(i int) {
	fn := r.background[i]
	r.background = append(r.background[:i:i], r.background[i+1:]...)
	fn()
}

func (r *manualRuntime) drainPosted() {
	for len(r.posted) > 0 {
		fn := r.posted[0]
		r.posted = r.posted[1:]
		fn()
	}
}

func (r *manualRuntime) flush() {
	for len(r.background) > 0 || len(r.posted) > 0 {
		for len(r.background) > 0 {
			r.runBackground(0)
		}
		r.drainPosted()
	}
}

type manualTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type manualScheduler struct {
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// fire runs every armed timer.
func (s *manualScheduler) fire() {
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			t.f()
		}
	}
}

func (s *manualScheduler) armed() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeAPI struct {
	calls     []string
	patients  map[string][]records.PatientSummary
	histories map[uint]*records.PatientHistory
	orders    map[uint]*records.OrderDetail
	results   map[uint]*records.ResultDetail
	errs      map[string]error
	block     map[string]bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		patients: map[string][]records.PatientSummary{
			"mar": {
				{ID: 7, DisplayName: "Maria Lopez", Identifier: "001-0000001-1"},
				{ID: 8, DisplayName: "Mario Reyes"},
			},
			"mari": {{ID: 7, DisplayName: "Maria Lopez", Identifier: "001-0000001-1"}},
			"jon":  {{ID: 9, DisplayName: "Jonas Martinez"}},
		},
		histories: map[uint]*records.PatientHistory{
			7: history(7, "Maria"),
			8: history(8, "Mario"),
			9: history(9, "Jonas"),
		},
		orders: map[uint]*records.OrderDetail{
			101: {ID: 101, Number: "ORD-101", LineItems: []records.OrderLine{{Study: "Glucose", Price: 12.5}}},
			102: {ID: 102, Number: "ORD-102"},
		},
		results: map[uint]*records.ResultDetail{
			501: {ID: 501, Study: "Complete Blood Count", Values: []records.ResultValue{
				{Parameter: "WBC", Value: "12.1", Flag: records.FlagHigh},
			}},
		},
		errs:  map[string]error{},
		block: map[string]bool{},
	}
}

func history(id uint, name string) *records.PatientHistory {
	return &records.PatientHistory{
		Patient: records.Patient{ID: id, FirstName: name},
		Orders:  []records.OrderSummary{{ID: 101, Number: "ORD-101"}, {ID: 102, Number: "ORD-102"}},
		Results: []records.ResultSummary{{ID: 501, Study: "Complete Blood Count"}},
		Counts:  records.Counts{Orders: 2, Results: 1},
	}
}

func (f *fakeAPI) record(ctx context.Context, key string) error {
	f.calls = append(f.calls, key)
	if f.block[key] {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.errs[key]
}

func (f *fakeAPI) Search(ctx context.Context, q string) ([]records.PatientSummary, error) {
	if err := f.record(ctx, "search:"+q); err != nil {
		return nil, err
	}
	return f.patients[q], nil
}

func (f *fakeAPI) History(ctx context.Context, id uint) (*records.PatientHistory, error) {
	if err := f.record(ctx, fmt.Sprintf("history:%d", id)); err != nil {
		return nil, err
	}
	h, ok := f.histories[id]
	if !ok {
		return nil, &records.APIError{Kind: records.ErrNotFound, Op: "history", Status: 404}
	}
	return h, nil
}

func (f *fakeAPI) Order(ctx context.Context, id uint) (*records.OrderDetail, error) {
	if err := f.record(ctx, fmt.Sprintf("order:%d", id)); err != nil {
		return nil, err
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, &records.APIError{Kind: records.ErrNotFound, Op: "order", Status: 404}
	}
	return o, nil
}

func (f *fakeAPI) Result(ctx context.Context, id uint) (*records.ResultDetail, error) {
	if err := f.record(ctx, fmt.Sprintf("result:%d", id)); err != nil {
		return nil, err
	}
	r, ok := f.results[id]
	if !ok {
		return nil, &records.APIError{Kind: records.ErrNotFound, Op: "result", Status: 404}
	}
	return r, nil
}

type harness struct {
	api   *fakeAPI
	rt    *manualRuntime
	sched *manualScheduler
	views []View
	s     *Session
}

func newHarness(opts ...Option) *harness {
	h := &harness{api: newFakeAPI(), rt: &manualRuntime{}, sched: &manualScheduler{}}
	base := []Option{
		WithScheduler(h.sched),
		WithObserver(func(v View) { h.views = append(h.views, v) }),
	}
	h.s = NewSession(h.api, h.rt, append(base, opts...)...)
	return h
}

// settle fires the debounce timer and delivers every response.
func (h *harness) settle() {
	h.sched.fire()
	h.rt.flush()
}

func (h *harness) typeAndSettle(q string) {
	if err := h.s.Type(q); err != nil {
		panic(err)
	}
	h.settle()
}
