// Package lookup implements the patient lookup and drill-down session.
package lookup

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinical-lookup/internal/metrics"
	"clinical-lookup/internal/records"
	"clinical-lookup/internal/report"
)

const (
	// MinQueryLength is the shortest trimmed query that is searched.
	MinQueryLength = 2

	DefaultDebounce = 350 * time.Millisecond
	DefaultTimeout  = 10 * time.Second
)

// ErrNothingToRetry is returned by Retry when no load has failed.
var ErrNothingToRetry = errors.New("lookup: nothing to retry")

// API is the records backend a session reads from.
type API interface {
	Search(ctx context.Context, q string) ([]records.PatientSummary, error)
	History(ctx context.Context, patientID uint) (*records.PatientHistory, error)
	Order(ctx context.Context, orderID uint) (*records.OrderDetail, error)
	Result(ctx context.Context, resultID uint) (*records.ResultDetail, error)
}

// Option configures a Session.
type Option func(*Session)

func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// WithScheduler replaces the wall-clock timer source.
func WithScheduler(sched Scheduler) Option {
	return func(s *Session) { s.sched = sched }
}

// WithTimeout bounds every fetch. A timeout surfaces as a network error.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *Session) { s.metrics = m }
}

// WithObserver registers fn to receive a View after every applied change.
// fn runs on the session goroutine.
func WithObserver(fn func(View)) Option {
	return func(s *Session) { s.observer = fn }
}

// WithAuthErrorHandler registers the callback for authentication failures.
func WithAuthErrorHandler(fn func(error)) Option {
	return func(s *Session) { s.onAuthError = fn }
}

// WithReportOptions sets the options used by Report.
func WithReportOptions(opts ...report.Option) Option {
	return func(s *Session) { s.reportOpts = opts }
}

type pendingDrill struct {
	class Class
	id    uint
}

// Session is one user's lookup and drill-down state. It is not safe for
// concurrent use: every method must be called on the goroutine the Runtime
// posts to.
type Session struct {
	id          string
	api         API
	rt          Runtime
	sched       Scheduler
	debounce    time.Duration
	timeout     time.Duration
	log         zerolog.Logger
	metrics     *metrics.Collector
	observer    func(View)
	onAuthError func(error)
	reportOpts  []report.Option

	deb   *Debouncer
	seq   Sequencer
	cache *Cache
	nav   Navigator

	query     string
	results   []records.PatientSummary
	searching bool
	searchErr error

	patient   *records.PatientSummary
	history   *records.PatientHistory
	order     *records.OrderDetail
	result    *records.ResultDetail
	pending   *pendingDrill
	detailErr error
	err       error
	retry     func() error
}

// NewSession creates a session in the Search state.
func NewSession(api API, rt Runtime, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		api:      api,
		rt:       rt,
		sched:    clockScheduler{},
		debounce: DefaultDebounce,
		timeout:  DefaultTimeout,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("session_id", s.id).Logger()
	s.deb = NewDebouncer(s.debounce, s.sched, rt)
	s.cache = NewCache(s.metrics)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Type records the current contents of the search box. Short queries clear
// the results at once; others are searched once typing settles.
func (s *Session) Type(q string) error {
	if s.nav.State() != StateSearch {
		return s.nav.invalid("type")
	}
	s.query = q
	trimmed := strings.TrimSpace(q)
	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		s.deb.Cancel()
		s.seq.Invalidate(ClassSearch)
		s.results = nil
		s.searching = false
		s.searchErr = nil
		s.notify()
		return nil
	}
	s.deb.Arm(func() { s.search(trimmed) })
	s.notify()
	return nil
}

func (s *Session) search(q string) {
	t := s.seq.Next(ClassSearch)
	s.searching = true
	s.log.Debug().Str("query", q).Uint64("seq", t.Seq).Msg("searching")
	fetch(s, t, func(ctx context.Context) ([]records.PatientSummary, error) {
		return s.api.Search(ctx, q)
	}, func(res []records.PatientSummary, err error) {
		s.searching = false
		if err != nil {
			s.searchErr = err
			return
		}
		s.results = res
		s.searchErr = nil
	})
	s.notify()
}

// SelectPatient leaves the search view and loads p's history.
func (s *Session) SelectPatient(p records.PatientSummary) error {
	if err := s.nav.BeginHistory(p.ID); err != nil {
		return err
	}
	s.deb.Cancel()
	s.seq.Invalidate(ClassSearch, ClassOrder, ClassResult)
	s.query = ""
	s.results = nil
	s.searching = false
	s.searchErr = nil
	s.cache.Clear()

	s.patient = &p
	s.history = nil
	s.clearDetail()
	s.err = nil
	s.retry = nil
	s.log.Info().Uint("patient_id", p.ID).Msg("patient selected")

	s.loadHistory(p)
	s.notify()
	return nil
}

func (s *Session) loadHistory(p records.PatientSummary) {
	t := s.seq.Next(ClassHistory)
	fetch(s, t, func(ctx context.Context) (*records.PatientHistory, error) {
		h, err := s.api.History(ctx, p.ID)
		if err == nil && (h == nil || h.Patient.ID != p.ID) {
			return nil, &records.APIError{Kind: records.ErrNotFound, Op: "history", Err: errors.New("history for another patient")}
		}
		return h, err
	}, func(h *records.PatientHistory, err error) {
		if s.nav.State() != StateHistoryLoading || s.nav.PatientID() != p.ID {
			return
		}
		if err != nil {
			_ = s.nav.HistoryFailed()
			s.patient = nil
			s.err = err
			s.setRetry(err, func() error { return s.SelectPatient(p) })
			return
		}
		s.cache.Put(KindHistory, p.ID, h)
		s.history = h
		_ = s.nav.HistoryLoaded(p.ID)
	})
}

// DrillOrder opens an order of the current history. A cached order opens
// at once; otherwise the view changes only when the fetch succeeds.
func (s *Session) DrillOrder(id uint) error {
	return drill(s, ClassOrder, id, s.cache.Order, s.api.Order, func(o *records.OrderDetail) error {
		if o.PatientID != 0 && o.PatientID != s.nav.PatientID() {
			return errors.New("order belongs to another patient")
		}
		return nil
	}, func(o *records.OrderDetail) error {
		if err := s.nav.PushOrder(id); err != nil {
			return err
		}
		s.order = o
		return nil
	})
}

// DrillResult opens a result of the current history.
func (s *Session) DrillResult(id uint) error {
	return drill(s, ClassResult, id, s.cache.Result, s.api.Result, func(r *records.ResultDetail) error {
		if r.Patient != nil && r.Patient.ID != s.nav.PatientID() {
			return errors.New("result belongs to another patient")
		}
		return nil
	}, func(r *records.ResultDetail) error {
		if err := s.nav.PushResult(id); err != nil {
			return err
		}
		s.result = r
		return nil
	})
}

func drill[T any](
	s *Session,
	class Class,
	id uint,
	cached func(uint) (*T, bool),
	load func(context.Context, uint) (*T, error),
	check func(*T) error,
	open func(*T) error,
) error {
	if s.nav.State() != StateHistoryLoaded {
		return s.nav.invalid("drill " + class.String())
	}
	// A newer drill-in supersedes any pending one.
	s.seq.Invalidate(ClassOrder, ClassResult)
	s.pending = nil
	s.detailErr = nil
	s.retry = nil

	if v, ok := cached(id); ok {
		if err := open(v); err != nil {
			return err
		}
		s.notify()
		return nil
	}

	patientID := s.nav.PatientID()
	kind := Kind(class.String())
	s.pending = &pendingDrill{class: class, id: id}
	t := s.seq.Next(class)
	fetch(s, t, func(ctx context.Context) (*T, error) {
		return load(ctx, id)
	}, func(v *T, err error) {
		if s.nav.State() != StateHistoryLoaded || s.nav.PatientID() != patientID {
			return
		}
		s.pending = nil
		if err == nil && v == nil {
			err = &records.APIError{Kind: records.ErrNotFound, Op: class.String(), Err: errors.New("empty response")}
			s.metrics.Failed(class.String(), errorKind(err))
		} else if err == nil {
			if cerr := check(v); cerr != nil {
				err = &records.APIError{Kind: records.ErrNotFound, Op: class.String(), Err: cerr}
				s.metrics.Failed(class.String(), errorKind(err))
			}
		}
		if err != nil {
			s.detailErr = err
			s.setRetry(err, func() error { return drill(s, class, id, cached, load, check, open) })
			s.log.Warn().Err(err).Str("class", class.String()).Uint("id", id).Msg("drill-in failed")
			return
		}
		s.cache.Put(kind, id, v)
		if oerr := open(v); oerr != nil {
			s.log.Error().Err(oerr).Msg("drill-in could not open")
		}
	})
	s.notify()
	return nil
}

// Back pops one navigation level. Returning to a history reuses the loaded
// records; returning to Search drops the patient and the cache.
func (s *Session) Back() {
	switch s.nav.State() {
	case StateSearch:
		return
	case StateOrderDetail, StateResultDetail:
		s.nav.Back()
		s.clearDetail()
		if h, ok := s.cache.History(s.nav.PatientID()); ok {
			s.history = h
		}
	case StateHistoryLoading, StateHistoryLoaded:
		s.nav.Back()
		s.seq.Invalidate(ClassHistory, ClassOrder, ClassResult)
		s.cache.Clear()
		s.patient = nil
		s.history = nil
		s.clearDetail()
		s.err = nil
		s.retry = nil
	}
	s.notify()
}

// SelectTab switches between the orders and results of a loaded history.
func (s *Session) SelectTab(t Tab) error {
	if err := s.nav.SelectTab(t); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Retry reissues the last failed load.
func (s *Session) Retry() error {
	if s.retry == nil {
		return ErrNothingToRetry
	}
	r := s.retry
	s.retry = nil
	return r()
}

// Report formats the open result for printing.
func (s *Session) Report() (report.Document, error) {
	if s.nav.State() != StateResultDetail {
		return report.Document{}, s.nav.invalid("report")
	}
	return report.Format(s.result, s.reportOpts...)
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	v := View{
		SessionID: s.id,
		State:     s.nav.State(),
		Frames:    s.nav.Frames(),
		Query:     s.query,
		Searching: s.searching,
		SearchErr: s.searchErr,
		History:   s.history,
		Tab:       s.nav.Tab(),
		Order:     s.order,
		Result:    s.result,
		DetailErr: s.detailErr,
		Err:       s.err,
		CanRetry:  s.retry != nil,
	}
	if s.results != nil {
		v.Results = append([]records.PatientSummary(nil), s.results...)
	}
	if s.patient != nil {
		p := *s.patient
		v.Patient = &p
	}
	if s.pending != nil {
		v.Loading = true
		v.LoadingClass = s.pending.class
		v.LoadingID = s.pending.id
	}
	return v
}

func (s *Session) clearDetail() {
	s.order = nil
	s.result = nil
	s.pending = nil
	s.detailErr = nil
}

func (s *Session) setRetry(err error, fn func() error) {
	if records.IsAuth(err) {
		return
	}
	s.retry = fn
}

func (s *Session) notify() {
	if s.observer != nil {
		s.observer(s.View())
	}
}

// fetch runs call in the background under the session timeout and applies
// the outcome on the session goroutine, unless t has been superseded.
func fetch[T any](s *Session, t Ticket, call func(context.Context) (T, error), apply func(T, error)) {
	class := t.Class.String()
	s.metrics.Dispatched(class)
	timeout := s.timeout
	s.rt.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		v, err := call(ctx)
		cancel()
		err = normalize(class, err)

		s.rt.Post(func() {
			if !s.seq.Current(t) {
				s.metrics.Stale(class)
				s.log.Debug().Err(records.ErrStaleResponse).Str("class", class).
					Uint64("seq", t.Seq).Uint64("latest", s.seq.Latest(t.Class)).Msg("dropping response")
				return
			}
			if err != nil {
				s.metrics.Failed(class, errorKind(err))
				if records.IsAuth(err) && s.onAuthError != nil {
					s.onAuthError(err)
				}
			}
			apply(v, err)
			s.notify()
		})
	})
}

// normalize maps errors outside the taxonomy to network errors.
func normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{records.ErrNetwork, records.ErrAuth, records.ErrRateLimited, records.ErrNotFound} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return &records.APIError{Kind: records.ErrNetwork, Op: op, Err: err}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, records.ErrAuth):
		return "auth"
	case errors.Is(err, records.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, records.ErrNotFound):
		return "not_found"
	default:
		return "network"
	}
}
