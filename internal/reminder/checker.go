// Package reminder periodically looks for pending evaluations that are due
// soon and raises one platform notification per evaluation per dedup window.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nhle/evaltracker/internal/backend"
	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/notify"
	"github.com/nhle/evaltracker/internal/store"
)

// Defaults for the reminder cycle.
const (
	DefaultLookahead    = 24 * time.Hour
	DefaultDedupWindow  = 48 * time.Hour
	DefaultInterval     = 30 * time.Minute
	DefaultDismissAfter = 8 * time.Second

	// cycleTimeout bounds the network reads of a single cycle.
	cycleTimeout = 30 * time.Second
)

// Reason explains the outcome of a check.
type Reason int

const (
	ReasonOK Reason = iota
	ReasonNoUser
	ReasonQueryFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonOK:
		return "ok"
	case ReasonNoUser:
		return "no user"
	case ReasonQueryFailed:
		return "query failed"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Result is the outcome of one check cycle.
type Result struct {
	// Urgent holds every pending evaluation due within the lookahead,
	// whether or not a notification was sent for it this cycle.
	Urgent []model.UrgentEvaluation

	Reason Reason

	// Err is the upstream error when Reason is ReasonQueryFailed.
	Err error

	// Notified counts the notifications dispatched this cycle.
	Notified int
}

// Ticker is the periodic timer driving Start.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// Checker runs reminder cycles for one user at a time.
type Checker struct {
	evals    backend.Evaluations
	repo     store.NotifiedRepository
	platform notify.Platform
	logger   *slog.Logger

	now          func() time.Time
	loc          *time.Location
	lookahead    time.Duration
	dedupWindow  time.Duration
	interval     time.Duration
	dismissAfter time.Duration
	focus        func()
	afterFunc    func(d time.Duration, f func())
	newTicker    func(d time.Duration) Ticker

	// cycleMu serializes cycles so the dedup map has a single writer.
	cycleMu sync.Mutex

	mu     sync.Mutex
	active *run
}

// run is one Start invocation's schedule.
type run struct {
	userID string
	stop   chan struct{}
	once   sync.Once
}

func (r *run) cancel() {
	r.once.Do(func() { close(r.stop) })
}

func (r *run) stopped() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

// WithLocation sets the zone used to format due times.
func WithLocation(loc *time.Location) Option {
	return func(c *Checker) { c.loc = loc }
}

// WithLookahead sets how far ahead evaluations count as urgent.
func WithLookahead(d time.Duration) Option {
	return func(c *Checker) { c.lookahead = d }
}

// WithDedupWindow sets how long a notified evaluation stays silent.
func WithDedupWindow(d time.Duration) Option {
	return func(c *Checker) { c.dedupWindow = d }
}

// WithInterval sets the period between cycles started by Start.
func WithInterval(d time.Duration) Option {
	return func(c *Checker) { c.interval = d }
}

// WithDismissAfter sets how long a notification stays up.
func WithDismissAfter(d time.Duration) Option {
	return func(c *Checker) { c.dismissAfter = d }
}

// WithFocus sets the function run when a notification is clicked.
func WithFocus(f func()) Option {
	return func(c *Checker) { c.focus = f }
}

// WithAfterFunc replaces time.AfterFunc for auto-dismissal.
func WithAfterFunc(f func(d time.Duration, fn func())) Option {
	return func(c *Checker) { c.afterFunc = f }
}

// WithTicker replaces time.NewTicker for the Start schedule.
func WithTicker(f func(d time.Duration) Ticker) Option {
	return func(c *Checker) { c.newTicker = f }
}

// New creates a Checker. platform may be nil, in which case no platform
// notifications are sent but checks still return urgent evaluations.
func New(
	evals backend.Evaluations,
	repo store.NotifiedRepository,
	platform notify.Platform,
	opts ...Option,
) *Checker {
	if platform == nil {
		platform = notify.Unsupported{}
	}
	c := &Checker{
		evals:        evals,
		repo:         repo,
		platform:     platform,
		logger:       slog.Default(),
		now:          time.Now,
		loc:          time.Local,
		lookahead:    DefaultLookahead,
		dedupWindow:  DefaultDedupWindow,
		interval:     DefaultInterval,
		dismissAfter: DefaultDismissAfter,
		focus:        func() {},
		afterFunc:    func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		newTicker: func(d time.Duration) Ticker {
			return timeTicker{t: time.NewTicker(d)}
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check runs one cycle for userID: it fetches pending evaluations due
// within the lookahead, resolves their subject names, and notifies the
// ones not seen within the dedup window. It never returns an error;
// failures are reported through Result.Reason.
func (c *Checker) Check(ctx context.Context, userID string) Result {
	if userID == "" {
		return Result{Reason: ReasonNoUser}
	}

	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	now := c.now()
	urgent, err := c.fetchUrgent(ctx, userID, now)
	if err != nil {
		c.logger.Warn("checking upcoming evaluations", "user_id", userID, "error", err)
		return Result{Reason: ReasonQueryFailed, Err: err}
	}

	result := Result{Urgent: urgent, Reason: ReasonOK}
	if len(urgent) == 0 {
		return result
	}

	notified := c.loadNotified(ctx, now)
	for _, u := range urgent {
		if _, seen := notified[u.ID]; seen {
			continue
		}
		if !c.dispatch(ctx, u) {
			continue
		}

		notified[u.ID] = c.now()
		result.Notified++
	}

	if result.Notified > 0 {
		if err := c.repo.PutNotifiedMap(ctx, notified); err != nil {
			c.logger.Warn("saving notified cache", "user_id", userID, "error", err)
		}
	}

	c.logger.Debug("reminder cycle complete",
		"user_id", userID,
		"urgent", len(urgent),
		"notified", result.Notified,
	)
	return result
}

// fetchUrgent performs the evaluation and subject reads and joins them.
func (c *Checker) fetchUrgent(ctx context.Context, userID string, now time.Time) ([]model.UrgentEvaluation, error) {
	until := now.Add(c.lookahead)

	evals, err := c.evals.ListUpcomingEvaluations(ctx, userID, now, until)
	if err != nil {
		return nil, err
	}

	var pending []model.Evaluation
	for _, e := range evals {
		if e.DueDate == nil || e.Completed || e.DueDate.Before(now) || e.DueDate.After(until) {
			continue
		}
		pending = append(pending, e)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var subjectIDs []string
	for _, e := range pending {
		if e.SubjectID != "" && !seen[e.SubjectID] {
			seen[e.SubjectID] = true
			subjectIDs = append(subjectIDs, e.SubjectID)
		}
	}

	names := make(map[string]string, len(subjectIDs))
	if len(subjectIDs) > 0 {
		subjects, err := c.evals.ListSubjectsByID(ctx, userID, subjectIDs)
		if err != nil {
			return nil, err
		}
		for _, s := range subjects {
			names[s.ID] = s.Name
		}
	}

	urgent := make([]model.UrgentEvaluation, 0, len(pending))
	for _, e := range pending {
		name := names[e.SubjectID]
		if name == "" {
			name = UnknownSubject
		}
		urgent = append(urgent, model.UrgentEvaluation{
			Evaluation:  e,
			SubjectName: name,
			HoursLeft:   int(e.DueDate.Sub(now) / time.Hour),
			TimeStr:     e.DueDate.In(c.loc).Format("15:04"),
		})
	}
	return urgent, nil
}

// dispatch shows the notification for u and schedules its dismissal. It
// reports whether the platform accepted it. Platform failures, including
// panics, are swallowed.
func (c *Checker) dispatch(ctx context.Context, u model.UrgentEvaluation) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("notification platform panicked", "evaluation_id", u.ID, "panic", r)
			ok = false
		}
	}()

	if c.platform.Permission() != notify.PermissionGranted {
		return false
	}

	var ref handleRef
	n := BuildNotification(u)
	n.OnClick = func() {
		c.focus()
		ref.close()
	}

	h, err := c.platform.Show(ctx, n)
	if err != nil {
		c.logger.Debug("notification not shown", "evaluation_id", u.ID, "error", err)
		return false
	}
	ref.set(h)

	c.afterFunc(c.dismissAfter, ref.close)
	return true
}

// handleRef lets callbacks created before Show returns close the handle.
type handleRef struct {
	mu sync.Mutex
	h  notify.Handle
}

func (r *handleRef) set(h notify.Handle) {
	r.mu.Lock()
	r.h = h
	r.mu.Unlock()
}

func (r *handleRef) close() {
	r.mu.Lock()
	h := r.h
	r.mu.Unlock()
	if h != nil {
		_ = h.Close()
	}
}

// Start runs a cycle for userID immediately and then every interval,
// replacing any schedule started earlier. Non-empty urgent lists are
// passed to onUrgent, which may be nil. An empty userID is ignored.
func (c *Checker) Start(userID string, onUrgent func([]model.UrgentEvaluation)) {
	if userID == "" {
		return
	}

	r := &run{userID: userID, stop: make(chan struct{})}

	c.mu.Lock()
	if c.active != nil {
		c.active.cancel()
	}
	c.active = r
	c.mu.Unlock()

	ticker := c.newTicker(c.interval)
	go c.loop(r, ticker, onUrgent)
}

// Stop cancels the schedule started by Start. A cycle already in flight
// finishes; no further cycles start. Stop without a schedule is a no-op.
func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.cancel()
		c.active = nil
	}
}

// Running reports whether a schedule is active.
func (c *Checker) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

func (c *Checker) loop(r *run, ticker Ticker, onUrgent func([]model.UrgentEvaluation)) {
	defer ticker.Stop()

	c.tick(r, onUrgent)
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C():
			c.tick(r, onUrgent)
		}
	}
}

func (c *Checker) tick(r *run, onUrgent func([]model.UrgentEvaluation)) {
	if r.stopped() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	result := c.Check(ctx, r.userID)
	if r.stopped() {
		return
	}
	if onUrgent != nil && len(result.Urgent) > 0 {
		onUrgent(result.Urgent)
	}
}
