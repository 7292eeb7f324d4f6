package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/notify"
	"github.com/nhle/evaltracker/internal/store"
)

var baseTime = time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)

// fakeEvaluations filters its rows by the window it is asked for, the way
// the hosted backend does.
type fakeEvaluations struct {
	mu          sync.Mutex
	evals       []model.Evaluation
	subjects    []model.Subject
	evalErr     error
	subjectErr  error
	evalCalls   []string
	subjectIDs  [][]string
	lastFrom    time.Time
	lastTo      time.Time
	calledUsers chan string
}

func (f *fakeEvaluations) ListUpcomingEvaluations(_ context.Context, userID string, from, to time.Time) ([]model.Evaluation, error) {
	f.mu.Lock()
	f.evalCalls = append(f.evalCalls, userID)
	f.lastFrom, f.lastTo = from, to
	ch := f.calledUsers
	f.mu.Unlock()
	if ch != nil {
		ch <- userID
	}

	if f.evalErr != nil {
		return nil, f.evalErr
	}
	var out []model.Evaluation
	for _, e := range f.evals {
		if e.UserID != userID || e.Completed || e.DueDate == nil {
			continue
		}
		if e.DueDate.Before(from) || e.DueDate.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEvaluations) ListSubjectsByID(_ context.Context, userID string, ids []string) ([]model.Subject, error) {
	f.mu.Lock()
	f.subjectIDs = append(f.subjectIDs, ids)
	f.mu.Unlock()
	if f.subjectErr != nil {
		return nil, f.subjectErr
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Subject
	for _, s := range f.subjects {
		if s.UserID == userID && want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeEvaluations) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.evalCalls)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type pendingTimer struct {
	d  time.Duration
	fn func()
}

type fakeTimers struct {
	mu      sync.Mutex
	pending []pendingTimer
}

func (t *fakeTimers) AfterFunc(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, pendingTimer{d: d, fn: fn})
}

func (t *fakeTimers) FireAll() {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()
	for _, p := range pending {
		p.fn()
	}
}

type fixture struct {
	evals    *fakeEvaluations
	store    *store.MemoryStore
	platform *notify.Recorder
	clock    *fakeClock
	timers   *fakeTimers
	checker  *Checker
	focused  int
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		evals:    &fakeEvaluations{},
		store:    store.NewMemoryStore(),
		platform: notify.NewRecorder(notify.PermissionGranted),
		clock:    &fakeClock{now: baseTime},
		timers:   &fakeTimers{},
	}
	base := []Option{
		WithClock(f.clock.Now),
		WithLocation(time.UTC),
		WithAfterFunc(f.timers.AfterFunc),
		WithFocus(func() { f.focused++ }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	f.checker = New(f.evals, f.store, f.platform, append(base, opts...)...)
	return f
}

func (f *fixture) addSubject(id, name string) {
	f.evals.subjects = append(f.evals.subjects, model.Subject{ID: id, UserID: "u1", Name: name})
}

func (f *fixture) addEval(id, subjectID, title string, due time.Time) {
	f.evals.evals = append(f.evals.evals, model.Evaluation{
		ID:        id,
		UserID:    "u1",
		SubjectID: subjectID,
		Title:     title,
		Type:      model.EvalTypeTest,
		DueDate:   &due,
	})
}

func TestCheckWindowBoundaries(t *testing.T) {
	f := newFixture(t)
	f.addSubject("s1", "Calculus")
	f.addEval("inside", "s1", "Inside", baseTime.Add(24*time.Hour-time.Second))
	f.addEval("outside", "s1", "Outside", baseTime.Add(24*time.Hour+time.Second))
	f.addEval("past", "s1", "Past", baseTime.Add(-time.Second))

	res := f.checker.Check(context.Background(), "u1")

	require.Equal(t, ReasonOK, res.Reason)
	require.Len(t, res.Urgent, 1)
	assert.Equal(t, "inside", res.Urgent[0].ID)
	assert.Equal(t, 23, res.Urgent[0].HoursLeft)
	assert.Equal(t, baseTime, f.evals.lastFrom)
	assert.Equal(t, baseTime.Add(24*time.Hour), f.evals.lastTo)
}

func TestCheckFiltersRowsOutsideWindow(t *testing.T) {
	f := newFixture(t)
	// Rows a misbehaving backend returns anyway.
	due := baseTime.Add(25 * time.Hour)
	past := baseTime.Add(-time.Hour)
	checker := New(&staticEvaluations{evals: []model.Evaluation{
		{ID: "late", UserID: "u1", DueDate: &due},
		{ID: "past", UserID: "u1", DueDate: &past},
		{ID: "nodate", UserID: "u1"},
	}}, f.store, f.platform, WithClock(f.clock.Now))

	res := checker.Check(context.Background(), "u1")

	assert.Equal(t, ReasonOK, res.Reason)
	assert.Empty(t, res.Urgent)
	assert.Empty(t, f.platform.Shown())
}

type staticEvaluations struct {
	evals []model.Evaluation
}

func (s *staticEvaluations) ListUpcomingEvaluations(context.Context, string, time.Time, time.Time) ([]model.Evaluation, error) {
	return s.evals, nil
}

func (s *staticEvaluations) ListSubjectsByID(context.Context, string, []string) ([]model.Subject, error) {
	return nil, nil
}

func TestCheckBuildsNotification(t *testing.T) {
	tests := []struct {
		name string
		due  time.Time
		body string
	}{
		{
			name: "one hour left",
			due:  time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
			body: "Calculus — Entrega hoy a las 14:00. ¡Menos de 1 hora!",
		},
		{
			name: "five hours left",
			due:  time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC),
			body: "Calculus — Entrega hoy a las 18:30. Quedan 5h",
		},
		{
			name: "minutes left",
			due:  baseTime.Add(20 * time.Minute),
			body: "Calculus — Entrega hoy a las 13:20. ¡Menos de 1 hora!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addSubject("s1", "Calculus")
			f.addEval("e1", "s1", "Midterm", tt.due)

			res := f.checker.Check(context.Background(), "u1")
			require.Len(t, res.Urgent, 1)
			assert.Equal(t, 1, res.Notified)

			shown := f.platform.Shown()
			require.Len(t, shown, 1)
			assert.Equal(t, "⚠️ Midterm", shown[0].Title)
			assert.Equal(t, tt.body, shown[0].Body)
			assert.Equal(t, "eval-e1", shown[0].Tag)
		})
	}
}

func TestCheckFormatsTimeInLocation(t *testing.T) {
	loc := time.FixedZone("CLT", -3*60*60)
	f := newFixture(t, WithLocation(loc))
	f.addSubject("s1", "Física")
	f.addEval("e1", "s1", "Lab", time.Date(2026, 3, 10, 17, 45, 0, 0, time.UTC))

	res := f.checker.Check(context.Background(), "u1")

	require.Len(t, res.Urgent, 1)
	assert.Equal(t, "14:45", res.Urgent[0].TimeStr)
	assert.Equal(t, 4, res.Urgent[0].HoursLeft)
}

func TestCheckUnknownSubject(t *testing.T) {
	f := newFixture(t)
	f.addEval("e1", "missing", "Essay", baseTime.Add(3*time.Hour))
	f.addEval("e2", "", "Quiz", baseTime.Add(4*time.Hour))

	res := f.checker.Check(context.Background(), "u1")

	require.Len(t, res.Urgent, 2)
	assert.Equal(t, UnknownSubject, res.Urgent[0].SubjectName)
	assert.Equal(t, UnknownSubject, res.Urgent[1].SubjectName)
	require.Len(t, f.evals.subjectIDs, 1)
	assert.Equal(t, []string{"missing"}, f.evals.subjectIDs[0])
}

func TestCheckDeduplicatesSubjectIDs(t *testing.T) {
	f := newFixture(t)
	f.addSubject("s1", "Calculus")
	f.addSubject("s2", "History")
	f.addEval("e1", "s1", "A", baseTime.Add(time.Hour))
	f.addEval("e2", "s2", "B", baseTime.Add(2*time.Hour))
	f.addEval("e3", "s1", "C", baseTime.Add(3*time.Hour))

	res := f.checker.Check(context.Background(), "u1")

	require.Len(t, res.Urgent, 3)
	assert.Equal(t, []string{"s1", "s2"}, f.evals.subjectIDs[0])
	assert.Equal(t, "History", res.Urgent[1].SubjectName)
}

func TestCheckIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addSubject("s1", "Calculus")
	f.addEval("e1", "s1", "Midterm", baseTime.Add(2*time.Hour))

	first := f.checker.Check(context.Background(), "u1")
	second := f.checker.Check(context.Background(), "u1")

	assert.Equal(t, 1, first.Notified)
	assert.Equal(t, 0, second.Notified)
	assert.Len(t, second.Urgent, 1, "already-notified evaluations are still reported")
	assert.Len(t, f.platform.Shown(), 1)
	assert.Equal(t, 1, f.store.Writes(store.KeyNotified))
}

func TestCheckWritesCacheOncePerCycle(t *testing.T) {
	f := newFixture(t)
	f.addSubject("s1", "Calculus")
	f.addEval("e1", "s1", "Midterm", baseTime.Add(time.Hour))
	f.addEval("e2", "s1", "Quiz", baseTime.Add(2*time.Hour))
	f.addEval("e3", "s1", "Essay", baseTime.Add(3*time.Hour))

	res := f.checker.Check(context.Background(), "u1")

	assert.Equal(t, 3, res.Notified)
	assert.Equal(t, 1, f.store.Writes(store.KeyNotified))

	m, err := f.store.GetNotifiedMap(context.Background())
	require.NoError(t, err)
	assert.Len(t, m, 3)
}

func TestCheckRenotifiesAfterDedupWindow(t *testing.T) {
	f := newFixture(t)
	f.addSubject("s1", "Calculus")
	f.addEval("e1", "s1", "Midterm", baseTime.Add(2*time.Hour))

	require.Equal(t, 1, f.checker.Check(context.Background(), "u1").Notified)

	// Same entry, still inside the window: silent.
	f.clock.Set(baseTime.Add(30 * time.Minute))
	require.Equal(t, 0, f.checker.Check(context.Background(), "u1").Notified)

	// Move the evaluation so it is due again relative to the later clock.
	later := baseTime.Add(48*time.Hour + time.Second)
	f.evals.evals = nil
	f.addEval("e1", "s1", "Midterm", later.Add(time.Hour))
	f.clock.Set(later)

	res := f.checker.Check(context.Background(), "u1")
	assert.Equal(t, 1, res.Notified)
	assert.Len(t, f.platform.Shown(), 2)
}

func TestCheckPrunesExpiredEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.PutNotifiedMap(ctx, map[string]time.Time{
		"stale": baseTime.Add(-48 * time.Hour),
		"fresh": baseTime.Add(-time.Hour),
	}))
	f.addSubject("s1", "Calculus")
	f.addEval("e1", "s1", "Midterm", baseTime.Add(time.Hour))

	f.checker.Check(ctx, "u1")

	m, err := f.store.GetNotifiedMap(ctx)
	require.NoError(t, err)
	assert.NotContains(t, m, "stale")
	assert.Contains(t, m, "fresh")
	assert.Contains(t, m, "e1")
}

func TestCheckEmptyUser(t *testing.T) {
	f := newFixture(t)
	f.addEval("e1", "", "Midterm", baseTime.Add(time.Hour))

	res := f.checker.Check(context.Background(), "")

	assert.Equal(t, ReasonNoUser, res.Reason)
	assert.Empty(t, res.Urgent)
	assert.Zero(t, f.evals.calls())
}

func TestCheckQueryFailure(t *testing.T) {
	t.Run("evaluations", func(t *testing.T) {
		f := newFixture(t)
		f.evals.evalErr = errors.New("connection refused")

		res := f.checker.Check(context.Background(), "u1")

		assert.Equal(t, ReasonQueryFailed, res.Reason)
		assert.EqualError(t, res.Err, "connection refused")
		assert.Empty(t, res.Urgent)
	})

	t.Run("subjects", func(t *testing.T) {
		f := newFixture(t)
		f.evals.subjectErr = errors.New("timeout")
		f.addEval("e1", "s1", "Midterm", baseTime.Add(time.Hour))

		res := f.checker.Check(context.Background(), "u1")

		assert.Equal(t, ReasonQueryFailed, res.Reason)
		assert.Empty(t, res.Urgent)
		assert.Empty(t, f.platform.Shown())
	})
}

func TestCheckCorruptCache(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SetValue(context.Background(), store.KeyNotified, "{not json"))
	f.addEval("e1", "", "Midterm", baseTime.Add(time.Hour))

	res := f.checker.Check(context.Background(), "u1")

	assert.Equal(t, 1, res.Notified)
	m, err := f.store.GetNotifiedMap(context.Background())
	require.NoError(t, err)
	assert.Contains(t, m, "e1")
}

func TestCheckWithoutPermission(t *testing.T) {
	for _, perm := range []notify.Permission{
		notify.PermissionDenied,
		notify.PermissionDefault,
		notify.PermissionUnsupported,
	} {
		t.Run(string(perm), func(t *testing.T) {
			f := newFixture(t)
			f.platform = notify.NewRecorder(perm)
			f.checker = New(f.evals, f.store, f.platform, WithClock(f.clock.Now))
			f.addEval("e1", "", "Midterm", baseTime.Add(time.Hour))

			res := f.checker.Check(context.Background(), "u1")

			assert.Len(t, res.Urgent, 1)
			assert.Zero(t, res.Notified)
			assert.Zero(t, f.store.Writes(store.KeyNotified))
		})
	}
}

func TestCheckSwallowsPlatformError(t *testing.T) {
	f := newFixture(t)
	f.platform.SetShowError(errors.New("display unavailable"))
	f.addEval("e1", "", "Midterm", baseTime.Add(time.Hour))

	res := f.checker.Check(context.Background(), "u1")

	assert.Equal(t, ReasonOK, res.Reason)
	assert.Len(t, res.Urgent, 1)
	assert.Zero(t, res.Notified)
	assert.Zero(t, f.store.Writes(store.KeyNotified))
}

type panickingPlatform struct{}

func (panickingPlatform) Permission() notify.Permission { return notify.PermissionGranted }

func (panickingPlatform) RequestPermission(context.Context) (notify.Permission, error) {
	return notify.PermissionGranted, nil
}

func (panickingPlatform) Show(context.Context, notify.Notification) (notify.Handle, error) {
	panic("boom")
}

func TestCheckRecoversPlatformPanic(t *testing.T) {
	f := newFixture(t)
	f.addEval("e1", "", "Midterm", baseTime.Add(time.Hour))
	checker := New(f.evals, f.store, panickingPlatform{},
		WithClock(f.clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	var res Result
	require.NotPanics(t, func() { res = checker.Check(context.Background(), "u1") })
	assert.Len(t, res.Urgent, 1)
	assert.Zero(t, res.Notified)
}

func TestCheckNilPlatform(t *testing.T) {
	f := newFixture(t)
	f.addEval("e1", "", "Midterm", baseTime.Add(time.Hour))
	checker := New(f.evals, f.store, nil, WithClock(f.clock.Now))

	res := checker.Check(context.Background(), "u1")

	assert.Len(t, res.Urgent, 1)
	assert.Zero(t, res.Notified)
}

func TestNotificationDismissAndClick(t *testing.T) {
	f := newFixture(t)
	f.addEval("e1", "", "Midterm", baseTime.Add(time.Hour))
	f.addEval("e2", "", "Essay", baseTime.Add(2*time.Hour))

	f.checker.Check(context.Background(), "u1")

	handles := f.platform.Handles()
	require.Len(t, handles, 2)
	require.Len(t, f.timers.pending, 2)
	assert.Equal(t, DefaultDismissAfter, f.timers.pending[0].d)

	handles[0].Click()
	assert.Equal(t, 1, f.focused)
	assert.True(t, handles[0].Closed())
	assert.False(t, handles[1].Closed())

	f.timers.FireAll()
	assert.True(t, handles[1].Closed())
}

type fakeTicker struct {
	mu      sync.Mutex
	c       chan time.Time
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*fakeTicker
	periods []time.Duration
}

func (f *tickerFactory) New(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	f.periods = append(f.periods, d)
	return t
}

func (f *tickerFactory) Get(i int) *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[i]
}

func waitUser(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for check cycle")
		return ""
	}
}

func TestStartRunsImmediatelyAndOnTick(t *testing.T) {
	tickers := &tickerFactory{}
	f := newFixture(t, WithTicker(tickers.New), WithInterval(time.Minute))
	f.evals.calledUsers = make(chan string, 4)
	f.addEval("e1", "", "Midterm", baseTime.Add(time.Hour))

	got := make(chan []model.UrgentEvaluation, 4)
	f.checker.Start("u1", func(u []model.UrgentEvaluation) { got <- u })
	defer f.checker.Stop()

	assert.Equal(t, "u1", waitUser(t, f.evals.calledUsers))
	select {
	case u := <-got:
		assert.Len(t, u, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("callback not invoked")
	}

	tickers.Get(0).c <- baseTime
	assert.Equal(t, "u1", waitUser(t, f.evals.calledUsers))
	assert.Equal(t, time.Minute, tickers.periods[0])
	assert.True(t, f.checker.Running())
}

func TestStartSkipsCallbackWhenNothingUrgent(t *testing.T) {
	tickers := &tickerFactory{}
	f := newFixture(t, WithTicker(tickers.New))
	f.evals.calledUsers = make(chan string, 1)

	called := make(chan struct{}, 1)
	f.checker.Start("u1", func([]model.UrgentEvaluation) { called <- struct{}{} })
	defer f.checker.Stop()

	waitUser(t, f.evals.calledUsers)
	select {
	case <-called:
		t.Fatal("callback invoked with empty result")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStartReplacesPreviousSchedule(t *testing.T) {
	tickers := &tickerFactory{}
	f := newFixture(t, WithTicker(tickers.New))
	f.evals.calledUsers = make(chan string, 8)

	f.checker.Start("u1", nil)
	assert.Equal(t, "u1", waitUser(t, f.evals.calledUsers))

	f.checker.Start("u2", nil)
	assert.Equal(t, "u2", waitUser(t, f.evals.calledUsers))
	defer f.checker.Stop()

	assert.Eventually(t, tickers.Get(0).Stopped, time.Second, 5*time.Millisecond)

	tickers.Get(1).c <- baseTime
	assert.Equal(t, "u2", waitUser(t, f.evals.calledUsers))

	select {
	case u := <-f.evals.calledUsers:
		t.Fatalf("unexpected extra cycle for %s", u)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStopPreventsFurtherCycles(t *testing.T) {
	tickers := &tickerFactory{}
	f := newFixture(t, WithTicker(tickers.New))
	f.evals.calledUsers = make(chan string, 4)

	f.checker.Stop() // no-op before Start

	f.checker.Start("u1", nil)
	waitUser(t, f.evals.calledUsers)

	f.checker.Stop()
	f.checker.Stop()
	assert.False(t, f.checker.Running())
	assert.Eventually(t, tickers.Get(0).Stopped, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.evals.calls())
}

func TestStopDropsCallbackOfInFlightCycle(t *testing.T) {
	tickers := &tickerFactory{}
	f := newFixture(t, WithTicker(tickers.New))
	f.evals.calledUsers = make(chan string)
	f.addEval("e1", "", "Midterm", baseTime.Add(time.Hour))

	called := make(chan struct{}, 1)
	f.checker.Start("u1", func([]model.UrgentEvaluation) { called <- struct{}{} })

	// The cycle is blocked inside the query until the user is received.
	assert.Eventually(t, func() bool { return f.evals.calls() == 1 }, time.Second, 5*time.Millisecond)
	f.checker.Stop()
	assert.Equal(t, "u1", waitUser(t, f.evals.calledUsers))

	assert.Eventually(t, tickers.Get(0).Stopped, time.Second, 5*time.Millisecond)
	select {
	case <-called:
		t.Fatal("callback invoked after Stop")
	default:
	}
	assert.Len(t, f.platform.Shown(), 1, "the in-flight cycle still completes")
}

func TestStartIgnoresEmptyUser(t *testing.T) {
	tickers := &tickerFactory{}
	f := newFixture(t, WithTicker(tickers.New))

	f.checker.Start("", nil)

	assert.False(t, f.checker.Running())
	assert.Empty(t, tickers.tickers)
}
