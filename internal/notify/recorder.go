package notify

import (
	"context"
	"sync"
)

// Recorder is an in-memory Platform that records every shown
// notification. It is used by tests and by dry-run commands.
type Recorder struct {
	mu         sync.Mutex
	permission Permission
	consent    func(ctx context.Context) (Permission, error)
	showErr    error
	shown      []Notification
	handles    []*RecordedHandle
	prompts    int
}

// NewRecorder returns a Recorder reporting permission.
func NewRecorder(permission Permission) *Recorder {
	return &Recorder{permission: permission}
}

// SetConsent installs the function run by RequestPermission.
func (r *Recorder) SetConsent(fn func(ctx context.Context) (Permission, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consent = fn
}

// SetShowError makes every subsequent Show fail with err.
func (r *Recorder) SetShowError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.showErr = err
}

func (r *Recorder) Permission() Permission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.permission
}

func (r *Recorder) RequestPermission(ctx context.Context) (Permission, error) {
	r.mu.Lock()
	r.prompts++
	consent := r.consent
	r.mu.Unlock()

	if consent == nil {
		return r.Permission(), nil
	}
	p, err := consent(ctx)
	if err == nil {
		r.mu.Lock()
		r.permission = p
		r.mu.Unlock()
	}
	return p, err
}

func (r *Recorder) Show(_ context.Context, n Notification) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.permission != PermissionGranted {
		return nil, ErrNotPermitted
	}
	if r.showErr != nil {
		return nil, r.showErr
	}

	r.shown = append(r.shown, n)
	h := &RecordedHandle{notification: n}
	r.handles = append(r.handles, h)
	return h, nil
}

// Shown returns a copy of every shown notification.
func (r *Recorder) Shown() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.shown...)
}

// Handles returns the handles of every shown notification.
func (r *Recorder) Handles() []*RecordedHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*RecordedHandle(nil), r.handles...)
}

// Prompts returns how many times the consent flow ran.
func (r *Recorder) Prompts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prompts
}

// RecordedHandle tracks whether a recorded notification was closed.
type RecordedHandle struct {
	mu           sync.Mutex
	notification Notification
	closed       bool
}

func (h *RecordedHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (h *RecordedHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Click simulates the user activating the notification.
func (h *RecordedHandle) Click() {
	if h.notification.OnClick != nil {
		h.notification.OnClick()
	}
}
