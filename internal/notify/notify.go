// Package notify abstracts the platform that shows reminder notifications.
package notify

import (
	"context"
	"errors"
)

// Permission is the platform's consent state for showing notifications.
type Permission string

const (
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionDefault     Permission = "default"
	PermissionUnsupported Permission = "unsupported"
)

// ParsePermission maps a stored string back to a Permission. Unknown
// values read as PermissionDefault.
func ParsePermission(s string) Permission {
	switch Permission(s) {
	case PermissionGranted, PermissionDenied, PermissionUnsupported:
		return Permission(s)
	default:
		return PermissionDefault
	}
}

// ErrNotPermitted is returned by Show when permission is not granted.
var ErrNotPermitted = errors.New("notification permission not granted")

// Notification is one visual notification.
type Notification struct {
	Title string
	Body  string

	// Tag lets the platform collapse notifications for the same item.
	Tag string

	// OnClick runs when the user activates the notification, if the
	// platform supports it.
	OnClick func()
}

// Handle controls a shown notification.
type Handle interface {
	// Close dismisses the notification. Closing twice is a no-op.
	Close() error
}

// Platform is a notification service.
type Platform interface {
	// Permission reports the current consent state without prompting.
	Permission() Permission

	// RequestPermission runs the platform's consent flow. Callers should
	// go through the package-level RequestPermission helper, which
	// guards against re-prompting.
	RequestPermission(ctx context.Context) (Permission, error)

	// Show displays n.
	Show(ctx context.Context, n Notification) (Handle, error)
}

// RequestPermission asks p for consent. It returns the current state
// without invoking the consent flow when the platform is unsupported or a
// decision was already made; any consent-flow error is a denial.
func RequestPermission(ctx context.Context, p Platform) Permission {
	switch current := p.Permission(); current {
	case PermissionUnsupported, PermissionGranted, PermissionDenied:
		return current
	}

	result, err := p.RequestPermission(ctx)
	if err != nil {
		return PermissionDenied
	}
	return result
}

// Unsupported is a platform with no notification capability.
type Unsupported struct{}

func (Unsupported) Permission() Permission { return PermissionUnsupported }

func (Unsupported) RequestPermission(context.Context) (Permission, error) {
	return PermissionUnsupported, nil
}

func (Unsupported) Show(context.Context, Notification) (Handle, error) {
	return nil, ErrNotPermitted
}

// noopHandle is returned by platforms that cannot dismiss notifications.
type noopHandle struct{}

func (noopHandle) Close() error { return nil }

// NoopHandle returns a Handle whose Close does nothing.
func NoopHandle() Handle { return noopHandle{} }
