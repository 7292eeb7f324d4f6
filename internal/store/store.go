package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Fixed keys of the local key-value store.
const (
	KeyNotified        = "evaltracker-notified-evals"
	KeyPromptDismissed = "evaltracker-notification-prompt-dismissed"
	KeyPermission      = "evaltracker-notification-permission"
)

// ErrCorruptValue is returned when a stored value cannot be decoded.
var ErrCorruptValue = errors.New("corrupt stored value")

// NotifiedRepository persists the evaluation-ID -> last-notified-at map
// used to deduplicate reminders across restarts.
type NotifiedRepository interface {
	// GetNotifiedMap returns the stored map. A missing key yields an empty
	// map; undecodable contents yield ErrCorruptValue.
	GetNotifiedMap(ctx context.Context) (map[string]time.Time, error)

	// PutNotifiedMap replaces the stored map.
	PutNotifiedMap(ctx context.Context, m map[string]time.Time) error
}

// PreferenceRepository persists small user choices about notifications.
type PreferenceRepository interface {
	PromptDismissed(ctx context.Context) (bool, error)
	SetPromptDismissed(ctx context.Context, dismissed bool) error

	// NotificationPermission returns the stored permission for the named
	// platform, or "" when none has been recorded.
	NotificationPermission(ctx context.Context, platform string) (string, error)
	SetNotificationPermission(ctx context.Context, platform, permission string) error
}

// PermissionKey is the key holding the consent state of one platform.
func PermissionKey(platform string) string {
	return KeyPermission + "-" + platform
}

// KV is the raw string-keyed storage underneath the typed repositories.
type KV interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
	DeleteValue(ctx context.Context, key string) error
}

// Store defines the local persistence surface of the application.
type Store interface {
	KV
	NotifiedRepository
	PreferenceRepository
	Close() error
}

// encodeNotified serializes the map as {"<id>": <unix millis>}.
func encodeNotified(m map[string]time.Time) (string, error) {
	raw := make(map[string]int64, len(m))
	for id, ts := range m {
		raw[id] = ts.UnixMilli()
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("marshaling notified map: %w", err)
	}
	return string(data), nil
}

func decodeNotified(value string) (map[string]time.Time, error) {
	var raw map[string]int64
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptValue, KeyNotified, err)
	}
	m := make(map[string]time.Time, len(raw))
	for id, ms := range raw {
		m[id] = time.UnixMilli(ms)
	}
	return m, nil
}

// kvRepos implements the typed repositories on top of any KV.
type kvRepos struct {
	kv KV
}

func (r kvRepos) GetNotifiedMap(ctx context.Context) (map[string]time.Time, error) {
	value, ok, err := r.kv.GetValue(ctx, KeyNotified)
	if err != nil {
		return nil, err
	}
	if !ok || value == "" {
		return map[string]time.Time{}, nil
	}
	return decodeNotified(value)
}

func (r kvRepos) PutNotifiedMap(ctx context.Context, m map[string]time.Time) error {
	value, err := encodeNotified(m)
	if err != nil {
		return err
	}
	return r.kv.SetValue(ctx, KeyNotified, value)
}

func (r kvRepos) PromptDismissed(ctx context.Context) (bool, error) {
	value, ok, err := r.kv.GetValue(ctx, KeyPromptDismissed)
	if err != nil {
		return false, err
	}
	return ok && value == "true", nil
}

func (r kvRepos) SetPromptDismissed(ctx context.Context, dismissed bool) error {
	if !dismissed {
		return r.kv.DeleteValue(ctx, KeyPromptDismissed)
	}
	return r.kv.SetValue(ctx, KeyPromptDismissed, "true")
}

func (r kvRepos) NotificationPermission(ctx context.Context, platform string) (string, error) {
	value, _, err := r.kv.GetValue(ctx, PermissionKey(platform))
	return value, err
}

func (r kvRepos) SetNotificationPermission(ctx context.Context, platform, permission string) error {
	return r.kv.SetValue(ctx, PermissionKey(platform), permission)
}
