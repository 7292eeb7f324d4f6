// Package telegram delivers notifications as Telegram bot messages.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nhle/evaltracker/internal/notify"
	"github.com/nhle/evaltracker/internal/store"
)

// Sender is the subset of *tgbotapi.BotAPI used by the platform.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ErrNoChat is returned by RequestPermission when no chat is configured.
var ErrNoChat = errors.New("telegram chat_id is not configured")

// Platform sends each notification to a single chat. A repeated tag
// replaces the previous message for that tag. A grant is recorded in the
// preference store per chat, so later processes reuse it without asking.
type Platform struct {
	token  string
	chatID int64
	prefs  store.PreferenceRepository
	dial   func(token string) (Sender, error)

	mu         sync.Mutex
	sender     Sender
	permission notify.Permission
	tags       map[string]int
}

var _ notify.Platform = (*Platform)(nil)

// New creates a platform for the bot token and chat. The token is only
// verified when permission is requested. prefs may be nil, in which case
// a grant lasts for this process only.
func New(token string, chatID int64, prefs store.PreferenceRepository) *Platform {
	p := &Platform{
		token:      token,
		chatID:     chatID,
		prefs:      prefs,
		dial:       dialBot,
		permission: notify.PermissionDefault,
		tags:       make(map[string]int),
	}
	if token == "" {
		p.permission = notify.PermissionUnsupported
	}
	return p
}

// NewWithSender creates an already-granted platform around s.
func NewWithSender(s Sender, chatID int64) *Platform {
	return &Platform{
		chatID:     chatID,
		sender:     s,
		permission: notify.PermissionGranted,
		tags:       make(map[string]int),
	}
}

func dialBot(token string) (Sender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return bot, nil
}

// Name returns the preference-store name of the configured chat.
func (p *Platform) Name() string {
	return fmt.Sprintf("telegram-%d", p.chatID)
}

// Permission is default until a chat is configured and a grant for it is
// recorded.
func (p *Platform) Permission() notify.Permission {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.permission != notify.PermissionDefault || p.chatID == 0 || p.prefs == nil {
		return p.permission
	}
	stored, err := p.prefs.NotificationPermission(context.Background(), p.Name())
	if err != nil {
		return notify.PermissionDefault
	}
	if notify.ParsePermission(stored) == notify.PermissionGranted {
		p.permission = notify.PermissionGranted
	}
	return p.permission
}

// RequestPermission verifies the bot token against the Telegram API and
// records the grant. A missing chat leaves the permission at default.
func (p *Platform) RequestPermission(ctx context.Context) (notify.Permission, error) {
	if p.chatID == 0 {
		return notify.PermissionDefault, ErrNoChat
	}

	sender, err := p.dial(p.token)
	if err != nil {
		p.mu.Lock()
		p.permission = notify.PermissionDenied
		p.mu.Unlock()
		return notify.PermissionDenied, err
	}

	p.mu.Lock()
	p.sender = sender
	p.permission = notify.PermissionGranted
	p.mu.Unlock()

	if p.prefs != nil {
		if err := p.prefs.SetNotificationPermission(ctx, p.Name(), string(notify.PermissionGranted)); err != nil {
			return notify.PermissionGranted, fmt.Errorf("saving permission: %w", err)
		}
	}
	return notify.PermissionGranted, nil
}

func (p *Platform) Show(_ context.Context, n notify.Notification) (notify.Handle, error) {
	if p.Permission() != notify.PermissionGranted {
		return nil, notify.ErrNotPermitted
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// A grant read from the store has no bot yet.
	if p.sender == nil {
		sender, err := p.dial(p.token)
		if err != nil {
			return nil, err
		}
		p.sender = sender
	}

	if prev, ok := p.tags[n.Tag]; ok && n.Tag != "" {
		_, _ = p.sender.Request(tgbotapi.NewDeleteMessage(p.chatID, prev))
		delete(p.tags, n.Tag)
	}

	text := fmt.Sprintf("*%s*\n%s", escapeMarkdown(n.Title), escapeMarkdown(n.Body))
	msg := tgbotapi.NewMessage(p.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	sent, err := p.sender.Send(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	if n.Tag != "" {
		p.tags[n.Tag] = sent.MessageID
	}

	return &handle{platform: p, messageID: sent.MessageID, tag: n.Tag}, nil
}

// handle deletes its message on Close.
type handle struct {
	platform  *Platform
	messageID int
	tag       string

	once sync.Once
	err  error
}

func (h *handle) Close() error {
	h.once.Do(func() {
		p := h.platform
		p.mu.Lock()
		defer p.mu.Unlock()

		if cur, ok := p.tags[h.tag]; ok && cur == h.messageID {
			delete(p.tags, h.tag)
		}
		if _, err := p.sender.Request(tgbotapi.NewDeleteMessage(p.chatID, h.messageID)); err != nil {
			h.err = fmt.Errorf("failed to delete message: %w", err)
		}
	})
	return h.err
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(text)
}
