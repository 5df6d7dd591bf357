package notifier

import (
	"context"
	"strings"

	"guildwatch/internal/events"
	"guildwatch/internal/storage"
)

// Notification categories with configurable user-facing messages.
const (
	CategoryJoins  = "joins"
	CategoryLeaves = "leaves"
	CategoryBans   = "bans"
	CategoryUnbans = "unbans"
)

// defaultTemplates is used when a subscription exists but carries no
// custom message.
var defaultTemplates = map[string]string{
	CategoryJoins:  "Welcome {member}!",
	CategoryLeaves: "Bye {member}!",
	CategoryBans:   "`{member}` got **bent**",
	CategoryUnbans: "`{member}` got **unbent**",
}

var lifecycleCategories = map[events.Kind]string{
	events.KindMemberAdd:    CategoryJoins,
	events.KindMemberRemove: CategoryLeaves,
	events.KindBanAdd:       CategoryBans,
	events.KindBanRemove:    CategoryUnbans,
}

// CategoryForKind reports the notification category for kind, if any.
func CategoryForKind(k events.Kind) (string, bool) {
	c, ok := lifecycleCategories[k]
	return c, ok
}

// DefaultTemplate returns the built-in message for category ("" if the
// category is unknown).
func DefaultTemplate(category string) string {
	return defaultTemplates[category]
}

// TemplateStore is the slice of the storage API the resolver needs.
type TemplateStore interface {
	ReadTemplate(ctx context.Context, guildID, category string) (storage.TemplateSetting, bool, error)
}

// Subscription is a resolved notification target.
type Subscription struct {
	ChannelID string
	Template  string
}

// Resolver looks up notification subscriptions. A nil store resolves
// nothing, which keeps the event pipeline usable without persistence.
type Resolver struct {
	store TemplateStore
}

func NewResolver(store TemplateStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the subscription for (guildID, category). ok=false
// with a nil error means no notification fires; it is not a failure.
func (r *Resolver) Resolve(ctx context.Context, guildID, category string) (Subscription, bool, error) {
	if r == nil || r.store == nil || guildID == "" {
		return Subscription{}, false, nil
	}
	t, ok, err := r.store.ReadTemplate(ctx, guildID, category)
	if err != nil {
		return Subscription{}, false, err
	}
	if !ok || !t.Enabled || t.ChannelID == "" {
		return Subscription{}, false, nil
	}
	tmpl := t.Message
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultTemplate(category)
	}
	return Subscription{ChannelID: t.ChannelID, Template: tmpl}, true, nil
}
