package notifier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"guildwatch/internal/events"
)

// ErrMissingField marks a template referencing a field absent from the
// event. The dispatch it aborts emits nothing; a blank is never
// rendered silently.
var ErrMissingField = errors.New("missing template field")

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Render substitutes {name} placeholders in tmpl from fields. Any
// unresolved placeholder fails the whole render.
func Render(tmpl string, fields map[string]string) (string, error) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := fields[name]
		if !ok || v == "" {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return out, nil
}

// LifecycleFields builds the substitution map for a lifecycle record.
// Only populated fields get keys, so a template referencing an absent
// field fails the render instead of printing a blank. channelID is the
// resolved target channel.
func LifecycleFields(rec events.Record, channelID string) map[string]string {
	f := map[string]string{}
	if rec.MemberName != "" {
		f["member"] = rec.MemberName
	}
	if rec.MemberID != "" {
		f["member_id"] = rec.MemberID
	}
	if rec.GuildID != "" {
		f["server"] = rec.GuildID
	}
	if channelID != "" {
		f["channel"] = channelID
	}
	return f
}
