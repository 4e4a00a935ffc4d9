package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PostDailyDigest posts one message listing every event with a stage on now's
// calendar day. Nothing is sent when no event qualifies.
func (n *Notifier) PostDailyDigest(ctx context.Context, now time.Time) (bool, error) {
	events, err := n.store.EventsStartingOn(ctx, now.In(n.cfg.Location))
	if err != nil {
		return false, fmt.Errorf("failed to load today's events: %w", err)
	}
	if len(events) == 0 {
		return false, nil
	}

	titles := make([]string, 0, len(n.cfg.AlertLanguages))
	seen := make(map[string]bool)
	for _, lang := range n.digestLanguages() {
		title := n.localizer.GetMessage(lang, "digest_title")
		if !seen[title] {
			seen[title] = true
			titles = append(titles, title)
		}
	}

	var builder strings.Builder
	builder.WriteString(strings.Join(titles, " / "))
	builder.WriteString("\n\n")
	for _, event := range events {
		builder.WriteString(n.localizer.Format(n.primaryLanguage(), "digest_item", event.Name, event.Link))
	}

	if err := n.Broadcast(builder.String()); err != nil {
		return true, fmt.Errorf("digest was not delivered everywhere: %w", err)
	}
	return true, nil
}

// digestLanguages puts English first, matching the channel's established header.
func (n *Notifier) digestLanguages() []string {
	langs := []string{"en"}
	for _, lang := range n.cfg.AlertLanguages {
		if lang != "en" {
			langs = append(langs, lang)
		}
	}
	return langs
}
