// Package notifier posts stage alerts and the daily digest to the configured channels.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mint-bot/internal/localization"
	"mint-bot/internal/storage"
)

type Store interface {
	DueStages(ctx context.Context, now time.Time) ([]storage.DueStage, error)
	MarkNotified(ctx context.Context, stageID int64) error
	EventsStartingOn(ctx context.Context, day time.Time) ([]storage.Event, error)
}

// Sender delivers plain text to one chat.
type Sender interface {
	SendText(chatID int64, text string) error
}

type Config struct {
	Destinations   []int64
	Operators      []int64
	AlertLanguages []string
	// OperatorLanguage is used for delivery failure reports.
	OperatorLanguage string
	ReportFailures   bool
	Location         *time.Location
}

type Notifier struct {
	store     Store
	sender    Sender
	localizer *localization.Localizer
	cfg       Config
}

func New(store Store, sender Sender, localizer *localization.Localizer, cfg Config) *Notifier {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Notifier{store: store, sender: sender, localizer: localizer, cfg: cfg}
}

// CheckStages alerts every due stage once and returns how many were alerted.
// A stage is flagged as notified after its broadcast even if some destinations failed.
func (n *Notifier) CheckStages(ctx context.Context, now time.Time) (int, error) {
	due, err := n.store.DueStages(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to load due stages: %w", err)
	}

	alerted := 0
	for _, d := range due {
		if err := ctx.Err(); err != nil {
			return alerted, err
		}
		if err := n.Broadcast(n.stageAlert(d)); err != nil {
			log.Printf("Alert for stage %d of %q was not delivered everywhere: %v", d.Stage.Number, d.Event.Name, err)
		}
		if err := n.store.MarkNotified(ctx, d.Stage.ID); err != nil {
			// The stage stays unflagged and may alert again on the next tick.
			log.Printf("CRITICAL: Failed to mark stage %d as notified: %v", d.Stage.ID, err)
			continue
		}
		alerted++
	}
	return alerted, nil
}

func (n *Notifier) stageAlert(d storage.DueStage) string {
	lead := int(storage.AlertLead / time.Minute)

	var builder strings.Builder
	for _, lang := range n.cfg.AlertLanguages {
		ordinal := n.localizer.Ordinal(lang, d.Stage.Number)
		builder.WriteString(n.localizer.Format(lang, "alert_stage_starts", ordinal, lead))
		builder.WriteString("\n")
	}
	builder.WriteString("\n")
	builder.WriteString(n.localizer.Format(n.primaryLanguage(), "alert_details", d.Event.Name, d.Event.Link, d.Stage.Price))
	return builder.String()
}

func (n *Notifier) primaryLanguage() string {
	if n.cfg.OperatorLanguage != "" {
		return n.cfg.OperatorLanguage
	}
	if len(n.cfg.AlertLanguages) > 0 {
		return n.cfg.AlertLanguages[0]
	}
	return "en"
}

// Broadcast sends text to every destination. One failed destination never stops
// the others; the joined failures are returned.
func (n *Notifier) Broadcast(text string) error {
	var errs []error
	for _, chatID := range n.cfg.Destinations {
		if err := n.sender.SendText(chatID, text); err != nil {
			log.Printf("Failed to send message to chat %d: %v", chatID, err)
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			n.reportFailure(chatID, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) reportFailure(chatID int64, cause error) {
	if !n.cfg.ReportFailures {
		return
	}
	text := n.localizer.Format(n.primaryLanguage(), "delivery_failed", chatID, cause)
	for _, operator := range n.cfg.Operators {
		if err := n.sender.SendText(operator, text); err != nil {
			log.Printf("Failed to report delivery failure to operator %d: %v", operator, err)
		}
	}
}
