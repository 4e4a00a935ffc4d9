package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"mint-bot/config"
	"mint-bot/internal/conversation"
	"mint-bot/internal/localization"
	"mint-bot/internal/notifier"
	"mint-bot/internal/scheduler"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI is the part of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type TelegramBot struct {
	api       botAPI
	cfg       *config.Config
	localizer *localization.Localizer
	engine    *conversation.Engine
	notifier  *notifier.Notifier
	scheduler *scheduler.Scheduler
}

func NewBot(
	api botAPI,
	cfg *config.Config,
	localizer *localization.Localizer,
	engine *conversation.Engine,
	notifier *notifier.Notifier,
	scheduler *scheduler.Scheduler,
) *TelegramBot {
	return &TelegramBot{
		api:       api,
		cfg:       cfg,
		localizer: localizer,
		engine:    engine,
		notifier:  notifier,
		scheduler: scheduler,
	}
}

// Start schedules the alert and digest jobs and serves updates until ctx is done.
func (b *TelegramBot) Start(ctx context.Context) error {
	if err := b.scheduleJobs(ctx); err != nil {
		return err
	}
	b.scheduler.Start()
	b.listenForUpdates(ctx)
	return nil
}

func (b *TelegramBot) scheduleJobs(ctx context.Context) error {
	log.Printf("Scheduling stage checks. Interval: %s, first run after: %s", b.cfg.CheckInterval, b.cfg.FirstCheckDelay)
	err := b.scheduler.AddJob(stageCheckJobTag, b.cfg.CheckInterval, b.cfg.FirstCheckDelay, func() {
		b.stageCheckJob(ctx)
	})
	if err != nil {
		return err
	}

	hour, minute, err := b.cfg.DigestClock()
	if err != nil {
		return err
	}
	return b.scheduler.AddDailyJob(dailyDigestJobTag, hour, minute, func() {
		b.dailyDigestJob(ctx)
	})
}

func (b *TelegramBot) stageCheckJob(ctx context.Context) {
	count, err := b.notifier.CheckStages(ctx, time.Now())
	if err != nil {
		log.Printf("Stage check failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("Sent %d stage alert(s)", count)
	}
}

func (b *TelegramBot) dailyDigestJob(ctx context.Context) {
	log.Println("Scheduler fired: posting daily digest...")
	posted, err := b.notifier.PostDailyDigest(ctx, time.Now())
	if err != nil {
		log.Printf("Daily digest failed: %v", err)
		return
	}
	if !posted {
		log.Println("No mints today, digest skipped.")
	}
}

func (b *TelegramBot) listenForUpdates(ctx context.Context) {
	lanes := newLanes(ctx, b.cfg.MaxConcurrentUpdates)
	defer lanes.Stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			userID, ok := b.authorizedSender(update)
			if !ok {
				continue
			}
			if err := lanes.Enqueue(userID, func(ctx context.Context) { b.handleUpdate(ctx, update) }); err != nil {
				log.Printf("Dropped update %d: %v", update.UpdateID, err)
			}
		}
	}
}

// authorizedSender returns the sending user when they are an owner. Everyone
// else is ignored without a reply.
func (b *TelegramBot) authorizedSender(update tgbotapi.Update) (int64, bool) {
	var from *tgbotapi.User
	switch {
	case update.CallbackQuery != nil:
		from = update.CallbackQuery.From
	case update.Message != nil:
		from = update.Message.From
	}
	if from == nil || !b.cfg.IsOwner(from.ID) {
		return 0, false
	}
	return from.ID, true
}

func (b *TelegramBot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// Sender delivers notifier output through the Bot API.
type Sender struct {
	api botAPI
}

func NewSender(api botAPI) *Sender {
	return &Sender{api: api}
}

func (s *Sender) SendText(chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		if _, err := s.api.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			return fmt.Errorf("send to %d: %w", chatID, err)
		}
	}
	return nil
}
