// Package bot runs the Telegram bot that onboards users into the reward
// ledger and points them at the mini-app.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"aelon-backend/internal/features/ledger/service"
)

// Bot wraps the telebot instance with the ledger dependency.
type Bot struct {
	bot       *tele.Bot
	svc       *service.Service
	webAppURL string
}

// New creates the bot with a long poller. webAppURL is the mini-app base URL
// used for the Launch button.
func New(token, webAppURL string, svc *service.Service) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:       teleBot,
		svc:       svc,
		webAppURL: strings.TrimRight(webAppURL, "/"),
	}
	teleBot.Handle("/start", b.handleStart)
	return b, nil
}

// Start begins long polling; it blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("username", b.bot.Me.Username).Msg("Telegram bot is running")
	b.bot.Start()
}

// Stop terminates long polling.
func (b *Bot) Stop() {
	b.bot.Stop()
}

// handleStart creates the account (linking the referrer, if any) and replies
// with the mini-app launch button. "/start <referrerId>" is the deep-link form
// referral links use.
func (b *Bot) handleStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	telegramID := strconv.FormatInt(sender.ID, 10)
	referrerID := strings.TrimSpace(c.Message().Payload)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, created, err := b.svc.EnsureAccount(ctx, telegramID, sender.FirstName, sender.LastName, referrerID)
	if err != nil {
		log.Error().Err(err).Str("telegram_id", telegramID).Msg("failed to ensure account")
		return c.Send("Something went wrong, please try again later.")
	}
	if created {
		log.Info().Str("telegram_id", telegramID).Str("referred_by", user.ReferredBy).Msg("account created")
	}

	markup := &tele.ReplyMarkup{}
	launch := markup.WebApp("Launch", &tele.WebApp{
		URL: fmt.Sprintf("%s/?userId=%s", b.webAppURL, user.TelegramID),
	})
	markup.Inline(markup.Row(launch))

	welcome := fmt.Sprintf("Welcome, %s! Click the button below to check your stats.", user.FirstName)
	return c.Send(welcome, markup)
}

// NotifyReferralBonus tells a referrer about their new referral. Implements
// service.Notifier; failures are logged and swallowed.
func (b *Bot) NotifyReferralBonus(ctx context.Context, referrerID, referredName string, points int64) {
	id, err := strconv.ParseInt(referrerID, 10, 64)
	if err != nil {
		log.Warn().Str("referrer_id", referrerID).Msg("referrer id is not numeric, skipping notification")
		return
	}

	text := fmt.Sprintf("You referred %s and earned %d points!", referredName, points)
	if _, err := b.bot.Send(&tele.User{ID: id}, text); err != nil {
		log.Warn().Err(err).Str("referrer_id", referrerID).Msg("failed to notify referrer")
	}
}
