// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package telegram

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/docxmark/internal/config"
	"github.com/docxmark/internal/logger"
	"github.com/docxmark/internal/queue"
)

// Bot runs the Telegram side of docxmark.
type Bot struct {
	cfg      config.BotConfig
	bot      *bot.Bot
	client   *Client
	handlers *Handlers
}

// New creates the bot, registers its handlers, and checks the token with getMe.
func New(cfg config.BotConfig, q queue.Queue, opts ...bot.Option) (*Bot, error) {
	b := &Bot{cfg: cfg}

	options := []bot.Option{
		bot.WithDefaultHandler(func(ctx context.Context, tb *bot.Bot, update *models.Update) {
			b.handlers.Default(ctx, tb, update)
		}),
		bot.WithErrorsHandler(func(err error) {
			logger.Errorf("telegram: %v", err)
		}),
	}
	if cfg.SecretToken != "" {
		options = append(options, bot.WithWebhookSecretToken(cfg.SecretToken))
	}
	options = append(options, opts...)

	tb, err := bot.New(cfg.Token, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	b.bot = tb
	b.client = NewClient(tb, nil, cfg.MaxFileSize)
	b.handlers = NewHandlers(b.client, q, cfg.MaxFileSize)

	tb.RegisterHandlerMatchFunc(matchStart, b.handlers.Start)
	tb.RegisterHandlerMatchFunc(matchDocument, b.handlers.Document)

	return b, nil
}

// Client returns the fetcher/replier used by conversion jobs.
func (b *Bot) Client() *Client {
	return b.client
}

// WebhookHandler returns the HTTP handler Telegram posts updates to.
func (b *Bot) WebhookHandler() http.Handler {
	return b.bot.WebhookHandler()
}

// Run processes updates until ctx is cancelled, using a webhook or long
// polling depending on the configured mode.
func (b *Bot) Run(ctx context.Context) error {
	switch b.cfg.Mode {
	case config.ModeWebhook:
		url := b.cfg.WebhookURL()
		if _, err := b.bot.SetWebhook(ctx, &bot.SetWebhookParams{
			URL:         url,
			SecretToken: b.cfg.SecretToken,
		}); err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}
		logger.Printf("telegram: webhook registered at %s", url)
		b.bot.StartWebhook(ctx)
	case config.ModePolling:
		if _, err := b.bot.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
			logger.Warnf("telegram: failed to delete webhook before polling: %v", err)
		}
		logger.Printf("telegram: long polling started")
		b.bot.Start(ctx)
	default:
		return fmt.Errorf("unknown bot mode %q", b.cfg.Mode)
	}
	return nil
}
