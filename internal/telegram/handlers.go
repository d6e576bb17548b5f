// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package telegram

import (
	"context"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/docxmark/internal/jobs"
	"github.com/docxmark/internal/logger"
	"github.com/docxmark/internal/parser"
	"github.com/docxmark/internal/queue"
)

// Bot replies
const (
	MsgGreeting      = "Send me a .docx file and I will return Markdown text with its styles."
	MsgWrongFileType = "Please send a .docx file."
	MsgBusy          = "The converter is busy, please try again in a minute."
)

// Handlers holds the update handlers registered on the bot.
type Handlers struct {
	replier jobs.Replier
	queue   queue.Queue
	maxSize int64
}

// NewHandlers creates the update handlers. Accepted documents are enqueued
// as conversion jobs on q.
func NewHandlers(replier jobs.Replier, q queue.Queue, maxSize int64) *Handlers {
	return &Handlers{replier: replier, queue: q, maxSize: maxSize}
}

// isCommand reports whether the update is the given bot command, with or
// without a @botname suffix or arguments.
func isCommand(update *models.Update, name string) bool {
	if update.Message == nil {
		return false
	}
	fields := strings.Fields(update.Message.Text)
	if len(fields) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.EqualFold(cmd, "/"+name)
}

func matchStart(update *models.Update) bool {
	return isCommand(update, "start") || isCommand(update, "help")
}

func matchDocument(update *models.Update) bool {
	return update.Message != nil && update.Message.Document != nil
}

// Start answers /start and /help.
func (h *Handlers) Start(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if err := h.replier.ReplyText(ctx, msg.Chat.ID, 0, MsgGreeting); err != nil {
		logger.Errorf("telegram: failed to send greeting to chat %d: %v", msg.Chat.ID, err)
	}
}

// Document validates an uploaded file and queues it for conversion.
func (h *Handlers) Document(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	doc := msg.Document

	logger.Printf("telegram: chat=%d document=%q size=%d", msg.Chat.ID, doc.FileName, doc.FileSize)

	if !parser.IsSupportedFile(doc.FileName) {
		h.reply(ctx, msg, MsgWrongFileType)
		return
	}

	if h.maxSize > 0 && doc.FileSize > h.maxSize {
		h.reply(ctx, msg, jobs.MsgTooLarge)
		return
	}

	payload := jobs.ConvertPayload{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		FileID:      doc.FileID,
		FileName:    doc.FileName,
		FileSize:    doc.FileSize,
		RequestedAt: time.Now(),
	}
	if err := jobs.EnqueueConvert(ctx, h.queue, payload); err != nil {
		logger.Errorf("telegram: failed to enqueue %s for chat %d: %v", doc.FileName, msg.Chat.ID, err)
		h.reply(ctx, msg, MsgBusy)
	}
}

// Default ignores everything else, nudging private chats towards /start.
func (h *Handlers) Default(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.Chat.Type != models.ChatTypePrivate || msg.Text == "" {
		return
	}
	h.reply(ctx, msg, MsgGreeting)
}

func (h *Handlers) reply(ctx context.Context, msg *models.Message, text string) {
	if err := h.replier.ReplyText(ctx, msg.Chat.ID, msg.ID, text); err != nil {
		logger.Errorf("telegram: failed to reply to chat %d: %v", msg.Chat.ID, err)
	}
}
