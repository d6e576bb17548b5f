// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/docxmark/internal/convert"
	"github.com/docxmark/internal/database"
	"github.com/docxmark/internal/logger"
	"github.com/docxmark/internal/parser"
	"github.com/docxmark/internal/queue"
)

const JobTypeConvertDocument = "convert_document"

// Replies sent back to the requester
const (
	ResultFileName     = "formatted.txt"
	MsgResultCaption   = "Here is your Markdown text"
	MsgInvalidDocument = "Could not read this file, please send a valid .docx document."
	MsgTooLarge        = "This file is too large to process."
	MsgDownloadFailed  = "Could not download the file, please try again."
)

// ConvertPayload represents the payload for a document conversion job.
type ConvertPayload struct {
	ChatID      int64     `json:"chatId"`
	MessageID   int       `json:"messageId"`
	FileID      string    `json:"fileId"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Fetcher downloads the raw bytes of an uploaded file.
type Fetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

// Replier sends results back to the chat a document came from.
type Replier interface {
	ReplyText(ctx context.Context, chatID int64, replyTo int, text string) error
	ReplyDocument(ctx context.Context, chatID int64, replyTo int, fileName string, data []byte, caption string) error
}

// NewConvertJob creates a new job for converting a document.
func NewConvertJob(payload ConvertPayload) (queue.Job, error) {
	if payload.RequestedAt.IsZero() {
		payload.RequestedAt = time.Now()
	}
	job, err := queue.NewJob(JobTypeConvertDocument, payload)
	if err != nil {
		return queue.Job{}, fmt.Errorf("failed to marshal convert payload: %w", err)
	}
	return job, nil
}

// EnqueueConvert enqueues a document conversion job.
func EnqueueConvert(ctx context.Context, q queue.Queue, payload ConvertPayload) error {
	job, err := NewConvertJob(payload)
	if err != nil {
		return err
	}

	if err := q.Enqueue(ctx, job); err != nil {
		logger.Errorf("EnqueueConvert: failed to enqueue job: %v", err)
		return err
	}

	logger.Printf("EnqueueConvert: id=%s chatId=%d file=%s size=%d", job.ID, payload.ChatID, payload.FileName, payload.FileSize)
	return nil
}

// ConvertHandler downloads, converts and answers conversion jobs.
type ConvertHandler struct {
	service *convert.Service
	fetcher Fetcher
	replier Replier
}

// NewConvertHandler creates a handler for JobTypeConvertDocument jobs.
func NewConvertHandler(service *convert.Service, fetcher Fetcher, replier Replier) *ConvertHandler {
	return &ConvertHandler{service: service, fetcher: fetcher, replier: replier}
}

// Handle processes a conversion job.
func (h *ConvertHandler) Handle(ctx context.Context, job queue.Job) error {
	if job.Type != JobTypeConvertDocument {
		return fmt.Errorf("unexpected job type %s, expected %s", job.Type, JobTypeConvertDocument)
	}

	var payload ConvertPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal convert payload: %w", err)
	}

	req := convert.Request{
		Source:   database.SourceTelegram,
		ChatID:   payload.ChatID,
		FileName: payload.FileName,
	}

	data, err := h.fetcher.Fetch(ctx, payload.FileID)
	if err != nil {
		h.service.RecordFailure(ctx, req, err)
		h.reply(ctx, payload, MsgDownloadFailed)
		return fmt.Errorf("failed to download %s: %w", payload.FileName, err)
	}
	req.Data = data

	result, err := h.service.Convert(ctx, req)
	switch {
	case errors.Is(err, parser.ErrInvalidDocument):
		h.reply(ctx, payload, MsgInvalidDocument)
		return nil
	case errors.Is(err, convert.ErrTooLarge):
		h.reply(ctx, payload, MsgTooLarge)
		return nil
	case err != nil:
		return err
	}

	if err := h.replier.ReplyDocument(ctx, payload.ChatID, payload.MessageID, ResultFileName, result.Bytes(), MsgResultCaption); err != nil {
		return fmt.Errorf("failed to send result for %s: %w", payload.FileName, err)
	}

	logger.Printf("HandleConvert: id=%s chatId=%d file=%s delivered in %s", job.ID, payload.ChatID, payload.FileName, time.Since(payload.RequestedAt).Round(time.Millisecond))
	return nil
}

func (h *ConvertHandler) reply(ctx context.Context, payload ConvertPayload, text string) {
	if err := h.replier.ReplyText(ctx, payload.ChatID, payload.MessageID, text); err != nil {
		logger.Errorf("HandleConvert: failed to reply to chat %d: %v", payload.ChatID, err)
	}
}
