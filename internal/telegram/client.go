package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// botAPI is the part of *bot.Bot the client uses.
type botAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

// Client downloads uploaded files and sends replies through the Bot API.
// It implements jobs.Fetcher and jobs.Replier.
type Client struct {
	api     botAPI
	http    *http.Client
	maxSize int64
}

// NewClient wraps a bot. maxSize <= 0 disables the download limit.
func NewClient(api botAPI, httpClient *http.Client, maxSize int64) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{api: api, http: httpClient, maxSize: maxSize}
}

// Fetch downloads a file by its Telegram file ID.
func (c *Client) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	f, err := c.api.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("getFile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.api.FileDownloadLink(f), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: unexpected status %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if c.maxSize > 0 {
		// one extra byte lets the converter see that the limit was exceeded
		body = io.LimitReader(resp.Body, c.maxSize+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	return data, nil
}

// ReplyText sends a text message, replying to replyTo when it is set.
func (c *Client) ReplyText(ctx context.Context, chatID int64, replyTo int, text string) error {
	_, err := c.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            text,
		ReplyParameters: replyParams(replyTo),
	})
	return err
}

// ReplyDocument sends data as a file attachment.
func (c *Client) ReplyDocument(ctx context.Context, chatID int64, replyTo int, fileName string, data []byte, caption string) error {
	_, err := c.api.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: fileName,
			Data:     bytes.NewReader(data),
		},
		Caption:         caption,
		ReplyParameters: replyParams(replyTo),
	})
	return err
}

func replyParams(messageID int) *models.ReplyParameters {
	if messageID == 0 {
		return nil
	}
	return &models.ReplyParameters{
		MessageID:                messageID,
		AllowSendingWithoutReply: true,
	}
}
