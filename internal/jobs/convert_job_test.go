package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/docxmark/internal/convert"
	"github.com/docxmark/internal/docxtest"
	"github.com/docxmark/internal/parser"
	"github.com/docxmark/internal/queue"
)

type fakeFetcher struct {
	files map[string][]byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	data, ok := f.files[fileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

type sentDocument struct {
	chatID   int64
	replyTo  int
	fileName string
	data     string
	caption  string
}

type fakeReplier struct {
	mu    sync.Mutex
	texts []string
	docs  []sentDocument
}

func (r *fakeReplier) ReplyText(ctx context.Context, chatID int64, replyTo int, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *fakeReplier) ReplyDocument(ctx context.Context, chatID int64, replyTo int, fileName string, data []byte, caption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, sentDocument{chatID, replyTo, fileName, string(data), caption})
	return nil
}

func newTestHandler(maxSize int64) (*ConvertHandler, *fakeFetcher, *fakeReplier) {
	fetcher := &fakeFetcher{files: map[string][]byte{
		"good": docxtest.Build(docxtest.Paragraph(docxtest.Run{Text: "Test", Italic: true})),
		"bad":  []byte("not a docx"),
	}}
	replier := &fakeReplier{}
	svc := convert.NewService(parser.DOCX{}, nil, maxSize)
	return NewConvertHandler(svc, fetcher, replier), fetcher, replier
}

func TestNewConvertJob(t *testing.T) {
	job, err := NewConvertJob(ConvertPayload{ChatID: 1, FileID: "f", FileName: "a.docx"})
	if err != nil {
		t.Fatalf("NewConvertJob failed: %v", err)
	}
	if job.Type != JobTypeConvertDocument || job.ID == "" {
		t.Errorf("Unexpected job: %+v", job)
	}

	var payload ConvertPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}
	if payload.FileID != "f" || payload.RequestedAt.IsZero() {
		t.Errorf("Unexpected payload: %+v", payload)
	}
}

func TestConvertHandler_Success(t *testing.T) {
	h, _, replier := newTestHandler(0)

	job, _ := NewConvertJob(ConvertPayload{ChatID: 10, MessageID: 5, FileID: "good", FileName: "a.docx"})
	if err := h.Handle(context.Background(), job); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if len(replier.docs) != 1 {
		t.Fatalf("Expected 1 document reply, got %d", len(replier.docs))
	}
	got := replier.docs[0]
	want := sentDocument{chatID: 10, replyTo: 5, fileName: "formatted.txt", data: "_Test_", caption: MsgResultCaption}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestConvertHandler_InvalidDocument(t *testing.T) {
	h, _, replier := newTestHandler(0)

	job, _ := NewConvertJob(ConvertPayload{ChatID: 10, FileID: "bad", FileName: "bad.docx"})
	if err := h.Handle(context.Background(), job); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(replier.docs) != 0 {
		t.Errorf("Expected no document reply, got %d", len(replier.docs))
	}
	if len(replier.texts) != 1 || replier.texts[0] != MsgInvalidDocument {
		t.Errorf("Expected invalid document message, got %v", replier.texts)
	}
}

func TestConvertHandler_TooLarge(t *testing.T) {
	h, _, replier := newTestHandler(8)

	job, _ := NewConvertJob(ConvertPayload{ChatID: 10, FileID: "good", FileName: "a.docx"})
	if err := h.Handle(context.Background(), job); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(replier.texts) != 1 || replier.texts[0] != MsgTooLarge {
		t.Errorf("Expected too large message, got %v", replier.texts)
	}
}

func TestConvertHandler_DownloadFailure(t *testing.T) {
	h, _, replier := newTestHandler(0)

	job, _ := NewConvertJob(ConvertPayload{ChatID: 10, FileID: "missing", FileName: "a.docx"})
	if err := h.Handle(context.Background(), job); err == nil {
		t.Fatal("Expected error for failed download")
	}
	if len(replier.texts) != 1 || replier.texts[0] != MsgDownloadFailed {
		t.Errorf("Expected download failure message, got %v", replier.texts)
	}
}

func TestConvertHandler_WrongType(t *testing.T) {
	h, _, _ := newTestHandler(0)
	if err := h.Handle(context.Background(), queue.Job{Type: "other"}); err == nil {
		t.Error("Expected error for wrong job type")
	}
}

func TestEnqueueConvert(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	defer q.Close()

	if err := EnqueueConvert(context.Background(), q, ConvertPayload{FileID: "x", FileName: "x.docx"}); err != nil {
		t.Fatalf("EnqueueConvert failed: %v", err)
	}
	job, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if job.Type != JobTypeConvertDocument {
		t.Errorf("Expected %s, got %s", JobTypeConvertDocument, job.Type)
	}
}
