// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/docxmark/internal/convert"
	"github.com/docxmark/internal/database"
	"github.com/docxmark/internal/server/middleware"
)

// Version is reported by the health endpoint
var Version = "dev"

// HistoryReader lists recorded conversions, newest first.
// *database.HistoryStore implements it.
type HistoryReader interface {
	Recent(ctx context.Context, limit int, source string) ([]database.Conversion, error)
}

// Options wires the server to the rest of the service
type Options struct {
	Converter   *convert.Service
	History     HistoryReader
	Webhook     http.Handler // nil when the bot uses long polling
	WebhookPath string
}

// Routes builds the HTTP handler
func Routes(opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", HandleHealth)
	mux.HandleFunc("/api/v1/convert", func(w http.ResponseWriter, r *http.Request) {
		HandleConvert(w, r, opts.Converter)
	})
	mux.HandleFunc("/api/v1/conversions", func(w http.ResponseWriter, r *http.Request) {
		HandleConversions(w, r, opts.History)
	})
	mux.HandleFunc("/api/v1/conversions/export", func(w http.ResponseWriter, r *http.Request) {
		HandleConversionsExport(w, r, opts.History)
	})
	mux.HandleFunc("/api/v1/logs/ws", HandleLogStream)

	if opts.Webhook != nil && opts.WebhookPath != "" {
		mux.Handle(opts.WebhookPath, opts.Webhook)
	}

	return middleware.TrafficLogger(mux)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
