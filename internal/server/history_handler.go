// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/docxmark/internal/database"
	"github.com/docxmark/internal/logger"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
	exportSheet         = "Conversions"
)

var exportHeader = []interface{}{
	"ID", "Created", "Source", "Chat", "File", "Status", "Paragraphs", "Runs", "Output bytes", "Error",
}

// HandleConversions handles GET /api/v1/conversions
func HandleConversions(w http.ResponseWriter, r *http.Request, history HistoryReader) {
	items, ok := loadHistory(w, r, history)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversions": items,
		"count":       len(items),
	})
}

// HandleConversionsExport handles GET /api/v1/conversions/export and
// returns the history as an XLSX workbook
func HandleConversionsExport(w http.ResponseWriter, r *http.Request, history HistoryReader) {
	items, ok := loadHistory(w, r, history)
	if !ok {
		return
	}

	f, err := buildWorkbook(items)
	if err != nil {
		logger.Errorf("HandleConversionsExport: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to build export")
		return
	}
	defer f.Close()

	name := fmt.Sprintf("conversions-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := f.Write(w); err != nil {
		logger.Errorf("HandleConversionsExport: failed to write workbook: %v", err)
	}
}

func loadHistory(w http.ResponseWriter, r *http.Request, history HistoryReader) ([]database.Conversion, bool) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}
	if history == nil {
		writeError(w, http.StatusServiceUnavailable, "history not configured")
		return nil, false
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return nil, false
		}
		limit = min(n, maxHistoryLimit)
	}

	items, err := history.Recent(r.Context(), limit, r.URL.Query().Get("source"))
	if err != nil {
		logger.Errorf("loadHistory: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return nil, false
	}
	if items == nil {
		items = []database.Conversion{}
	}
	return items, true
}

func buildWorkbook(items []database.Conversion) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		f.Close()
		return nil, err
	}

	for i, c := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := []interface{}{
			c.ID,
			c.CreatedAt.UTC().Format(time.RFC3339),
			c.Source,
			c.ChatID,
			c.FileName,
			c.Status,
			c.Paragraphs,
			c.Runs,
			c.OutputBytes,
			c.Error,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
