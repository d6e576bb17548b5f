// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/docxmark/internal/convert"
	"github.com/docxmark/internal/database"
	"github.com/docxmark/internal/logger"
	"github.com/docxmark/internal/parser"
)

// multipart bookkeeping on top of the document itself
const formOverhead = 1 << 20

// HandleConvert handles POST /api/v1/convert. The document is either the
// multipart field "file" or the raw request body, named by ?filename=.
func HandleConvert(w http.ResponseWriter, r *http.Request, svc *convert.Service) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if svc == nil {
		writeError(w, http.StatusServiceUnavailable, "converter not configured")
		return
	}

	if limit := svc.MaxSize(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	}

	name, data, err := readUpload(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, convert.ErrTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !parser.IsSupportedFile(name) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %q", parser.ErrUnsupportedFile, name))
		return
	}

	result, err := svc.Convert(r.Context(), convert.Request{
		Source:   database.SourceHTTP,
		FileName: name,
		Data:     data,
	})
	switch {
	case errors.Is(err, convert.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, parser.ErrInvalidDocument):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logger.Errorf("HandleConvert: file=%s: %v", name, err)
		writeError(w, http.StatusInternalServerError, "conversion failed")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", convert.OutputName(name)))
	w.Header().Set("X-Conversion-Id", result.ID)
	w.WriteHeader(http.StatusOK)
	w.Write(result.Bytes())
}

func readUpload(r *http.Request) (string, []byte, error) {
	if name := r.URL.Query().Get("filename"); name != "" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", nil, err
		}
		return name, data, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", nil, err
		}
		return "", nil, errors.New("expected a multipart \"file\" field or a ?filename= query parameter")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}
