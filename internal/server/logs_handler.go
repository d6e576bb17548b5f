// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/docxmark/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleLogStream upgrades to a WebSocket and streams log lines as text
// messages until the client goes away or the logger is closed
func HandleLogStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	l := logger.GetDefault()
	lines := l.Subscribe()
	if lines == nil {
		http.Error(w, "Log stream unavailable - logger may be closed", http.StatusServiceUnavailable)
		return
	}
	defer l.Unsubscribe(lines)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("HandleLogStream: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// reader loop only services control frames and notices disconnects
	gone := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	send := func(messageType int, data []byte) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(messageType, data) == nil
	}

	if !send(websocket.TextMessage, []byte("Connected to log stream")) {
		return
	}

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				send(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "log stream closed"))
				return
			}
			if !send(websocket.TextMessage, []byte(line)) {
				return
			}
		case <-ping.C:
			if !send(websocket.PingMessage, nil) {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
