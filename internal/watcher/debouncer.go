// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package watcher

import (
	"sync"
	"time"
)

// Debouncer collapses bursts of events for the same path into one call.
// Editors usually save a .docx as several writes and renames.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]*time.Timer
	fire     func(string)
	delay    time.Duration
	stopped  bool
	inflight sync.WaitGroup
}

// NewDebouncer calls fire once per path after delay has passed without a
// new Trigger for that path.
func NewDebouncer(delay time.Duration, fire func(string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]*time.Timer),
		fire:    fire,
		delay:   delay,
	}
}

// Trigger schedules path, restarting its timer if one is pending.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if t, ok := d.pending[path]; ok {
		t.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// a newer Trigger replaced this timer
		if d.pending[path] != t || d.stopped {
			d.mu.Unlock()
			return
		}
		delete(d.pending, path)
		// counted under d.mu so Wait after Stop sees every call
		d.inflight.Add(1)
		d.mu.Unlock()

		defer d.inflight.Done()
		d.fire(path)
	})
	d.pending[path] = t
}

// Pending returns the number of paths waiting to fire.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop drops all pending paths. Later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for path, t := range d.pending {
		t.Stop()
		delete(d.pending, path)
	}
	d.stopped = true
}

// Wait blocks until every fire call that already started has returned.
// Call it after Stop.
func (d *Debouncer) Wait() {
	d.inflight.Wait()
}
