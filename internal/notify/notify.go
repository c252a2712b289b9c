// Package notify carries user-facing notices out of the pipeline. Every
// failure the pipeline handles is converted into one notice here; nothing
// propagates as an unhandled fault.
package notify

import (
	"log/slog"
	"sync"
)

// Notifier receives a titled user notice.
type Notifier interface {
	Notify(title, body string)
}

// Func adapts a function to the Notifier interface.
type Func func(title, body string)

func (f Func) Notify(title, body string) {
	f(title, body)
}

// LogNotifier surfaces notices through slog, for the server process where no
// interactive alert surface exists.
type LogNotifier struct{}

func (LogNotifier) Notify(title, body string) {
	slog.Warn("user notice", "title", title, "body", body)
}

// Recorder captures notices for inspection in tests. Safe for use from the
// persistence workflow goroutines.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

type Notice struct {
	Title string
	Body  string
}

func (r *Recorder) Notify(title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Title: title, Body: body})
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}
