// Package hooks provides request-lifecycle hooks for mapped API clients.
//
// Hooks are mappedapi.ResponseInterceptor values: they observe every
// response, including error statuses and transport failures, and are
// installed once when the client is built.
package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/venuebook/mappedapi/pkg/mappedapi"
)

const startTimeKey = "hooks.start_time"

// CallEvent describes one completed call.
type CallEvent struct {
	Resource   string        `json:"resource"`
	Method     string        `json:"method"`
	URL        string        `json:"url"`
	StatusCode int           `json:"status_code,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns,omitempty"`
	Time       time.Time     `json:"time"`
}

// Failed reports whether the call ended in a transport error or a status >= 300.
func (e CallEvent) Failed() bool {
	return e.Error != "" || e.StatusCode >= 300
}

// StartTimer records the send time so events carry a duration. Install it
// as a request interceptor next to the hook.
func StartTimer() mappedapi.RequestInterceptor {
	return func(ctx context.Context, req *mappedapi.Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[startTimeKey] = time.Now()

		return nil
	}
}

// NewCallEvent builds the event for a request and its response.
// The query string is included; headers never are.
func NewCallEvent(req *mappedapi.Request, resp *mappedapi.Response) CallEvent {
	event := CallEvent{
		Resource: req.Resource,
		Method:   req.Method.String(),
		URL:      req.FullURL(),
		Time:     time.Now().UTC(),
	}

	if resp != nil {
		event.StatusCode = resp.StatusCode

		if resp.Error != nil {
			event.Error = resp.Error.Error()
		}
	}

	if start, ok := req.Metadata[startTimeKey].(time.Time); ok {
		event.Duration = time.Since(start)
	}

	return event
}

// Recorder is an in-memory hook that keeps every event. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []CallEvent
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Hook returns the interceptor that feeds the recorder.
func (r *Recorder) Hook() mappedapi.ResponseInterceptor {
	return func(ctx context.Context, req *mappedapi.Request, resp *mappedapi.Response) error {
		event := NewCallEvent(req, resp)

		r.mu.Lock()
		r.events = append(r.events, event)
		r.mu.Unlock()

		return nil
	}
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []CallEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]CallEvent, len(r.events))
	copy(out, r.events)

	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.events)
}

// Reset discards every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
}
