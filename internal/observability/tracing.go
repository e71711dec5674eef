package observability

import (
	"context"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "OK"
	SpanStatusError SpanStatus = "ERROR"
)

// Span times one operation. Spans nest through the context and are reported
// by logging them; there is no exporter.
type Span struct {
	TraceID   string
	SpanID    string
	ParentID  string
	Operation string
	StartTime time.Time

	mu       sync.Mutex
	duration time.Duration
	tags     map[string]string
	status   SpanStatus
	err      string
}

type spanContextKey struct{}

func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		SpanID:    newSpanID(),
		Operation: operation,
		StartTime: time.Now(),
		tags:      make(map[string]string),
		status:    SpanStatusOK,
	}

	if parent := GetSpan(ctx); parent != nil {
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
	} else {
		span.TraceID = uuid.NewString()
	}

	return context.WithValue(ctx, spanContextKey{}, span), span
}

// Finish records the span duration. Calls after the first are no-ops.
func (s *Span) Finish() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.duration == 0 {
		s.duration = max(time.Since(s.StartTime), time.Nanosecond)
	}
	return s.duration
}

func (s *Span) SetTag(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[key] = value
}

func (s *Span) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = SpanStatusError
	if err != nil {
		s.err = err.Error()
	}
}

func (s *Span) Status() SpanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Span) Tags() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.tags)
}

func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// LogValue lets a span be passed directly as a slog attribute.
func (s *Span) LogValue() slog.Value {
	s.mu.Lock()
	defer s.mu.Unlock()

	attrs := []slog.Attr{
		slog.String("trace_id", s.TraceID),
		slog.String("span_id", s.SpanID),
		slog.String("operation", s.Operation),
		slog.String("status", string(s.status)),
		slog.Duration("duration", s.duration),
	}
	if s.ParentID != "" {
		attrs = append(attrs, slog.String("parent_id", s.ParentID))
	}
	if s.err != "" {
		attrs = append(attrs, slog.String("error", s.err))
	}
	for k, v := range s.tags {
		attrs = append(attrs, slog.String("tag."+k, v))
	}
	return slog.GroupValue(attrs...)
}

func GetSpan(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanContextKey{}).(*Span); ok {
		return span
	}
	return nil
}

func newSpanID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:16]
}
