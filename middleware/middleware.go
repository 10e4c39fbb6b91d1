// Package middleware validates JSON request bodies against a schema before
// they reach an http.Handler.
package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	skema "github.com/reoring/skema"
)

// DefaultMaxBytes bounds request bodies when no WithMaxBytes option is given.
const DefaultMaxBytes int64 = 1 << 20

const tracerName = "github.com/reoring/skema/middleware"

// Observer receives the outcome of every validation. *metrics.Collector
// satisfies it.
type Observer interface {
	Observe(schema string, d time.Duration, err error)
}

type config struct {
	logger   *slog.Logger
	observer Observer
	maxBytes int64
	parse    skema.ParseOpt
}

// Option configures Validate.
type Option func(*config)

// WithLogger logs rejected requests at debug level and internal failures at
// error level.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithObserver reports every validation to o.
func WithObserver(o Observer) Option { return func(c *config) { c.observer = o } }

// WithMaxBytes limits the request body size. Larger bodies get 413.
func WithMaxBytes(n int64) Option { return func(c *config) { c.maxBytes = n } }

// WithParseOpt sets the options passed to skema.Validate.
func WithParseOpt(o skema.ParseOpt) Option { return func(c *config) { c.parse = o } }

// ctxKeyRecord is the context key for the validated record.
type ctxKeyRecord struct{}

// ContextWithRecord attaches a validated record to the context.
func ContextWithRecord(ctx context.Context, r *skema.Record) context.Context {
	return context.WithValue(ctx, ctxKeyRecord{}, r)
}

// RecordFromContext retrieves the record stored by Validate.
func RecordFromContext(ctx context.Context) (*skema.Record, bool) {
	r, ok := ctx.Value(ctxKeyRecord{}).(*skema.Record)
	return r, ok && r != nil
}

// IssueBody is the wire form of one issue.
type IssueBody struct {
	Path    string         `json:"path"`
	Pointer string         `json:"pointer"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
	Rule    string         `json:"rule,omitempty"`
}

// ErrorBody is the response payload for rejected requests.
type ErrorBody struct {
	Issues []IssueBody `json:"issues"`
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(iss skema.Issues) ErrorBody {
	out := ErrorBody{Issues: make([]IssueBody, 0, len(iss))}
	for _, it := range iss {
		out.Issues = append(out.Issues, IssueBody{
			Path:    it.Path,
			Pointer: it.Pointer(),
			Code:    it.Code,
			Message: it.Message,
			Params:  it.Params,
			Rule:    it.Rule,
		})
	}
	return out
}

// StatusFor maps issues to an HTTP status: 400 for undecodable bodies, 503
// when a validator dependency is unavailable, 422 otherwise.
func StatusFor(iss skema.Issues) int {
	for _, it := range iss {
		if it.Code == skema.CodeDependencyUnavailable {
			return http.StatusServiceUnavailable
		}
	}
	for _, it := range iss {
		if it.Code == skema.CodeParseError {
			return http.StatusBadRequest
		}
	}
	return http.StatusUnprocessableEntity
}

// WriteIssues writes iss as JSON with the status given by StatusFor.
func WriteIssues(w http.ResponseWriter, iss skema.Issues) {
	WriteJSON(w, StatusFor(iss), ErrorPayload(iss))
}

// WriteJSON encodes v as the response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Validate returns middleware that decodes the JSON request body, validates
// it against s and stores the record in the request context. Rejected
// requests never reach next.
func Validate(s *skema.Schema, opts ...Option) func(http.Handler) http.Handler {
	cfg := config{maxBytes: DefaultMaxBytes}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	tracer := otel.Tracer(tracerName)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "skema.validate",
				trace.WithAttributes(attribute.String("skema.schema", s.Name())))
			defer span.End()

			start := time.Now()
			rec, err := parseBody(ctx, s, w, r, cfg)
			if cfg.observer != nil {
				cfg.observer.Observe(s.Name(), time.Since(start), err)
			}
			if err != nil {
				var tooLarge *http.MaxBytesError
				iss, isIssues := skema.AsIssues(err)
				switch {
				case errors.As(err, &tooLarge):
					span.SetStatus(codes.Error, "body too large")
					cfg.logger.DebugContext(ctx, "request body too large",
						slog.String("schema", s.Name()), slog.Int64("limit", tooLarge.Limit))
					WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorPayload(skema.Issues{{
						Code:    skema.CodeParseError,
						Message: "request body too large",
						Params:  map[string]any{"limit": tooLarge.Limit},
					}}))
				case isIssues:
					span.SetAttributes(attribute.Int("skema.issues", len(iss)))
					span.SetStatus(codes.Error, "validation failed")
					cfg.logger.DebugContext(ctx, "request rejected",
						slog.String("schema", s.Name()), slog.Int("issues", len(iss)),
						slog.String("error", iss.Error()))
					WriteIssues(w, iss)
				default:
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
					cfg.logger.ErrorContext(ctx, "reading request body",
						slog.String("schema", s.Name()), slog.Any("error", err))
					WriteJSON(w, http.StatusBadRequest, ErrorPayload(skema.Issues{{
						Code:    skema.CodeParseError,
						Message: err.Error(),
					}}))
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithRecord(ctx, rec)))
		})
	}
}

func parseBody(ctx context.Context, s *skema.Schema, w http.ResponseWriter, r *http.Request, cfg config) (*skema.Record, error) {
	if r.Body == nil {
		return skema.ParseFrom(ctx, s, skema.JSONBytes(nil), cfg.parse)
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.maxBytes))
	if err != nil {
		return nil, err
	}
	return skema.ParseFrom(ctx, s, skema.JSONBytes(body), cfg.parse)
}
