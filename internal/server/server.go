// Package server exposes schema validation over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	skema "github.com/reoring/skema"
	"github.com/reoring/skema/metrics"
	"github.com/reoring/skema/middleware"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-Id"

// Catalog resolves schemas by name. *schemafile.Catalog satisfies it.
type Catalog interface {
	Get(name string) (*skema.Schema, bool)
	Names() []string
}

// Options configures the handler. Zero values are usable.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	MaxBytes int64
}

type contextKeyRequestID struct{}

// RequestID returns the request id stored by the handler, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID{}).(string)
	return id
}

// WithRequestID injects a request id into ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID{}, id)
}

// RequestIDAttr is a logging.ContextExtractor for the request id.
func RequestIDAttr(ctx context.Context) (slog.Attr, bool) {
	id := RequestID(ctx)
	return slog.String("request_id", id), id != ""
}

type handler struct {
	cat  Catalog
	opts Options
}

// New returns the HTTP API:
//
//	POST /validate/{schema}  validate a JSON body, respond with the dumped record
//	GET  /schemas            list schema names
//	GET  /schemas/{schema}   JSON Schema of one schema
//	GET  /metrics            Prometheus metrics
//	GET  /healthz            liveness
func New(cat Catalog, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = middleware.DefaultMaxBytes
	}
	h := &handler{cat: cat, opts: opts}

	r := chi.NewRouter()
	r.Use(requestID, h.accessLog)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/schemas", h.listSchemas)
	r.Get("/schemas/{schema}", h.getSchema)
	r.Post("/validate/{schema}", h.validate)
	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (h *handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		h.opts.Logger.InfoContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func notFound(w http.ResponseWriter, name string) {
	middleware.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown schema " + name})
}

func (h *handler) listSchemas(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string][]string{"schemas": h.cat.Names()})
}

func (h *handler) getSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "schema")
	s, ok := h.cat.Get(name)
	if !ok {
		notFound(w, name)
		return
	}
	js, err := s.JSONSchema()
	if err != nil {
		h.opts.Logger.ErrorContext(r.Context(), "export JSON Schema", slog.String("schema", name), slog.Any("error", err))
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, js)
}

// validate responds with the record dumped under the include, exclude,
// exclude_unset and exclude_defaults query parameters.
func (h *handler) validate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "schema")
	s, ok := h.cat.Get(name)
	if !ok {
		notFound(w, name)
		return
	}
	mwOpts := []middleware.Option{
		middleware.WithLogger(h.opts.Logger),
		middleware.WithMaxBytes(h.opts.MaxBytes),
		middleware.WithParseOpt(skema.ParseOpt{FailFast: queryBool(r, "fail_fast")}),
	}
	if h.opts.Metrics != nil {
		mwOpts = append(mwOpts, middleware.WithObserver(h.opts.Metrics))
	}
	middleware.Validate(s, mwOpts...)(http.HandlerFunc(h.respond)).ServeHTTP(w, r)
}

func (h *handler) respond(w http.ResponseWriter, r *http.Request) {
	rec, ok := middleware.RecordFromContext(r.Context())
	if !ok {
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "no record"})
		return
	}
	out, err := rec.DumpJSON(DumpOptFromQuery(r))
	if err != nil {
		h.opts.Logger.ErrorContext(r.Context(), "dump record", slog.Any("error", err))
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// DumpOptFromQuery reads include and exclude (comma separated, repeatable)
// plus the exclude_unset and exclude_defaults flags.
func DumpOptFromQuery(r *http.Request) skema.DumpOpt {
	q := r.URL.Query()
	return skema.DumpOpt{
		Include:         splitList(q["include"]),
		Exclude:         splitList(q["exclude"]),
		ExcludeUnset:    queryBool(r, "exclude_unset"),
		ExcludeDefaults: queryBool(r, "exclude_defaults"),
	}
}

func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for p := range strings.SplitSeq(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.URL.Query().Get(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Run serves h on addr until ctx is done, then shuts down gracefully,
// giving in-flight requests up to grace to finish.
func Run(ctx context.Context, addr string, h http.Handler, grace time.Duration, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			_ = srv.Close()
			return err
		}
		return nil
	}
}
