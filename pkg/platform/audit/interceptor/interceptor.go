package interceptor

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/audit"
	"gatehouse/pkg/requestcontext"
)

// SnapshotSource supplies the "before" state of a path-bound entity. The
// application wires its own read path in; a nil source or a lookup miss
// yields before = null, never an error.
type SnapshotSource interface {
	Snapshot(ctx context.Context, entityType, entityID string) (json.RawMessage, error)
}

// mutating is the set of audited HTTP methods.
var mutating = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Interceptor wraps mutating requests: snapshot before, run the handler,
// and on success record an audit entry with the after state taken from the
// response payload. Recording is best-effort and never alters the response.
type Interceptor struct {
	recorder *audit.Recorder
	resolver *Resolver
	source   SnapshotSource // may be nil
	logger   *slog.Logger
	tracer   trace.Tracer
}

func New(recorder *audit.Recorder, resolver *Resolver, source SnapshotSource, logger *slog.Logger) *Interceptor {
	return &Interceptor{
		recorder: recorder,
		resolver: resolver,
		source:   source,
		logger:   logger.With("component", "audit_interceptor"),
		tracer:   otel.Tracer("gatehouse/audit"),
	}
}

// Middleware returns the chi-compatible wrapper.
func (i *Interceptor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !mutating[r.Method] || targetsAuditLog(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		entityType, entityID, resolved := i.resolver.Resolve(r.URL.Path)

		var before json.RawMessage
		if resolved {
			before = i.snapshot(ctx, entityType, entityID)
		}

		capture := newCaptureWriter(w)
		next.ServeHTTP(capture, r.WithContext(ctx))

		if capture.status < 200 || capture.status >= 300 {
			return // failed mutations leave no audit trail
		}

		after := afterSnapshot(capture.body.Bytes())

		if !resolved {
			entityType, entityID, resolved = inferFromPayload(r.URL.Path, after)
		}
		if !resolved {
			return // no partial or garbage entries
		}

		i.recorder.Record(ctx, &audit.Entry{
			EntityType:  entityType,
			EntityID:    entityID,
			Action:      strings.ToLower(r.Method),
			PerformedBy: identityOf(ctx),
			Before:      before,
			After:       after,
			IPAddress:   requestcontext.ClientIP(ctx),
		})
	})
}

// snapshot fetches the before state; errors degrade to null.
func (i *Interceptor) snapshot(ctx context.Context, entityType, entityID string) json.RawMessage {
	if i.source == nil {
		return nil
	}
	ctx, span := i.tracer.Start(ctx, "audit.before_snapshot")
	defer span.End()

	before, err := i.source.Snapshot(ctx, entityType, entityID)
	if err != nil {
		i.logger.WarnContext(ctx, "before snapshot failed",
			"error", err,
			"entity_type", entityType,
			"entity_id", entityID,
		)
		return nil
	}
	return before
}

// afterSnapshot extracts the after state from the response body: the
// top-level "data" field when present, otherwise the whole body. Non-JSON
// bodies yield null.
func afterSnapshot(body []byte) json.RawMessage {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		if json.Valid(body) {
			return json.RawMessage(bytes.TrimSpace(body))
		}
		return nil
	}
	if data, ok := envelope["data"]; ok {
		return data
	}
	return json.RawMessage(bytes.TrimSpace(body))
}

// targetsAuditLog prevents self-referential audit loops.
func targetsAuditLog(path string) bool {
	for _, segment := range splitPath(path) {
		if segment == "audit-logs" || segment == "audit_logs" {
			return true
		}
	}
	return false
}

func identityOf(ctx context.Context) *id.UserID {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return nil // unauthenticated mutations must not crash the recorder
	}
	return &userID
}

// captureWriter tees the response so the interceptor can read the payload
// the client received.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{ResponseWriter: w, status: http.StatusOK}
}

func (c *captureWriter) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}
