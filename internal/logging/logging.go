package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

// New returns a text logger, at debug level for development environments and
// info level otherwise.
func New(w io.Writer, environment string) *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(environment, "Development") {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Audit writes user-action and performance entries. User actions are
// dropped when auditing is disabled; performance entries always go out.
type Audit struct {
	logger  *slog.Logger
	enabled bool
}

func NewAudit(logger *slog.Logger, enabled bool) *Audit {
	return &Audit{
		logger:  logger.With(slog.String("component", "audit")),
		enabled: enabled,
	}
}

func (a *Audit) Enabled() bool { return a != nil && a.enabled }

func (a *Audit) UserAction(ctx context.Context, action, details, userID string) {
	if !a.Enabled() {
		return
	}

	if userID == "" {
		userID = "Anonymous"
	}

	a.logger.LogAttrs(ctx, slog.LevelInfo, "user action",
		slog.String("type", "UserAction"),
		slog.String("action", action),
		slog.String("details", details),
		slog.String("user_id", userID),
	)
}

func (a *Audit) Performance(ctx context.Context, operation string, d time.Duration, attrs ...slog.Attr) {
	if a == nil {
		return
	}

	all := append([]slog.Attr{
		slog.String("type", "Performance"),
		slog.String("operation", operation),
		slog.Float64("duration_ms", float64(d.Microseconds())/1000),
	}, attrs...)

	a.logger.LogAttrs(ctx, slog.LevelInfo, "performance", all...)
}

// Probe writes a debug entry; the health check uses it to confirm the
// logging pipeline accepts writes.
func (a *Audit) Probe(ctx context.Context) {
	a.logger.DebugContext(ctx, "health check test log entry")
}
