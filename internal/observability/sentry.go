package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// StorageLogger logs slot failures and reports them to Sentry. The user
// never sees them.
type StorageLogger struct {
	Logger    *Logger
	RequestID string
}

func (s StorageLogger) Warn(message string, fields map[string]any) {
	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	if s.RequestID != "" {
		merged["request_id"] = s.RequestID
	}
	s.Logger.Warn(message, merged)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelWarning)
		for k, v := range merged {
			scope.SetExtra(k, v)
		}
		sentry.CaptureMessage(message)
	})
}
