package logger

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Error records err under "error". A nil error yields an empty Attr, which
// slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records a user id. uuid.Nil yields an empty Attr.
func UserID(id uuid.UUID) slog.Attr {
	if id == uuid.Nil {
		return slog.Attr{}
	}
	return slog.String("user_id", id.String())
}

// SessionID records the first 8 characters of a session id, so log lines
// cannot be replayed as cookies.
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return slog.String("session_id", id)
}

func ProductID(id string) slog.Attr {
	return slog.String("product_id", id)
}

// Count records a number of affected records.
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

func RetryCount(n int) slog.Attr {
	return slog.Int("retry_count", n)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event names a domain event such as "login" or "evict_all".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
