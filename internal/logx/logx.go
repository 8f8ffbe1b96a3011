package logx

import (
	"context"

	"pkt.systems/prattle/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	userKey contextKey = iota
	winKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithUser annotates the logger with the user id if present.
func WithUser(ctx context.Context, userID schema.UserID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if userID != "" {
		if current, ok := ctx.Value(userKey).(schema.UserID); ok && current == userID {
			return log
		}
		log = log.With("user", userID)
	}
	return log
}

// WithUserWin annotates the logger with user and window subject.
func WithUserWin(ctx context.Context, userID schema.UserID, win string) pslog.Logger {
	log := WithUser(ctx, userID)
	if win != "" {
		if current, ok := ctx.Value(winKey).(string); ok && current == win {
			return log
		}
		log = log.With("win", win)
	}
	return log
}

// WithRoom annotates the logger with a room JID when available.
func WithRoom(log pslog.Logger, room string) pslog.Logger {
	if room != "" {
		log = log.With("room", room)
	}
	return log
}

// ContextWithUser stores the user marker on the context for log de-duplication.
func ContextWithUser(ctx context.Context, userID schema.UserID) context.Context {
	if ctx == nil || userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userKey, userID)
}

// ContextWithWin stores the window marker on the context for log de-duplication.
func ContextWithWin(ctx context.Context, win string) context.Context {
	if ctx == nil || win == "" {
		return ctx
	}
	return context.WithValue(ctx, winKey, win)
}

// ContextWithUserLogger attaches the logger and user marker to the context.
func ContextWithUserLogger(ctx context.Context, log pslog.Logger, userID schema.UserID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithUser(ctx, userID)
}

// CopyContextFields copies user/window markers from src to dst.
func CopyContextFields(dst context.Context, src context.Context) context.Context {
	if src == nil {
		return dst
	}
	if user, ok := src.Value(userKey).(schema.UserID); ok && user != "" {
		dst = ContextWithUser(dst, user)
	}
	if win, ok := src.Value(winKey).(string); ok && win != "" {
		dst = ContextWithWin(dst, win)
	}
	return dst
}
