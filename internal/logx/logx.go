// Package logx annotates loggers with chat identifiers and carries them on
// the context so nested calls do not repeat the same fields.
package logx

import (
	"context"

	"pkt.systems/pslog"

	"github.com/meetingmuse/musechat/schema"
)

type contextKey int

const (
	clientKey contextKey = iota
	sessionKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithClient annotates the logger with the client id if present.
func WithClient(ctx context.Context, clientID schema.ClientID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if clientID != "" {
		if current, ok := ctx.Value(clientKey).(schema.ClientID); ok && current == clientID {
			return log
		}
		log = log.With("client", clientID)
	}
	return log
}

// WithIdentity annotates the logger with client and session identifiers.
func WithIdentity(ctx context.Context, id schema.Identity) pslog.Logger {
	log := WithClient(ctx, id.ClientID)
	if id.SessionID != "" {
		if current, ok := ctx.Value(sessionKey).(schema.SessionID); ok && current == id.SessionID {
			return log
		}
		log = log.With("session", id.SessionID)
	}
	return log
}

// WithSession annotates the logger with a session id when available.
func WithSession(log pslog.Logger, sessionID schema.SessionID) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}

// ContextWithClient stores the client marker on the context for log de-duplication.
func ContextWithClient(ctx context.Context, clientID schema.ClientID) context.Context {
	if ctx == nil || clientID == "" {
		return ctx
	}
	return context.WithValue(ctx, clientKey, clientID)
}

// ContextWithSession stores the session marker on the context for log de-duplication.
func ContextWithSession(ctx context.Context, sessionID schema.SessionID) context.Context {
	if ctx == nil || sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, sessionID)
}

// ContextWithIdentity stores client/session markers on the context.
func ContextWithIdentity(ctx context.Context, id schema.Identity) context.Context {
	return ContextWithSession(ContextWithClient(ctx, id.ClientID), id.SessionID)
}

// ContextWithIdentityLogger attaches the logger and identity markers to the context.
func ContextWithIdentityLogger(ctx context.Context, log pslog.Logger, id schema.Identity) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithIdentity(ctx, id)
}
