// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pkcs8.
//
// go-pkcs8 is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.


// Package correlation carries the ID that ties together the log records of
// one CLI invocation. Scripts driving several commands can pass their own
// ID to trace a whole batch.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey struct{}

// WithID adds a correlation ID to the context.
func WithID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext retrieves the correlation ID from context.
// Returns an empty string if no correlation ID is found.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// NewID generates a new UUID v4 correlation ID.
func NewID() string {
	return uuid.NewString()
}

// Ensure returns a context carrying a correlation ID and the ID itself. An
// explicit id wins over one already in ctx; with neither a new one is
// generated.
func Ensure(ctx context.Context, id string) (context.Context, string) {
	if id == "" {
		id = FromContext(ctx)
	}
	if id == "" {
		id = NewID()
	}
	return WithID(ctx, id), id
}
