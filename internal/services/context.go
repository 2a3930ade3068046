package services

import "context"

type contextKey int

const (
	sessionIDKey contextKey = iota
	assetIDKey
	operationKey
)

// WithSessionID attaches a session identifier to the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the session identifier, if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// WithAssetID attaches an asset identifier to the context.
func WithAssetID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, assetIDKey, id)
}

// AssetIDFromContext extracts the asset identifier, if present.
func AssetIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(assetIDKey).(string)
	return id, ok && id != ""
}

// WithOperation attaches the current operation name (ingest, render,
// silence_removal) to the context.
func WithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationKey, name)
}

// OperationFromContext extracts the operation name, if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(operationKey).(string)
	return name, ok && name != ""
}
