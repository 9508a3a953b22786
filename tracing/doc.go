// Package tracing is a thin wrapper around OpenTelemetry so the engine can
// record spans for lifecycle and remote operations without coupling callers
// to the SDK. Applications that do not need tracing simply never call Init.
package tracing
