// Package logx wraps zerolog behind a small Logger type with typed
// field helpers and a hot-reloadable sink Service (console + file).
//
// The zero value of Logger is a safe no-op, so components can accept a
// Logger without nil checks.
package logx
