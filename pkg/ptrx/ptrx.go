// Package ptrx has pointer helpers for optional fields in PATCH payloads
// and persistence structs.
package ptrx

import "time"

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Val dereferences p, returning the zero value for a nil pointer.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// ValOr dereferences p, returning fallback for a nil pointer.
func ValOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Time returns a pointer to t.
func Time(t time.Time) *time.Time { return &t }
