// Package fsx abstracts blob storage behind one small interface so the
// application does not care whether uploads land on local disk or S3.
package fsx

import (
	"context"

	"github.com/Abraxas-365/academy/pkg/errx"
)

// Storage stores and serves uploaded blobs. Paths are forward-slash
// relative keys; drivers own the mapping to their backing store.
type Storage interface {
	Write(ctx context.Context, path string, data []byte, contentType string) error
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	// URL returns the public address clients use to fetch the blob.
	URL(path string) string
}

var ErrRegistry = errx.NewRegistry("FSX")

var (
	CodeNotFound    = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, 404, "File not found")
	CodeWriteFailed = ErrRegistry.Register("WRITE_FAILED", errx.TypeExternal, 500, "Failed to write file")
	CodeReadFailed  = ErrRegistry.Register("READ_FAILED", errx.TypeExternal, 500, "Failed to read file")
	CodeInvalidPath = ErrRegistry.Register("INVALID_PATH", errx.TypeValidation, 400, "Invalid file path")
)
