// Package storage stores lead documents and photos in S3-compatible object
// storage.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL contains the URL and metadata for a presigned download.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ObjectStore is the subset of object storage the lead module uses.
type ObjectStore interface {
	// UploadFile stores reader under folder and returns the generated file key.
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)
	DeleteObject(ctx context.Context, bucket, fileKey string) error
	ValidateContentType(contentType string) error
	ValidateFileSize(sizeBytes int64) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
