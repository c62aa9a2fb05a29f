package storage

import (
	"fmt"

	"github.com/prazwal-bns/imageprompt-api/internal/config"
)

// NewStorage creates a BlobStorage instance based on the configuration.
// The local driver is the default; s3 covers AWS, R2 and compatibles.
func NewStorage(cfg *config.StorageConfig) (BlobStorage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.Local.Path, cfg.Local.PublicURL)
	case "s3":
		return NewS3Storage(&S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			PublicURL: cfg.S3.PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
}
