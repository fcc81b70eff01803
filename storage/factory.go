package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Anaqqa/supfile/config"
)

// NewBackend builds the configured backend. Remote backends sit behind a
// circuit breaker.
func NewBackend(ctx context.Context, cfg *config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalBackend(cfg.BasePath)
	case "memory":
		return NewMemoryBackend(), nil
	case "minio":
		b, err := NewMinioBackend(ctx, MinioOptions{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			Region:    cfg.Minio.Region,
		})
		if err != nil {
			return nil, err
		}
		return NewBreakerBackend(b, breakerOptions("minio", cfg.Breaker)), nil
	case "s3":
		b, err := NewS3Backend(ctx, S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			ForcePathStyle:  cfg.S3.ForcePathStyle,
			KeyPrefix:       cfg.S3.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return NewBreakerBackend(b, breakerOptions("s3", cfg.Breaker)), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

func breakerOptions(name string, cfg config.BreakerConfig) BreakerOptions {
	return BreakerOptions{
		Name:             name,
		MaxRequests:      cfg.MaxRequests,
		Interval:         time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:          time.Duration(cfg.TimeoutSeconds) * time.Second,
		FailureThreshold: cfg.FailureThreshold,
	}
}
