package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/memlane/config"
	"github.com/rs/zerolog/log"
)

// New builds the provider selected by storage_type
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	log.Info().Str("type", cfg.StorageType).Str("bucket", cfg.StorageBucket).Msg("Initializing storage")

	var (
		provider Provider
		err      error
	)
	switch cfg.StorageType {
	case "", "local":
		provider, err = NewLocalStorage(cfg.StorageLocalPath)
	case "minio":
		provider, err = NewMinioStorage(MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKeyID,
			SecretAccessKey: cfg.MinioSecretAccessKey,
			UseSSL:          cfg.MinioUseSSL,
			BucketName:      cfg.StorageBucket,
		})
	case "s3":
		provider, err = NewS3Storage(ctx, S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.StorageBucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
	case "webdav":
		provider, err = NewWebDAVStorage(WebDAVConfig{
			URL:      cfg.WebDAVURL,
			Username: cfg.WebDAVUsername,
			Password: cfg.WebDAVPassword,
			RootPath: cfg.WebDAVRootPath,
			Timeout:  cfg.WebDAVTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.StorageType, err)
	}

	log.Info().Str("provider", provider.Name()).Msg("Storage initialized")
	return provider, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}
