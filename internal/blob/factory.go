package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	appcfg "github.com/fdg312/fridge-journal/internal/config"
)

// NewBlobStore builds a store for mode local|s3|auto and returns the effective mode.
// auto uses S3 when it is configured and reachable, memory otherwise.
func NewBlobStore(ctx context.Context, cfg appcfg.BlobConfig, logger zerolog.Logger) (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}

	switch mode {
	case appcfg.BlobModeLocal:
		logger.Info().Str("mode", "local").Msg("blob store: forced local")
		return NewMemoryStore(), appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			event := logger.Info()
			if !cfg.S3.IsEmpty() {
				event = logger.Warn().Strs("missing", cfg.S3.MissingRequired())
			}
			event.Str("s3", cfg.S3.Summary()).Msg("blob store: S3 not configured, using local")
			return NewMemoryStore(), appcfg.BlobModeLocal, nil
		}

		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			logger.Warn().Err(err).Msg("blob store: S3 init failed, using local")
			return NewMemoryStore(), appcfg.BlobModeLocal, nil
		}

		logger.Info().Str("mode", "s3").Str("s3", cfg.S3.Summary()).Msg("blob store: auto selected S3")
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if missing := cfg.S3.MissingRequired(); len(missing) > 0 {
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}

		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}

		logger.Info().Str("mode", "s3").Str("s3", cfg.S3.Summary()).Msg("blob store: forced S3")
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
}
