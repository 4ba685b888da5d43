// Package archive keeps a copy of every accepted schedule upload.
package archive

import (
	"context"
	"io"
	"strings"

	"github.com/go-faster/errors"

	"github.com/telescope-ops/obsadmin/services/internal/config"
)

// Store persists an upload under key and returns where it ended up.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error)
}

// New builds the store selected by cfg.Driver. It returns nil, nil for the
// "none" driver.
func New(ctx context.Context, cfg config.ArchiveConfig) (Store, error) {
	switch cfg.Driver {
	case "", config.ArchiveNone:
		return nil, nil
	case config.ArchiveFS:
		return NewFilesystem(cfg.Dir)
	case config.ArchiveS3:
		return NewS3(ctx, cfg)
	default:
		return nil, errors.Errorf("unknown archive driver %q", cfg.Driver)
	}
}

// UploadKey is the archive key of a run's raw sheet.
func UploadKey(semester, runID string) string {
	if semester == "" {
		semester = "unknown"
	}
	return semester + "/" + runID + ".csv"
}

func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("empty key")
	}
	if strings.Contains(key, "..") {
		return "", errors.New("invalid key contains '..'")
	}
	if strings.HasPrefix(key, "/") {
		return "", errors.New("invalid absolute key")
	}
	return key, nil
}
