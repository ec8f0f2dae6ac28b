// Package mirror keeps a remote backup of a primary blob store.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/storage"
)

// Blobs writes through to a primary store and uploads every save to a backup.
// Before the first read the primary is restored from the backup if it holds nothing under Prefix
type Blobs struct {
	primary storage.Blobs
	backup  storage.Blobs
	prefix  string
	logger  *slog.Logger

	restoreOnce sync.Once
	restoreErr  error
}

// New creates a mirrored store. prefix scopes which keys are restored
func New(primary, backup storage.Blobs, prefix string, logger *slog.Logger) *Blobs {
	return &Blobs{
		primary: primary,
		backup:  backup,
		prefix:  prefix,
		logger:  logger.With(slog.String("component", "mirror")),
	}
}

// Ensure Blobs implements the interface
var _ storage.Blobs = (*Blobs)(nil)

// Restore copies the backup into an empty primary. It runs at most once
func (b *Blobs) Restore(ctx context.Context) error {
	b.restoreOnce.Do(func() {
		b.restoreErr = b.restore(ctx)
	})
	return b.restoreErr
}

func (b *Blobs) restore(ctx context.Context) error {
	existing, err := b.primary.Keys(ctx, b.prefix)
	if err != nil {
		return fmt.Errorf("failed to inspect primary: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	keys, err := b.backup.Keys(ctx, b.prefix)
	if err != nil {
		// A missing backup is not fatal, the primary is authoritative
		b.logger.Warn("backup unavailable, starting empty", slog.String("error", err.Error()))
		return nil
	}
	restored := 0
	for _, key := range keys {
		value, err := b.backup.Load(ctx, key)
		if err != nil {
			if errors.Is(err, model.ErrBlobNotFound) {
				continue
			}
			return fmt.Errorf("failed to download %s: %w", key, err)
		}
		if err := b.primary.Save(ctx, key, value); err != nil {
			return fmt.Errorf("failed to restore %s: %w", key, err)
		}
		restored++
	}
	if restored > 0 {
		b.logger.Info("restored from backup", slog.Int("keys", restored))
	}
	return nil
}

func (b *Blobs) Load(ctx context.Context, key string) ([]byte, error) {
	if err := b.Restore(ctx); err != nil {
		b.logger.Error("restore failed", slog.String("error", err.Error()))
	}
	return b.primary.Load(ctx, key)
}

// Save writes the primary, then uploads to the backup. Upload failures are only logged
func (b *Blobs) Save(ctx context.Context, key string, value []byte) error {
	if err := b.primary.Save(ctx, key, value); err != nil {
		return err
	}
	if err := b.backup.Save(ctx, key, value); err != nil {
		b.logger.Warn("backup upload failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (b *Blobs) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := b.Restore(ctx); err != nil {
		b.logger.Error("restore failed", slog.String("error", err.Error()))
	}
	return b.primary.Keys(ctx, prefix)
}

// Close closes both stores
func (b *Blobs) Close() error {
	return errors.Join(b.primary.Close(), b.backup.Close())
}
