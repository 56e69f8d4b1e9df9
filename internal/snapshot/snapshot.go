// Package snapshot periodically copies the persisted conversation blob to
// timestamped files so an operator can recover from a corrupted or
// accidentally cleared store. Conversations are never expired or pruned;
// only old snapshot files are.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adhocore/gronx"

	"carechat/pkg/config"
	"carechat/pkg/logger"
)

// BlobSource exposes the raw persisted blob. The bool is false when nothing
// has been persisted yet.
type BlobSource interface {
	RawBlob() ([]byte, bool)
}

// Start launches the snapshot scheduler when enabled. It returns a cancel
// func; a disabled config yields a no-op cancel and no error.
func Start(ctx context.Context, cfg config.SnapshotConfig, src BlobSource, dir string) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("snapshot_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("snapshot_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid snapshot cron expression: %s", cfg.Cron)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		logger.Error("snapshot_path_create_failed", "path", dir, "error", err)
		return nil, err
	}

	logger.Info("snapshot_enabled", "cron", cronExpr, "path", dir, "keep", cfg.Keep)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, cfg.Keep, src, dir)
	return cancel, nil
}

// runScheduler computes the next cron tick with gronx and sleeps until then.
func runScheduler(ctx context.Context, cronExpr string, keep int, src BlobSource, dir string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("snapshot_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("snapshot_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := RunOnce(src, dir, keep); err != nil {
				logger.Error("snapshot_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("snapshot_scheduler_stopping")
			return
		}
	}
}

// RunOnce writes one snapshot and prunes old ones. An empty store is a
// normal no-op.
func RunOnce(src BlobSource, dir string, keep int) error {
	blob, ok := src.RawBlob()
	if !ok {
		logger.Info("snapshot_skipped_empty_store")
		return nil
	}

	name := fmt.Sprintf("snapshot-%d.json", time.Now().UTC().UnixNano())
	path := filepath.Join(dir, name)

	// temp-then-rename so a torn write never carries the final name
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	_ = tmp.Sync()
	_ = tmp.Close()
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("move snapshot into place: %w", err)
	}
	_ = os.Chmod(path, 0o600)
	logger.Info("snapshot_written", "path", path, "bytes", len(blob))

	return prune(dir, keep)
}

// prune removes the oldest snapshots beyond keep. Non-positive keep retains
// everything.
func prune(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "snapshot-") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= keep {
		return nil
	}
	// names embed a nanosecond timestamp of fixed magnitude, so the
	// lexicographic order is the chronological order
	sort.Strings(names)
	for _, n := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, n)); err != nil {
			logger.Warn("snapshot_prune_failed", "name", n, "error", err)
		} else {
			logger.Info("snapshot_pruned", "name", n)
		}
	}
	return nil
}
