package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"carechat/pkg/logger"
	"carechat/pkg/models"
	"carechat/pkg/telemetry"
)

// blobKey is the single named entry holding the serialized ConversationStore.
const blobKey = "conversations:store"

// Pebble is the durable Blob adapter.
type Pebble struct {
	db   *pebble.DB
	path string
}

// Open opens (or creates) a Pebble database at the given path.
func Open(path string) (*Pebble, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("pebble_opened", "path", path)
	return &Pebble{db: db, path: path}, nil
}

// Close closes the underlying database.
func (p *Pebble) Close() error {
	if p.db == nil {
		return nil
	}
	if err := p.db.Close(); err != nil {
		return err
	}
	p.db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and usable.
func (p *Pebble) Ready() bool {
	return p != nil && p.db != nil
}

// Load reads and deserializes the conversation blob. Absent, unparseable or
// unreadable state yields nil; message timestamps are reconstructed into
// time.Time values by the JSON codec.
func (p *Pebble) Load() *models.ConversationStore {
	if p.db == nil {
		return nil
	}
	v, closer, err := p.db.Get([]byte(blobKey))
	if err != nil {
		if !errors.Is(err, pebble.ErrNotFound) {
			logger.Warn("store_load_failed", "error", err)
			telemetry.StoreOp("load", "error")
		}
		return nil
	}
	data := append([]byte(nil), v...)
	_ = closer.Close()

	var cs models.ConversationStore
	if err := json.Unmarshal(data, &cs); err != nil {
		logger.Warn("store_blob_unparseable", "error", err)
		telemetry.StoreOp("load", "corrupt")
		return nil
	}
	if cs.MessagesBySession == nil {
		cs.MessagesBySession = map[string][]models.Message{}
	}
	telemetry.StoreOp("load", "ok")
	return &cs
}

// Save merges the partial over current persisted state and writes the whole
// blob back in one pebble.Sync write. Any storage error is swallowed so the
// caller can continue in-memory.
func (p *Pebble) Save(partial Partial) {
	if p.db == nil {
		return
	}
	cur := p.Load()
	if cur == nil {
		cur = emptyStore()
	}
	applyPartial(cur, partial)

	data, err := json.Marshal(cur)
	if err != nil {
		logger.Error("store_marshal_failed", "error", err)
		telemetry.StoreOp("save", "error")
		return
	}
	if err := p.db.Set([]byte(blobKey), data, pebble.Sync); err != nil {
		logger.Error("store_save_failed", "error", err)
		telemetry.StoreOp("save", "error")
		return
	}
	telemetry.StoreOp("save", "ok")
}

// Clear removes the persisted entry.
func (p *Pebble) Clear() {
	if p.db == nil {
		return
	}
	if err := p.db.Delete([]byte(blobKey), pebble.Sync); err != nil {
		logger.Error("store_clear_failed", "error", err)
		telemetry.StoreOp("clear", "error")
		return
	}
	telemetry.StoreOp("clear", "ok")
}

// RawBlob returns the serialized blob as stored, for snapshotting.
func (p *Pebble) RawBlob() ([]byte, bool) {
	if p.db == nil {
		return nil, false
	}
	v, closer, err := p.db.Get([]byte(blobKey))
	if err != nil {
		return nil, false
	}
	data := append([]byte(nil), v...)
	_ = closer.Close()
	return data, true
}

// DiskUsage returns the best-effort on-disk size of the database directory.
func (p *Pebble) DiskUsage() uint64 {
	if p.path == "" {
		return 0
	}
	var total uint64
	_ = filepath.WalkDir(p.path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += uint64(fi.Size())
		}
		return nil
	})
	return total
}
