package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/storage"
)

// Blobs is an in-memory key/value store
type Blobs struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewBlobs creates an empty blob store
func NewBlobs() *Blobs {
	return &Blobs{data: make(map[string][]byte)}
}

var _ storage.Blobs = (*Blobs)(nil)

func (b *Blobs) Load(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	if !ok {
		return nil, model.ErrBlobNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (b *Blobs) Save(ctx context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	b.data[key] = v
	return nil
}

func (b *Blobs) Keys(ctx context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var keys []string
	for k := range b.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Blobs) Close() error {
	return nil
}
