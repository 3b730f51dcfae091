package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/tidwall/btree"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/infra/adapters/store"
)

var _ ports.Documents = (*Documents)(nil)

// bucket orders the documents of one collection by insertion sequence so
// listing and cursors are stable.
type bucket struct {
	mu   sync.RWMutex
	seq  uint64
	byID map[string]uint64
	docs *btree.Map[uint64, entity.Document]
}

func newBucket() *bucket {
	return &bucket{
		byID: make(map[string]uint64),
		docs: btree.NewMap[uint64, entity.Document](32),
	}
}

// Documents is an unscoped document store with no permission checks.
type Documents struct {
	collections *xsync.MapOf[string, *bucket]
	now         func() time.Time
}

func NewDocuments() *Documents {
	return &Documents{
		collections: xsync.NewMapOf[string, *bucket](),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Documents) bucketFor(name string) *bucket {
	c, _ := s.collections.LoadOrCompute(name, newBucket)
	return c
}

func (s *Documents) CreateDocument(_ context.Context, collection, id string, data any, permissions []string) (entity.Document, error) {
	raw, err := store.EncodeData(data)
	if err != nil {
		return entity.Document{}, err
	}

	c := s.bucketFor(collection)
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[id]; exists {
		return entity.Document{}, ports.ErrDocumentExists
	}

	now := s.now()
	doc := entity.Document{
		ID:          id,
		Collection:  collection,
		Data:        raw,
		Permissions: slices.Clone(permissions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.seq++
	c.byID[id] = c.seq
	c.docs.Set(c.seq, doc)

	return clone(doc), nil
}

func (s *Documents) GetDocument(_ context.Context, collection, id string) (entity.Document, error) {
	c := s.bucketFor(collection)
	c.mu.RLock()
	defer c.mu.RUnlock()

	seq, ok := c.byID[id]
	if !ok {
		return entity.Document{}, ports.ErrDocumentNotFound
	}
	doc, _ := c.docs.Get(seq)
	return clone(doc), nil
}

func (s *Documents) UpdateDocument(_ context.Context, collection, id string, data any) (entity.Document, error) {
	raw, err := store.EncodeData(data)
	if err != nil {
		return entity.Document{}, err
	}

	c := s.bucketFor(collection)
	c.mu.Lock()
	defer c.mu.Unlock()

	seq, ok := c.byID[id]
	if !ok {
		return entity.Document{}, ports.ErrDocumentNotFound
	}
	doc, _ := c.docs.Get(seq)
	doc.Data = raw
	doc.UpdatedAt = s.now()
	c.docs.Set(seq, doc)

	return clone(doc), nil
}

func (s *Documents) DeleteDocument(_ context.Context, collection, id string) error {
	c := s.bucketFor(collection)
	c.mu.Lock()
	defer c.mu.Unlock()

	seq, ok := c.byID[id]
	if !ok {
		return ports.ErrDocumentNotFound
	}
	delete(c.byID, id)
	c.docs.Delete(seq)
	return nil
}

func (s *Documents) ListDocuments(_ context.Context, collection string, query entity.Query) (entity.DocumentList, error) {
	c := s.bucketFor(collection)
	c.mu.RLock()
	defer c.mu.RUnlock()

	var after uint64
	if query.CursorAfter != "" {
		seq, ok := c.byID[query.CursorAfter]
		if !ok {
			return entity.DocumentList{}, ports.ErrDocumentNotFound
		}
		after = seq
	}

	limit := query.EffectiveLimit()
	list := entity.DocumentList{Documents: []entity.Document{}}

	c.docs.Scan(func(seq uint64, doc entity.Document) bool {
		if !query.Matches(store.DecodeFields(doc.Data)) {
			return true
		}
		list.Total++
		if seq > after && len(list.Documents) < limit {
			list.Documents = append(list.Documents, clone(doc))
		}
		return true
	})

	return list, nil
}

func clone(doc entity.Document) entity.Document {
	doc.Data = slices.Clone(doc.Data)
	doc.Permissions = slices.Clone(doc.Permissions)
	return doc
}
