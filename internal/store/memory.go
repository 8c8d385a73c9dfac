package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory guarda tudo no processo. Usado em testes e no modo sem banco.
type Memory[T Record] struct {
	mu     sync.RWMutex
	owners map[string]*memoryBucket[T]
}

type memoryBucket[T Record] struct {
	items map[string]T
	order []string
}

// NewMemory cria um backend vazio.
func NewMemory[T Record]() *Memory[T] {
	return &Memory[T]{owners: make(map[string]*memoryBucket[T])}
}

// For implements Backend.
func (m *Memory[T]) For(owner string) Repository[T] {
	return &memoryRepo[T]{m: m, owner: owner}
}

type memoryRepo[T Record] struct {
	m     *Memory[T]
	owner string
}

func (r *memoryRepo[T]) bucket(create bool) *memoryBucket[T] {
	b, ok := r.m.owners[r.owner]
	if !ok && create {
		b = &memoryBucket[T]{items: make(map[string]T)}
		r.m.owners[r.owner] = b
	}
	return b
}

func (r *memoryRepo[T]) Create(ctx context.Context, rec T) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	id := uuid.NewString()
	b := r.bucket(true)
	b.items[id] = rec
	b.order = append(b.order, id)
	return id, nil
}

func (r *memoryRepo[T]) Update(ctx context.Context, id string, patch map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	b := r.bucket(false)
	if b == nil {
		return ErrNotFound
	}
	rec, ok := b.items[id]
	if !ok {
		return ErrNotFound
	}
	updated, err := applyPatch(rec, patch)
	if err != nil {
		return err
	}
	b.items[id] = updated
	return nil
}

func (r *memoryRepo[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	b := r.bucket(false)
	if b == nil {
		return ErrNotFound
	}
	if _, ok := b.items[id]; !ok {
		return ErrNotFound
	}
	delete(b.items, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// List ordena por dia e, no mesmo dia, pela ordem de criação.
func (r *memoryRepo[T]) List(ctx context.Context, f Filter) (Page[T], error) {
	if err := ctx.Err(); err != nil {
		return Page[T]{}, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	page := Page[T]{Items: []Stored[T]{}}
	b := r.bucket(false)
	if b == nil {
		return page, nil
	}

	var all []Stored[T]
	for _, id := range b.order {
		rec := b.items[id]
		if f.matches(rec.RecordDate()) {
			all = append(all, Stored[T]{ID: id, Record: rec})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return dayKey(all[i].Record.RecordDate()) < dayKey(all[j].Record.RecordDate())
	})

	lo, hi := f.window(len(all))
	page.Total = len(all)
	page.Items = append(page.Items, all[lo:hi]...)
	return page, nil
}
