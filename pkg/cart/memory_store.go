package cart

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type userProduct struct {
	userID    uuid.UUID
	productID string
}

// MemoryItemStore is an in-memory ItemStore for tests and development.
type MemoryItemStore struct {
	mu        sync.Mutex
	items     map[uuid.UUID]Item
	byProduct map[userProduct]uuid.UUID
	now       func() time.Time
}

// NewMemoryItemStore creates an empty store.
func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{
		items:     make(map[uuid.UUID]Item),
		byProduct: make(map[userProduct]uuid.UUID),
		now:       time.Now,
	}
}

func (s *MemoryItemStore) Increment(_ context.Context, userID uuid.UUID, productID string, delta int) (Item, error) {
	if delta <= 0 {
		return Item{}, ErrInvalidDelta
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := userProduct{userID, productID}
	if id, ok := s.byProduct[key]; ok {
		it := s.items[id]
		it.Quantity += delta
		it.UpdatedAt = now
		s.items[id] = it
		return cloneItem(it), nil
	}

	it := Item{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  delta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.items[it.ID] = it
	s.byProduct[key] = it.ID
	return it, nil
}

func (s *MemoryItemStore) Merge(_ context.Context, userID uuid.UUID, productID, lineID string, delta int) (Item, bool, error) {
	if delta <= 0 {
		return Item{}, false, ErrInvalidDelta
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := userProduct{userID, productID}
	if id, ok := s.byProduct[key]; ok {
		it := s.items[id]
		if slices.Contains(it.MergedLines, lineID) {
			return cloneItem(it), false, nil
		}
		it.Quantity += delta
		it.UpdatedAt = now
		it.MergedLines = append(slices.Clone(it.MergedLines), lineID)
		s.items[id] = it
		return cloneItem(it), true, nil
	}

	it := Item{
		ID:          uuid.New(),
		UserID:      userID,
		ProductID:   productID,
		Quantity:    delta,
		CreatedAt:   now,
		UpdatedAt:   now,
		MergedLines: []string{lineID},
	}
	s.items[it.ID] = it
	s.byProduct[key] = it.ID
	return cloneItem(it), true, nil
}

func (s *MemoryItemStore) Get(_ context.Context, id uuid.UUID) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return Item{}, ErrLineNotFound
	}
	return cloneItem(it), nil
}

func (s *MemoryItemStore) GetByProduct(_ context.Context, userID uuid.UUID, productID string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byProduct[userProduct{userID, productID}]
	if !ok {
		return Item{}, ErrLineNotFound
	}
	return cloneItem(s.items[id]), nil
}

func (s *MemoryItemStore) ListByUser(_ context.Context, userID uuid.UUID) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Item
	for _, it := range s.items {
		if it.UserID == userID {
			result = append(result, cloneItem(it))
		}
	}
	slices.SortFunc(result, func(a, b Item) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ProductID, b.ProductID))
	})
	return result, nil
}

func (s *MemoryItemStore) Adjust(_ context.Context, id uuid.UUID, delta int) (Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return Item{}, false, ErrLineNotFound
	}

	it.Quantity += delta
	it.UpdatedAt = s.now()
	if it.Quantity <= 0 {
		s.remove(it)
		return cloneItem(it), true, nil
	}
	s.items[id] = it
	return cloneItem(it), false, nil
}

func (s *MemoryItemStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return ErrLineNotFound
	}
	s.remove(it)
	return nil
}

func (s *MemoryItemStore) DeleteByUser(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, it := range s.items {
		if it.UserID == userID {
			s.remove(it)
			n++
		}
	}
	return n, nil
}

func (s *MemoryItemStore) remove(it Item) {
	delete(s.items, it.ID)
	delete(s.byProduct, userProduct{it.UserID, it.ProductID})
}

func cloneItem(it Item) Item {
	it.MergedLines = slices.Clone(it.MergedLines)
	return it
}
