package cart

import (
	"context"

	"github.com/google/uuid"
)

// ItemStore persists the carts of authenticated users.
type ItemStore interface {
	// Increment atomically adds delta (> 0) to the user's row for productID,
	// inserting the row with quantity delta when none exists.
	Increment(ctx context.Context, userID uuid.UUID, productID string, delta int) (Item, error)

	// Merge is Increment applied at most once per lineID. The lineID is
	// recorded on the row in the same write; replaying it returns the
	// current row with applied false.
	Merge(ctx context.Context, userID uuid.UUID, productID, lineID string, delta int) (item Item, applied bool, err error)

	// Get returns the item or ErrLineNotFound.
	Get(ctx context.Context, id uuid.UUID) (Item, error)

	// GetByProduct returns the user's row for productID or ErrLineNotFound.
	GetByProduct(ctx context.Context, userID uuid.UUID, productID string) (Item, error)

	// ListByUser returns the user's items ordered by CreatedAt.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Item, error)

	// Adjust atomically adds delta (which may be negative) to the item.
	// When the quantity drops to zero or below the row is deleted and
	// removed is true.
	Adjust(ctx context.Context, id uuid.UUID, delta int) (item Item, removed bool, err error)

	// Delete removes the item; a missing item yields ErrLineNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByUser removes every item of the user.
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error)
}
