package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/pg"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

const itemColumns = `id, user_id, product_id, quantity, created_at, updated_at, merged_lines`

// adjustAttempts bounds the update-or-delete loop in Adjust when concurrent
// writers keep moving the quantity across zero.
const adjustAttempts = 3

// ItemStore implements cart.ItemStore with single-statement upserts on the
// (user_id, product_id) unique constraint.
type ItemStore struct {
	db  DB
	now func() time.Time
}

func NewItemStore(db DB) *ItemStore {
	return &ItemStore{db: db, now: time.Now}
}

func scanItem(row pgx.Row) (cart.Item, error) {
	var it cart.Item
	err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt, &it.MergedLines)
	return it, err
}

func (s *ItemStore) Increment(ctx context.Context, userID uuid.UUID, productID string, delta int) (cart.Item, error) {
	if delta <= 0 {
		return cart.Item{}, cart.ErrInvalidDelta
	}

	it, err := scanItem(s.db.QueryRow(ctx,
		`INSERT INTO cart_items (`+itemColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $5, '{}')
		 ON CONFLICT (user_id, product_id) DO UPDATE
		    SET quantity = cart_items.quantity + EXCLUDED.quantity,
		        updated_at = EXCLUDED.updated_at
		 RETURNING `+itemColumns,
		uuid.New(), userID, productID, delta, s.now(),
	))
	if err != nil {
		return cart.Item{}, mapErr(err)
	}
	return it, nil
}

// Merge is the Increment upsert with the line id appended to merged_lines
// in the same statement. The conflict branch only fires while the row does
// not hold the id yet; otherwise nothing is returned and the row is read
// back unchanged.
func (s *ItemStore) Merge(ctx context.Context, userID uuid.UUID, productID, lineID string, delta int) (cart.Item, bool, error) {
	if delta <= 0 {
		return cart.Item{}, false, cart.ErrInvalidDelta
	}

	it, err := scanItem(s.db.QueryRow(ctx,
		`INSERT INTO cart_items (`+itemColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $5, ARRAY[$6::text])
		 ON CONFLICT (user_id, product_id) DO UPDATE
		    SET quantity = cart_items.quantity + EXCLUDED.quantity,
		        updated_at = EXCLUDED.updated_at,
		        merged_lines = cart_items.merged_lines || EXCLUDED.merged_lines
		  WHERE NOT cart_items.merged_lines @> EXCLUDED.merged_lines
		 RETURNING `+itemColumns,
		uuid.New(), userID, productID, delta, s.now(), lineID,
	))
	if err == nil {
		return it, true, nil
	}
	if !pg.IsNotFoundError(err) {
		return cart.Item{}, false, mapErr(err)
	}

	it, err = s.GetByProduct(ctx, userID, productID)
	if err != nil {
		return cart.Item{}, false, err
	}
	return it, false, nil
}

func (s *ItemStore) Get(ctx context.Context, id uuid.UUID) (cart.Item, error) {
	return s.queryOne(ctx, `SELECT `+itemColumns+` FROM cart_items WHERE id = $1`, id)
}

func (s *ItemStore) GetByProduct(ctx context.Context, userID uuid.UUID, productID string) (cart.Item, error) {
	return s.queryOne(ctx,
		`SELECT `+itemColumns+` FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
}

func (s *ItemStore) queryOne(ctx context.Context, sql string, args ...any) (cart.Item, error) {
	it, err := scanItem(s.db.QueryRow(ctx, sql, args...))
	if pg.IsNotFoundError(err) {
		return cart.Item{}, cart.ErrLineNotFound
	}
	if err != nil {
		return cart.Item{}, mapErr(err)
	}
	return it, nil
}

func (s *ItemStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]cart.Item, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+itemColumns+` FROM cart_items WHERE user_id = $1 ORDER BY created_at, product_id`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		return scanItem(row)
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return items, nil
}

// Adjust either updates the quantity or, when it would reach zero, deletes
// the row. Each branch is a single conditional statement; if neither matches
// the row changed underneath or is gone.
func (s *ItemStore) Adjust(ctx context.Context, id uuid.UUID, delta int) (cart.Item, bool, error) {
	for range adjustAttempts {
		it, err := scanItem(s.db.QueryRow(ctx,
			`UPDATE cart_items SET quantity = quantity + $2, updated_at = $3
			  WHERE id = $1 AND quantity + $2 > 0
			 RETURNING `+itemColumns,
			id, delta, s.now(),
		))
		if err == nil {
			return it, false, nil
		}
		if !pg.IsNotFoundError(err) {
			return cart.Item{}, false, mapErr(err)
		}

		it, err = scanItem(s.db.QueryRow(ctx,
			`DELETE FROM cart_items WHERE id = $1 AND quantity + $2 <= 0 RETURNING `+itemColumns,
			id, delta,
		))
		if err == nil {
			it.Quantity += delta
			return it, true, nil
		}
		if !pg.IsNotFoundError(err) {
			return cart.Item{}, false, mapErr(err)
		}

		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cart_items WHERE id = $1)`, id).Scan(&exists); err != nil {
			return cart.Item{}, false, mapErr(err)
		}
		if !exists {
			return cart.Item{}, false, cart.ErrLineNotFound
		}
	}
	return cart.Item{}, false, fmt.Errorf("adjust cart item %s: %w", id, storage.ErrConflict)
}

func (s *ItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (s *ItemStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}
