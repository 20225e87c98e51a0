package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/storefront/pkg/session"
)

// Source tells which store owns a cart line.
type Source string

const (
	SourceSession Source = "session"
	SourceUser    Source = "user"
)

// AvailabilityStatus is derived on every read from current stock.
type AvailabilityStatus string

const (
	Available   AvailabilityStatus = "available"
	Unavailable AvailabilityStatus = "unavailable"
)

// Line is a cart entry regardless of where it is stored.
type Line struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
	Source    Source    `json:"source"`
}

// LineView is a Line enriched with product data for display.
type LineView struct {
	Line
	Title              string             `json:"title"`
	Category           string             `json:"category"`
	Thumbnail          string             `json:"thumbnail"`
	Price              decimal.Decimal    `json:"price"`
	Subtotal           decimal.Decimal    `json:"subtotal"`
	AvailableQuantity  int                `json:"available_quantity"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status"`
}

// View is the whole cart as returned to clients.
type View struct {
	Lines  []LineView      `json:"lines"`
	Length int             `json:"length"`
	Total  decimal.Decimal `json:"total"`
}

// Item is a persistent cart row of an authenticated user.
// There is at most one Item per (UserID, ProductID).
type Item struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// MergedLines holds the ids of anonymous lines already added to this row.
	MergedLines []string `json:"-"`
}

func lineFromItem(it Item) Line {
	return Line{
		ID:        it.ID.String(),
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		AddedAt:   it.CreatedAt,
		Source:    SourceUser,
	}
}

func lineFromSession(l session.CartLine) Line {
	return Line{
		ID:        l.ID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		AddedAt:   l.AddedAt,
		Source:    SourceSession,
	}
}

// MergeReason explains why an anonymous line was not carried over.
type MergeReason string

const (
	ReasonOutOfStock      MergeReason = "out_of_stock"
	ReasonProductNotFound MergeReason = "product_not_found"
	ReasonQuantityLimit   MergeReason = "quantity_limit"
)

// MergeWarning describes an anonymous line skipped during a merge.
type MergeWarning struct {
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Reason    MergeReason `json:"reason"`
}

// MergeReport is the outcome of merging an anonymous cart into a user's cart.
type MergeReport struct {
	Merged  []Line         `json:"merged"`
	Skipped []MergeWarning `json:"skipped"`
}

// Partial reports whether some lines could not be merged.
func (r MergeReport) Partial() bool {
	return len(r.Skipped) > 0
}
