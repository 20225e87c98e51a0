package cart

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

// QuantityCheck validates that productID may be held with quantity units.
type QuantityCheck func(ctx context.Context, productID string, quantity int) error

// LineStore is the cart storage owning the lines of one request: the
// anonymous session itself or the bound user's persistent cart.
type LineStore interface {
	List(ctx context.Context) ([]Line, error)

	// Add puts quantity more units of productID in the cart. check runs
	// against the quantity the cart would hold afterwards.
	Add(ctx context.Context, productID string, quantity int, check QuantityCheck) (Line, error)

	// Adjust changes a line by delta. check runs only when delta is positive.
	// A line reaching zero is deleted and removed is true.
	Adjust(ctx context.Context, lineID string, delta int, check QuantityCheck) (line Line, removed bool, err error)

	// Remove deletes the given lines and returns how many existed.
	Remove(ctx context.Context, lineIDs []string) (int, error)
}

// SessionLines stores cart lines inside an anonymous session.
// Every write is an optimistic update of the session record.
type SessionLines struct {
	sessions  *session.Manager
	sessionID string
	now       func() time.Time
}

// NewSessionLines returns the lines of an anonymous session.
func NewSessionLines(sessions *session.Manager, sessionID string) *SessionLines {
	return &SessionLines{sessions: sessions, sessionID: sessionID, now: time.Now}
}

func (s *SessionLines) List(ctx context.Context) ([]Line, error) {
	sess, err := s.sessions.Load(ctx, s.sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsAuthenticated() {
		return nil, errSessionBound
	}

	lines := make([]Line, 0, len(sess.CartLines))
	for _, l := range sess.CartLines {
		lines = append(lines, lineFromSession(l))
	}
	return lines, nil
}

func (s *SessionLines) Add(ctx context.Context, productID string, quantity int, check QuantityCheck) (Line, error) {
	var result session.CartLine
	_, err := s.sessions.Modify(ctx, s.sessionID, func(sess *session.Session) (bool, error) {
		if sess.IsAuthenticated() {
			return false, errSessionBound
		}

		idx := slices.IndexFunc(sess.CartLines, func(l session.CartLine) bool { return l.ProductID == productID })
		current := 0
		if idx >= 0 {
			current = sess.CartLines[idx].Quantity
		}
		if err := check(ctx, productID, current+quantity); err != nil {
			return false, err
		}

		if idx >= 0 {
			sess.CartLines[idx].Quantity += quantity
			result = sess.CartLines[idx]
			return true, nil
		}

		result = session.CartLine{
			ID:        ulid.Make().String(),
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   s.now(),
		}
		sess.CartLines = append(sess.CartLines, result)
		return true, nil
	})
	if err != nil {
		return Line{}, err
	}
	return lineFromSession(result), nil
}

func (s *SessionLines) Adjust(ctx context.Context, lineID string, delta int, check QuantityCheck) (Line, bool, error) {
	var (
		result  session.CartLine
		removed bool
	)
	_, err := s.sessions.Modify(ctx, s.sessionID, func(sess *session.Session) (bool, error) {
		if sess.IsAuthenticated() {
			return false, errSessionBound
		}

		idx := slices.IndexFunc(sess.CartLines, func(l session.CartLine) bool { return l.ID == lineID })
		if idx < 0 {
			return false, ErrLineNotFound
		}

		line := sess.CartLines[idx]
		line.Quantity += delta
		if delta > 0 {
			if err := check(ctx, line.ProductID, line.Quantity); err != nil {
				return false, err
			}
		}

		result, removed = line, line.Quantity <= 0
		if removed {
			sess.CartLines = slices.Delete(sess.CartLines, idx, idx+1)
		} else {
			sess.CartLines[idx] = line
		}
		return true, nil
	})
	if err != nil {
		return Line{}, false, err
	}
	return lineFromSession(result), removed, nil
}

func (s *SessionLines) Remove(ctx context.Context, lineIDs []string) (int, error) {
	var n int
	_, err := s.sessions.Modify(ctx, s.sessionID, func(sess *session.Session) (bool, error) {
		if sess.IsAuthenticated() {
			return false, errSessionBound
		}

		before := len(sess.CartLines)
		sess.CartLines = slices.DeleteFunc(sess.CartLines, func(l session.CartLine) bool {
			return slices.Contains(lineIDs, l.ID)
		})
		n = before - len(sess.CartLines)
		return n > 0, nil
	})
	return n, err
}

// UserLines stores cart lines as persistent items of a user.
// Callers serialise writes per user; the store operations are atomic on
// their own as well.
type UserLines struct {
	items   ItemStore
	userID  uuid.UUID
	retrier *storage.Retrier
}

// NewUserLines returns the persistent lines of userID. A nil retrier
// makes a single attempt per call.
func NewUserLines(items ItemStore, userID uuid.UUID, retrier *storage.Retrier) *UserLines {
	return &UserLines{items: items, userID: userID, retrier: retrier}
}

func (u *UserLines) List(ctx context.Context) ([]Line, error) {
	var items []Item
	if err := u.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		items, err = u.items.ListByUser(ctx, u.userID)
		return err
	}); err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, lineFromItem(it))
	}
	return lines, nil
}

func (u *UserLines) Add(ctx context.Context, productID string, quantity int, check QuantityCheck) (Line, error) {
	current, err := u.quantityOf(ctx, productID)
	if err != nil {
		return Line{}, err
	}
	if err := check(ctx, productID, current+quantity); err != nil {
		return Line{}, err
	}

	var it Item
	if err := u.retrier.Once(ctx, func(ctx context.Context) error {
		var err error
		it, err = u.items.Increment(ctx, u.userID, productID, quantity)
		return err
	}); err != nil {
		return Line{}, err
	}
	return lineFromItem(it), nil
}

// Merge adds an anonymous session line to the user's cart at most once.
// A line an earlier attempt already carried over is returned as is
// without running check.
func (u *UserLines) Merge(ctx context.Context, l session.CartLine, check QuantityCheck) (Line, error) {
	current, err := u.byProduct(ctx, l.ProductID)
	switch {
	case errors.Is(err, ErrLineNotFound):
	case err != nil:
		return Line{}, err
	case slices.Contains(current.MergedLines, l.ID):
		return lineFromItem(current), nil
	}
	if err := check(ctx, l.ProductID, current.Quantity+l.Quantity); err != nil {
		return Line{}, err
	}

	var it Item
	if err := u.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		it, _, err = u.items.Merge(ctx, u.userID, l.ProductID, l.ID, l.Quantity)
		return err
	}); err != nil {
		return Line{}, err
	}
	return lineFromItem(it), nil
}

func (u *UserLines) Adjust(ctx context.Context, lineID string, delta int, check QuantityCheck) (Line, bool, error) {
	it, err := u.owned(ctx, lineID)
	if err != nil {
		return Line{}, false, err
	}
	if delta > 0 {
		if err := check(ctx, it.ProductID, it.Quantity+delta); err != nil {
			return Line{}, false, err
		}
	}

	var removed bool
	if err := u.retrier.Once(ctx, func(ctx context.Context) error {
		var err error
		it, removed, err = u.items.Adjust(ctx, it.ID, delta)
		return err
	}); err != nil {
		return Line{}, false, err
	}
	return lineFromItem(it), removed, nil
}

func (u *UserLines) Remove(ctx context.Context, lineIDs []string) (int, error) {
	var n int
	for _, id := range lineIDs {
		it, err := u.owned(ctx, id)
		if errors.Is(err, ErrLineNotFound) {
			continue
		}
		if err != nil {
			return n, err
		}

		err = u.retrier.Do(ctx, func(ctx context.Context) error {
			return u.items.Delete(ctx, it.ID)
		})
		switch {
		case err == nil:
			n++
		case errors.Is(err, ErrLineNotFound):
			// A retried delete that already landed.
		default:
			return n, err
		}
	}
	return n, nil
}

// owned loads an item by line id and checks it belongs to the user.
func (u *UserLines) owned(ctx context.Context, lineID string) (Item, error) {
	id, err := uuid.Parse(lineID)
	if err != nil {
		return Item{}, ErrLineNotFound
	}

	var it Item
	if err := u.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		it, err = u.items.Get(ctx, id)
		return err
	}); err != nil {
		return Item{}, err
	}
	if it.UserID != u.userID {
		return Item{}, ErrLineNotFound
	}
	return it, nil
}

func (u *UserLines) byProduct(ctx context.Context, productID string) (Item, error) {
	var it Item
	err := u.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		it, err = u.items.GetByProduct(ctx, u.userID, productID)
		return err
	})
	return it, err
}

func (u *UserLines) quantityOf(ctx context.Context, productID string) (int, error) {
	it, err := u.byProduct(ctx, productID)
	switch {
	case errors.Is(err, ErrLineNotFound):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return it.Quantity, nil
}
