package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/storefront/pkg/catalog"
	"github.com/dmitrymomot/storefront/pkg/lock"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

// Resolver owns the logical cart of a request. It picks the session or the
// user store depending on whether the session is bound, and merges the
// anonymous cart into the user's cart on login.
type Resolver struct {
	sessions *session.Manager
	items    ItemStore
	catalog  catalog.Reader
	locker   lock.Locker
	retrier  *storage.Retrier
	logger   *slog.Logger
	config   Config
	now      func() time.Time
}

// NewResolver creates a Resolver. Without WithLocker writes are serialised
// per process only.
func NewResolver(sessions *session.Manager, items ItemStore, products catalog.Reader, opts ...Option) *Resolver {
	r := &Resolver{
		sessions: sessions,
		items:    items,
		catalog:  products,
		config:   DefaultConfig(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.locker == nil {
		r.locker = lock.NewMemoryLocker(lock.DefaultConfig())
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.config.MaxLineQuantity <= 0 {
		r.config.MaxLineQuantity = DefaultConfig().MaxLineQuantity
	}
	r.logger = r.logger.With(logger.Component("cart"))
	return r
}

// AddItem adds one unit of productID to the cart.
func (r *Resolver) AddItem(ctx context.Context, sess *session.Session, productID string) (Line, error) {
	if productID == "" {
		return Line{}, ErrInvalidProductID
	}

	var line Line
	err := r.run(ctx, sess, func(ctx context.Context, ls LineStore) error {
		var err error
		line, err = ls.Add(ctx, productID, 1, r.checkQuantity)
		return err
	})
	if err != nil {
		return Line{}, err
	}
	return line, nil
}

// ListItems returns the cart with availability recomputed from current stock.
func (r *Resolver) ListItems(ctx context.Context, sess *session.Session) (View, error) {
	var lines []Line
	err := r.run(ctx, sess, func(ctx context.Context, ls LineStore) error {
		var err error
		lines, err = ls.List(ctx)
		return err
	})
	if err != nil {
		return View{}, err
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}

	var products map[string]catalog.Product
	if err := r.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		products, err = r.catalog.GetMany(ctx, ids)
		return err
	}); err != nil {
		return View{}, err
	}

	view := View{Lines: make([]LineView, 0, len(lines)), Total: decimal.Zero}
	for _, l := range lines {
		lv := LineView{Line: l, AvailabilityStatus: Unavailable, Price: decimal.Zero, Subtotal: decimal.Zero}
		if p, ok := products[l.ProductID]; ok {
			lv.Title = p.Title
			lv.Category = p.Category
			lv.Thumbnail = p.Thumbnail
			lv.Price = p.Price
			lv.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			lv.AvailableQuantity = p.AvailableQuantity
			if p.CanSupply(l.Quantity) {
				lv.AvailabilityStatus = Available
			}
			view.Total = view.Total.Add(lv.Subtotal)
		}
		view.Lines = append(view.Lines, lv)
	}
	view.Length = len(view.Lines)
	return view, nil
}

// Increment changes the quantity of a line by delta. A line dropping to zero
// is deleted and removed is true. Positive deltas are checked against stock.
func (r *Resolver) Increment(ctx context.Context, sess *session.Session, lineID string, delta int) (line Line, removed bool, err error) {
	if delta == 0 {
		return Line{}, false, ErrInvalidDelta
	}

	err = r.run(ctx, sess, func(ctx context.Context, ls LineStore) error {
		var err error
		line, removed, err = ls.Adjust(ctx, lineID, delta, r.checkQuantity)
		return err
	})
	return line, removed, err
}

// Remove deletes a single line.
func (r *Resolver) Remove(ctx context.Context, sess *session.Session, lineID string) error {
	n, err := r.RemoveMany(ctx, sess, []string{lineID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLineNotFound
	}
	return nil
}

// RemoveMany deletes the given lines, ignoring ids that are not in the cart,
// and returns how many were removed.
func (r *Resolver) RemoveMany(ctx context.Context, sess *session.Session, lineIDs []string) (int, error) {
	if len(lineIDs) == 0 {
		return 0, ErrNoLines
	}

	var n int
	err := r.run(ctx, sess, func(ctx context.Context, ls LineStore) error {
		var err error
		n, err = ls.Remove(ctx, lineIDs)
		return err
	})
	return n, err
}

// DeleteUserCart removes every persistent item of the user.
func (r *Resolver) DeleteUserCart(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.withUserLock(ctx, userID, func(ctx context.Context) error {
		return r.retrier.Do(ctx, func(ctx context.Context) error {
			var err error
			n, err = r.items.DeleteByUser(ctx, userID)
			return err
		})
	})
	return n, err
}

// run executes op against the store that currently owns the session's cart.
// Bound sessions are handled under the user's lock, after finishing any merge
// an earlier login left incomplete.
func (r *Resolver) run(ctx context.Context, sess *session.Session, op func(ctx context.Context, ls LineStore) error) error {
	if !sess.IsAuthenticated() {
		err := op(ctx, r.sessionLines(sess.ID))
		if !errors.Is(err, errSessionBound) {
			return err
		}

		// A concurrent login bound the session; continue with the user's cart.
		if sess, err = r.sessions.Load(ctx, sess.ID); err != nil {
			return err
		}
		if !sess.IsAuthenticated() {
			return storage.ErrConflict
		}
	}

	userID := *sess.UserID
	return r.withUserLock(ctx, userID, func(ctx context.Context) error {
		if sess.HasCartLines() {
			if _, err := r.mergeLocked(ctx, sess.ID, userID); err != nil {
				return err
			}
		}
		return op(ctx, NewUserLines(r.items, userID, r.retrier))
	})
}

func (r *Resolver) sessionLines(id string) *SessionLines {
	sl := NewSessionLines(r.sessions, id)
	sl.now = r.now
	return sl
}

func (r *Resolver) withUserLock(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context) error) error {
	unlock, err := r.locker.Lock(ctx, lock.UserKey(userID.String()))
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			r.logger.WarnContext(ctx, "failed to release cart lock",
				logger.UserID(userID), logger.Error(err))
		}
	}()
	return fn(ctx)
}

// checkQuantity verifies a product can be held with quantity units.
func (r *Resolver) checkQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity > r.config.MaxLineQuantity {
		return ErrQuantityLimit
	}

	var p catalog.Product
	if err := r.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		p, err = r.catalog.Get(ctx, productID)
		return err
	}); err != nil {
		return err
	}

	if !p.CanSupply(quantity) {
		return ErrOutOfStock
	}
	return nil
}
