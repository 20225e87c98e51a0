package cart

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/pkg/catalog"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/session"
)

// MergeOnBind moves the anonymous lines of a session that was just bound to
// userID into the user's persistent cart. Quantities are added to existing
// items, never overwritten. Lines that cannot be carried over are skipped and
// reported; they do not abort the merge. Calling it again after a complete
// merge is a no-op.
//
// Every line is added under its own id, which the persistent row records in
// the same write, and only then dropped from the session. A merge
// interrupted between the two writes is resumed by running it again; lines
// already carried over are recognised by id and not counted twice.
func (r *Resolver) MergeOnBind(ctx context.Context, sess *session.Session, userID uuid.UUID) (MergeReport, error) {
	var report MergeReport
	err := r.withUserLock(ctx, userID, func(ctx context.Context) error {
		var err error
		report, err = r.mergeLocked(ctx, sess.ID, userID)
		return err
	})
	return report, err
}

func (r *Resolver) mergeLocked(ctx context.Context, sessionID string, userID uuid.UUID) (MergeReport, error) {
	report := MergeReport{Merged: []Line{}, Skipped: []MergeWarning{}}

	cur, err := r.sessions.Load(ctx, sessionID)
	if err != nil {
		return report, err
	}
	switch {
	case !cur.IsAuthenticated():
		return report, ErrSessionNotBound
	case !cur.IsBoundTo(userID):
		return report, session.ErrAlreadyBoundToOtherUser
	case !cur.HasCartLines():
		return report, nil
	}

	userLines := NewUserLines(r.items, userID, r.retrier)
	for _, l := range cur.CartLines {
		merged, warning, err := r.mergeLine(ctx, userLines, l)
		if err != nil {
			r.logger.ErrorContext(ctx, "cart merge interrupted",
				logger.UserID(userID),
				logger.ProductID(l.ProductID),
				logger.Error(err),
			)
			return report, err
		}

		if _, err := r.sessions.Modify(ctx, sessionID, func(s *session.Session) (bool, error) {
			before := len(s.CartLines)
			s.CartLines = slices.DeleteFunc(s.CartLines, func(c session.CartLine) bool { return c.ID == l.ID })
			return len(s.CartLines) != before, nil
		}); err != nil {
			return report, err
		}

		if warning != nil {
			report.Skipped = append(report.Skipped, *warning)
			continue
		}
		report.Merged = append(report.Merged, merged)
	}

	if report.Partial() {
		r.logger.WarnContext(ctx, "cart merged partially",
			logger.UserID(userID),
			logger.Count(len(report.Skipped)),
		)
	}
	r.logger.InfoContext(ctx, "anonymous cart merged",
		logger.UserID(userID),
		logger.Count(len(report.Merged)),
	)
	return report, nil
}

// mergeLine adds one anonymous line to the user's cart. Availability
// problems come back as a warning; only store failures are errors.
func (r *Resolver) mergeLine(ctx context.Context, userLines *UserLines, l session.CartLine) (Line, *MergeWarning, error) {
	line, err := userLines.Merge(ctx, l, r.checkQuantity)
	if err == nil {
		return line, nil, nil
	}

	warning := &MergeWarning{ProductID: l.ProductID, Quantity: l.Quantity}
	switch {
	case errors.Is(err, ErrOutOfStock):
		warning.Reason = ReasonOutOfStock
	case errors.Is(err, catalog.ErrProductNotFound):
		warning.Reason = ReasonProductNotFound
	case errors.Is(err, ErrQuantityLimit):
		warning.Reason = ReasonQuantityLimit
	default:
		return Line{}, nil, err
	}
	return Line{}, warning, nil
}
