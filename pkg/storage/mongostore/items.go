package mongostore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

type itemDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	ProductID string    `bson:"product_id"`
	Quantity  int       `bson:"quantity"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`

	MergedLines []string `bson:"merged_lines,omitempty"`
}

func (d itemDoc) toItem() (cart.Item, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return cart.Item{}, fmt.Errorf("cart item: malformed id %q: %w", d.ID, err)
	}
	uid, err := uuid.Parse(d.UserID)
	if err != nil {
		return cart.Item{}, fmt.Errorf("cart item %s: malformed user_id: %w", d.ID, err)
	}
	return cart.Item{
		ID:          id,
		UserID:      uid,
		ProductID:   d.ProductID,
		Quantity:    d.Quantity,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		MergedLines: d.MergedLines,
	}, nil
}

// ItemStore implements cart.ItemStore. Increments are single $inc upserts
// against the unique (user_id, product_id) index, so concurrent adds never
// lose an update.
type ItemStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewItemStore(db *mongo.Database) *ItemStore {
	return &ItemStore{coll: db.Collection(CartItemsCollection), now: time.Now}
}

func (s *ItemStore) Increment(ctx context.Context, userID uuid.UUID, productID string, delta int) (cart.Item, error) {
	if delta <= 0 {
		return cart.Item{}, cart.ErrInvalidDelta
	}

	now := s.now()
	filter := bson.M{"user_id": userID.String(), "product_id": productID}
	update := bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var d itemDoc
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&d)
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts raced to insert; the loser now matches the winner's row.
		err = s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&d)
	}
	if err != nil {
		return cart.Item{}, mapErr(err)
	}
	return d.toItem()
}

// Merge is a $inc upsert guarded by {merged_lines: {$ne: lineID}} that
// pushes lineID in the same update. When the row already holds lineID the
// filter misses and the upsert collides with the unique index; the row is
// then read back to tell a replay from a racing insert.
func (s *ItemStore) Merge(ctx context.Context, userID uuid.UUID, productID, lineID string, delta int) (cart.Item, bool, error) {
	if delta <= 0 {
		return cart.Item{}, false, cart.ErrInvalidDelta
	}

	now := s.now()
	filter := bson.M{
		"user_id":      userID.String(),
		"product_id":   productID,
		"merged_lines": bson.M{"$ne": lineID},
	}
	update := bson.M{
		"$inc":  bson.M{"quantity": delta},
		"$set":  bson.M{"updated_at": now},
		"$push": bson.M{"merged_lines": lineID},
		"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	for range 2 {
		var d itemDoc
		err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&d)
		if err == nil {
			it, err := d.toItem()
			return it, err == nil, err
		}
		if !mongo.IsDuplicateKeyError(err) {
			return cart.Item{}, false, mapErr(err)
		}

		it, err := s.GetByProduct(ctx, userID, productID)
		switch {
		case errors.Is(err, cart.ErrLineNotFound):
			continue
		case err != nil:
			return cart.Item{}, false, err
		case slices.Contains(it.MergedLines, lineID):
			return it, false, nil
		}
	}
	return cart.Item{}, false, fmt.Errorf("merge cart line %s: %w", lineID, storage.ErrConflict)
}

func (s *ItemStore) Get(ctx context.Context, id uuid.UUID) (cart.Item, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

func (s *ItemStore) GetByProduct(ctx context.Context, userID uuid.UUID, productID string) (cart.Item, error) {
	return s.findOne(ctx, bson.M{"user_id": userID.String(), "product_id": productID})
}

func (s *ItemStore) findOne(ctx context.Context, filter bson.M) (cart.Item, error) {
	var d itemDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return cart.Item{}, cart.ErrLineNotFound
		}
		return cart.Item{}, mapErr(err)
	}
	return d.toItem()
}

func (s *ItemStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]cart.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "product_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"user_id": userID.String()}, opts)
	if err != nil {
		return nil, mapErr(err)
	}

	var docs []itemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err)
	}

	items := make([]cart.Item, 0, len(docs))
	for _, d := range docs {
		it, err := d.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Adjust applies delta with $inc and deletes the row when it reaches zero.
func (s *ItemStore) Adjust(ctx context.Context, id uuid.UUID, delta int) (cart.Item, bool, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updated_at": s.now()},
	}

	var d itemDoc
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, update, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return cart.Item{}, false, cart.ErrLineNotFound
		}
		return cart.Item{}, false, mapErr(err)
	}

	it, err := d.toItem()
	if err != nil {
		return cart.Item{}, false, err
	}
	if it.Quantity > 0 {
		return it, false, nil
	}

	// Guarded by quantity so a concurrent increment that already lifted
	// the row above zero keeps it.
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": d.ID, "quantity": bson.M{"$lte": 0}}); err != nil {
		return cart.Item{}, false, mapErr(err)
	}
	return it, true, nil
}

func (s *ItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (s *ItemStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"user_id": userID.String()})
	if err != nil {
		return 0, mapErr(err)
	}
	return int(res.DeletedCount), nil
}
