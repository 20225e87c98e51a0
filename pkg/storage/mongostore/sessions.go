package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

type cartLineDoc struct {
	ID        string    `bson:"id"`
	ProductID string    `bson:"product_id"`
	Quantity  int       `bson:"quantity"`
	AddedAt   time.Time `bson:"added_at"`
}

type sessionDoc struct {
	ID        string        `bson:"_id"`
	UserID    string        `bson:"user_id,omitempty"`
	CartLines []cartLineDoc `bson:"cart_lines"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
	Version   int64         `bson:"version"`
}

func toSessionDoc(s *session.Session) sessionDoc {
	d := sessionDoc{
		ID:        s.ID,
		CartLines: make([]cartLineDoc, 0, len(s.CartLines)),
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Version:   s.Version,
	}
	if s.UserID != nil {
		d.UserID = s.UserID.String()
	}
	for _, l := range s.CartLines {
		d.CartLines = append(d.CartLines, cartLineDoc(l))
	}
	return d
}

func (d sessionDoc) toSession() (*session.Session, error) {
	s := &session.Session{
		ID:        d.ID,
		CartLines: make([]session.CartLine, 0, len(d.CartLines)),
		ExpiresAt: d.ExpiresAt,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Version:   d.Version,
	}
	if d.UserID != "" {
		uid, err := uuid.Parse(d.UserID)
		if err != nil {
			return nil, fmt.Errorf("session %s: malformed user_id: %w", d.ID, err)
		}
		s.UserID = &uid
	}
	for _, l := range d.CartLines {
		s.CartLines = append(s.CartLines, session.CartLine(l))
	}
	return s, nil
}

// SessionStore implements session.Store on a MongoDB collection.
type SessionStore struct {
	coll *mongo.Collection
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{coll: db.Collection(SessionsCollection)}
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.ID == "" {
		return session.ErrInvalidSession
	}
	if _, err := s.coll.InsertOne(ctx, toSessionDoc(sess)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return session.ErrSessionExists
		}
		return mapErr(err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	var d sessionDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, session.ErrSessionNotFound
		}
		return nil, mapErr(err)
	}
	return d.toSession()
}

// Update rewrites the document only while its version is unchanged.
func (s *SessionStore) Update(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.ID == "" {
		return session.ErrInvalidSession
	}

	d := toSessionDoc(sess)
	set := bson.M{"cart_lines": d.CartLines, "updated_at": d.UpdatedAt}
	update := bson.M{
		"$set": set,
		// Touch renews the expiry without a version bump; never move it back.
		"$max": bson.M{"expires_at": d.ExpiresAt},
		"$inc": bson.M{"version": 1},
	}
	if d.UserID != "" {
		set["user_id"] = d.UserID
	} else {
		update["$unset"] = bson.M{"user_id": ""}
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"expires_at": 1, "version": 1})

	var got sessionDoc
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": sess.ID, "version": sess.Version}, update, opts).Decode(&got)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, err := s.coll.CountDocuments(ctx, bson.M{"_id": sess.ID})
		if err != nil {
			return mapErr(err)
		}
		if n == 0 {
			return session.ErrSessionNotFound
		}
		return storage.ErrConflict
	}
	if err != nil {
		return mapErr(err)
	}

	sess.ExpiresAt = got.ExpiresAt
	sess.Version = got.Version
	return nil
}

func (s *SessionStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"expires_at": expiresAt}})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return mapErr(err)
}

func (s *SessionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*session.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"user_id": userID.String()}, opts)
	if err != nil {
		return nil, mapErr(err)
	}

	var docs []sessionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err)
	}

	result := make([]*session.Session, 0, len(docs))
	for _, d := range docs {
		sess, err := d.toSession()
		if err != nil {
			return nil, err
		}
		result = append(result, sess)
	}
	return result, nil
}

func (s *SessionStore) CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{
		"user_id":    userID.String(),
		"expires_at": bson.M{"$gt": now},
	})
	if err != nil {
		return 0, mapErr(err)
	}
	return int(n), nil
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"user_id": userID.String()})
	if err != nil {
		return 0, mapErr(err)
	}
	return int(res.DeletedCount), nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, mapErr(err)
	}
	return int(res.DeletedCount), nil
}
