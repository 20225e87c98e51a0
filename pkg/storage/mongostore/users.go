package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/storefront/pkg/identity"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Username     string    `bson:"username"`
	PasswordHash []byte    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d userDoc) toUser() (*identity.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("user: malformed id %q: %w", d.ID, err)
	}
	return &identity.User{
		ID:           id,
		Email:        d.Email,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}, nil
}

// UserStorage implements identity.Storage. Uniqueness of email and username
// comes from the indexes created by EnsureIndexes.
type UserStorage struct {
	coll *mongo.Collection
}

func NewUserStorage(db *mongo.Database) *UserStorage {
	return &UserStorage{coll: db.Collection(UsersCollection)}
}

func (s *UserStorage) Create(ctx context.Context, user *identity.User) error {
	_, err := s.coll.InsertOne(ctx, userDoc{
		ID:           user.ID.String(),
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return identity.ErrUserExists
	}
	return mapErr(err)
}

func (s *UserStorage) GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

func (s *UserStorage) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStorage) GetByUsername(ctx context.Context, username string) (*identity.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *UserStorage) findOne(ctx context.Context, filter bson.M) (*identity.User, error) {
	var d userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, identity.ErrUserNotFound
		}
		return nil, mapErr(err)
	}
	return d.toUser()
}

func (s *UserStorage) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	return mapErr(err)
}
