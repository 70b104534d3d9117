package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/account"
	"github.com/rjenterprise/poolhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type accountDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d accountDoc) toDomain() account.Account {
	role, ok := account.ParseRole(d.Role)
	if !ok {
		role = account.RoleUser
	}
	return account.Account{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         role,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type AccountsRepo struct {
	base
}

func NewAccountsRepo(db *mongo.Database, prom *observability.Prom) *AccountsRepo {
	return &AccountsRepo{base{coll: db.Collection(CollAccounts), prom: prom}}
}

func (r *AccountsRepo) Create(ctx context.Context, a account.Account) (account.Account, error) {
	doc := accountDoc{
		ID:        primitive.NewObjectID(),
		Username:  a.Username,
		Email:     a.Email,
		Password:  a.PasswordHash,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}

	err := r.observe("accounts.create", func() error {
		_, err := r.coll.InsertOne(ctx, doc)
		return err
	})
	if mongo.IsDuplicateKeyError(err) {
		// the server names the violated index in the message
		if strings.Contains(err.Error(), "username") {
			return account.Account{}, account.ErrUsernameTaken
		}
		return account.Account{}, account.ErrEmailTaken
	}
	if err != nil {
		return account.Account{}, fmt.Errorf("insert account: %w", err)
	}

	return doc.toDomain(), nil
}

func (r *AccountsRepo) findOne(ctx context.Context, op string, filter bson.M) (account.Account, error) {
	var doc accountDoc
	err := r.observe(op, func() error {
		return r.coll.FindOne(ctx, filter).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return account.Account{}, account.ErrNotFound
	}
	if err != nil {
		return account.Account{}, err
	}
	return doc.toDomain(), nil
}

func (r *AccountsRepo) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	return r.findOne(ctx, "accounts.get_by_email", bson.M{"email": email})
}

func (r *AccountsRepo) GetByID(ctx context.Context, id string) (account.Account, error) {
	objID, err := oid(id)
	if err != nil {
		return account.Account{}, account.ErrInvalidID
	}
	return r.findOne(ctx, "accounts.get_by_id", bson.M{"_id": objID})
}

func (r *AccountsRepo) UpdatePasswordHash(ctx context.Context, id, oldValue, newHash string) error {
	objID, err := oid(id)
	if err != nil {
		return account.ErrInvalidID
	}

	var res *mongo.UpdateResult
	err = r.observe("accounts.update_password", func() error {
		var uerr error
		res, uerr = r.coll.UpdateOne(ctx,
			bson.M{"_id": objID, "password": oldValue},
			bson.M{"$set": bson.M{"password": newHash, "updatedAt": time.Now().UTC()}},
		)
		return uerr
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (r *AccountsRepo) UpdateRole(ctx context.Context, id string, role account.Role) (account.Account, error) {
	objID, err := oid(id)
	if err != nil {
		return account.Account{}, account.ErrInvalidID
	}

	var doc accountDoc
	err = r.observe("accounts.update_role", func() error {
		return r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": objID},
			bson.M{"$set": bson.M{"role": string(role), "updatedAt": time.Now().UTC()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return account.Account{}, account.ErrNotFound
	}
	if err != nil {
		return account.Account{}, err
	}
	return doc.toDomain(), nil
}

func (r *AccountsRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.observe("accounts.count", func() error {
		var cerr error
		n, cerr = r.coll.CountDocuments(ctx, bson.D{})
		return cerr
	})
	return n, err
}
