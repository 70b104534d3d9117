package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/transaction"
	"github.com/rjenterprise/poolhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type refDoc struct {
	Type string             `bson:"type"`
	ID   primitive.ObjectID `bson:"id"`
}

type transactionDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	Amount        float64            `bson:"amount"`
	User          primitive.ObjectID `bson:"user"`
	Type          string             `bson:"type"`
	Status        string             `bson:"status"`
	RelatedEntity refDoc             `bson:"related_entity"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d transactionDoc) toDomain() transaction.Transaction {
	return transaction.Transaction{
		ID:     d.ID.Hex(),
		Amount: d.Amount,
		User:   hexOrEmpty(d.User),
		Type:   transaction.Type(d.Type),
		Status: transaction.Status(d.Status),
		RelatedEntity: transaction.Ref{
			Kind: transaction.RefKind(d.RelatedEntity.Type),
			ID:   hexOrEmpty(d.RelatedEntity.ID),
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// TransactionsRepo only reads; payment flows write this collection elsewhere.
// Insert is kept for seeding and integration tests.
type TransactionsRepo struct {
	base
}

func NewTransactionsRepo(db *mongo.Database, prom *observability.Prom) *TransactionsRepo {
	return &TransactionsRepo{base{coll: db.Collection(CollTransactions), prom: prom}}
}

func (r *TransactionsRepo) Insert(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	if err := t.RelatedEntity.Validate(); err != nil {
		return transaction.Transaction{}, err
	}
	user, err := oid(t.User)
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("user: %w", err)
	}
	related, err := oid(t.RelatedEntity.ID)
	if err != nil {
		return transaction.Transaction{}, transaction.ErrInvalidRef
	}

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if t.Status == "" {
		t.Status = transaction.StatusPending
	}

	doc := transactionDoc{
		ID:            primitive.NewObjectID(),
		Amount:        t.Amount,
		User:          user,
		Type:          string(t.Type),
		Status:        string(t.Status),
		RelatedEntity: refDoc{Type: string(t.RelatedEntity.Kind), ID: related},
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	err = r.observe("transactions.insert", func() error {
		_, ierr := r.coll.InsertOne(ctx, doc)
		return ierr
	})
	if err != nil {
		return transaction.Transaction{}, err
	}
	return doc.toDomain(), nil
}

func (r *TransactionsRepo) ListByAccount(ctx context.Context, accountID string) ([]transaction.Transaction, error) {
	user, err := oid(accountID)
	if err != nil {
		return []transaction.Transaction{}, nil
	}

	var docs []transactionDoc
	err = r.observe("transactions.list_by_account", func() error {
		cur, ferr := r.coll.Find(ctx,
			bson.M{"user": user},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if ferr != nil {
			return ferr
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	out := make([]transaction.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func sumMatch(f transaction.SumFilter) bson.M {
	match := bson.M{}
	if f.Type != "" {
		match["type"] = string(f.Type)
	}
	if f.Status != "" {
		match["status"] = string(f.Status)
	}
	created := bson.M{}
	if !f.Since.IsZero() {
		created["$gte"] = f.Since.UTC()
	}
	if !f.Until.IsZero() {
		created["$lte"] = f.Until.UTC()
	}
	if len(created) > 0 {
		match["createdAt"] = created
	}
	return match
}

func (r *TransactionsRepo) SumAmount(ctx context.Context, f transaction.SumFilter) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: sumMatch(f)}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}

	var rows []struct {
		Total float64 `bson:"total"`
	}
	err := r.observe("transactions.sum_amount", func() error {
		cur, aerr := r.coll.Aggregate(ctx, pipeline)
		if aerr != nil {
			return aerr
		}
		return cur.All(ctx, &rows)
	})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
