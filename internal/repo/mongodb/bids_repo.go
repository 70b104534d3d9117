package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/bid"
	"github.com/rjenterprise/poolhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bidDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Amount    float64            `bson:"amount"`
	Pool      primitive.ObjectID `bson:"pool"`
	Supplier  primitive.ObjectID `bson:"supplier"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d bidDoc) toDomain() bid.Bid {
	return bid.Bid{
		ID:        d.ID.Hex(),
		Amount:    d.Amount,
		Pool:      hexOrEmpty(d.Pool),
		Supplier:  hexOrEmpty(d.Supplier),
		Status:    bid.Status(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type BidsRepo struct {
	base
}

func NewBidsRepo(db *mongo.Database, prom *observability.Prom) *BidsRepo {
	return &BidsRepo{base{coll: db.Collection(CollBids), prom: prom}}
}

func (r *BidsRepo) Create(ctx context.Context, b bid.Bid) (bid.Bid, error) {
	poolID, err := oid(b.Pool)
	if err != nil {
		return bid.Bid{}, fmt.Errorf("pool: %w", err)
	}
	supplier, err := oid(b.Supplier)
	if err != nil {
		return bid.Bid{}, fmt.Errorf("supplier: %w", err)
	}

	doc := bidDoc{
		ID:        primitive.NewObjectID(),
		Amount:    b.Amount,
		Pool:      poolID,
		Supplier:  supplier,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	err = r.observe("bids.create", func() error {
		_, ierr := r.coll.InsertOne(ctx, doc)
		return ierr
	})
	if err != nil {
		return bid.Bid{}, fmt.Errorf("insert bid: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *BidsRepo) ListBySupplier(ctx context.Context, supplierID string) ([]bid.Bid, error) {
	supplier, err := oid(supplierID)
	if err != nil {
		return []bid.Bid{}, nil
	}

	var docs []bidDoc
	err = r.observe("bids.list_by_supplier", func() error {
		cur, ferr := r.coll.Find(ctx,
			bson.M{"supplier": supplier},
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

	out := make([]bid.Bid, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *BidsRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.observe("bids.count", func() error {
		var cerr error
		n, cerr = r.coll.CountDocuments(ctx, bson.D{})
		return cerr
	})
	return n, err
}
