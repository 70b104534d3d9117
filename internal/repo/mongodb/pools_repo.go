package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/pool"
	"github.com/rjenterprise/poolhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// poolDoc is the read shape. poolNumber stays raw because legacy documents may
// hold it missing, null, or as a non-numeric value.
type poolDoc struct {
	ID          primitive.ObjectID   `bson:"_id"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Amount      float64              `bson:"amount"`
	ClosingDate time.Time            `bson:"closingDate"`
	Location    string               `bson:"location"`
	Creator     primitive.ObjectID   `bson:"creator"`
	Members     []primitive.ObjectID `bson:"members"`
	Status      string               `bson:"status"`
	PoolNumber  bson.RawValue        `bson:"poolNumber"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

// poolInsert is the write shape.
type poolInsert struct {
	ID          primitive.ObjectID   `bson:"_id"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Amount      float64              `bson:"amount"`
	ClosingDate time.Time            `bson:"closingDate"`
	Location    string               `bson:"location"`
	Creator     primitive.ObjectID   `bson:"creator"`
	Members     []primitive.ObjectID `bson:"members"`
	Status      string               `bson:"status"`
	PoolNumber  *int64               `bson:"poolNumber,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func poolNumberOf(rv bson.RawValue) *int64 {
	n, ok := rv.AsInt64OK()
	if !ok {
		return nil
	}
	return &n
}

func (d poolDoc) toDomain() pool.Pool {
	members := make([]string, 0, len(d.Members))
	for _, m := range d.Members {
		members = append(members, m.Hex())
	}
	status := pool.Status(d.Status)
	if status == "" {
		status = pool.StatusOpen
	}
	return pool.Pool{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Amount:      d.Amount,
		ClosingDate: d.ClosingDate,
		Location:    d.Location,
		Creator:     hexOrEmpty(d.Creator),
		Members:     members,
		Status:      status,
		PoolNumber:  poolNumberOf(d.PoolNumber),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// numbered matches the BSON number types poolNumberOf can read. Decimal128 is
// left out, so such a value counts as unnumbered and gets backfilled.
var numbered = bson.M{"poolNumber": bson.M{"$type": bson.A{"int", "long", "double"}}}

// unnumbered matches missing, null and non-integer poolNumber values alike.
var unnumbered = bson.M{"poolNumber": bson.M{"$not": bson.M{"$type": bson.A{"int", "long", "double"}}}}

type PoolsRepo struct {
	base
}

func NewPoolsRepo(db *mongo.Database, prom *observability.Prom) *PoolsRepo {
	return &PoolsRepo{base{coll: db.Collection(CollPools), prom: prom}}
}

func (r *PoolsRepo) Create(ctx context.Context, p pool.Pool) (pool.Pool, error) {
	creator, err := oid(p.Creator)
	if err != nil {
		return pool.Pool{}, fmt.Errorf("creator: %w", err)
	}

	doc := poolInsert{
		ID:          primitive.NewObjectID(),
		Title:       p.Title,
		Description: p.Description,
		Amount:      p.Amount,
		ClosingDate: p.ClosingDate,
		Location:    p.Location,
		Creator:     creator,
		Members:     []primitive.ObjectID{},
		Status:      string(p.Status),
		PoolNumber:  p.PoolNumber,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	err = r.observe("pools.create", func() error {
		_, ierr := r.coll.InsertOne(ctx, doc)
		return ierr
	})
	if err != nil {
		return pool.Pool{}, fmt.Errorf("insert pool: %w", err)
	}

	p.ID = doc.ID.Hex()
	if p.Members == nil {
		p.Members = []string{}
	}
	return p, nil
}

func (r *PoolsRepo) GetByID(ctx context.Context, id string) (pool.Pool, error) {
	objID, err := oid(id)
	if err != nil {
		return pool.Pool{}, pool.ErrInvalidID
	}

	var doc poolDoc
	err = r.observe("pools.get_by_id", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return pool.Pool{}, pool.ErrNotFound
	}
	if err != nil {
		return pool.Pool{}, err
	}
	return doc.toDomain(), nil
}

func (r *PoolsRepo) List(ctx context.Context, f pool.ListFilter) ([]pool.Pool, error) {
	filter := bson.M{}
	if f.Search != "" {
		filter["$text"] = bson.M{"$search": f.Search}
	}
	if f.CreatorID != "" {
		creator, err := oid(f.CreatorID)
		if err != nil {
			return []pool.Pool{}, nil
		}
		filter["creator"] = creator
	}

	opts := options.Find().SetSort(bson.D{{Key: "poolNumber", Value: -1}, {Key: "createdAt", Value: -1}})

	var docs []poolDoc
	err := r.observe("pools.list", func() error {
		cur, ferr := r.coll.Find(ctx, filter, opts)
		if ferr != nil {
			return ferr
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}

	out := make([]pool.Pool, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// AddMember appends accountID only when it is not already present, in one
// document update. A miss is then split into not-found and already-member.
func (r *PoolsRepo) AddMember(ctx context.Context, poolID, accountID string) (pool.Pool, error) {
	objID, err := oid(poolID)
	if err != nil {
		return pool.Pool{}, pool.ErrInvalidID
	}
	member, err := oid(accountID)
	if err != nil {
		return pool.Pool{}, fmt.Errorf("member: %w", err)
	}

	var doc poolDoc
	err = r.observe("pools.add_member", func() error {
		return r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": objID, "members": bson.M{"$ne": member}},
			bson.M{
				"$addToSet": bson.M{"members": member},
				"$set":      bson.M{"updatedAt": time.Now().UTC()},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	})
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return pool.Pool{}, err
	}

	var n int64
	err = r.observe("pools.add_member.exists", func() error {
		var cerr error
		n, cerr = r.coll.CountDocuments(ctx, bson.M{"_id": objID}, options.Count().SetLimit(1))
		return cerr
	})
	if err != nil {
		return pool.Pool{}, err
	}
	if n == 0 {
		return pool.Pool{}, pool.ErrNotFound
	}
	return pool.Pool{}, pool.ErrAlreadyMember
}

func (r *PoolsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.observe("pools.delete_expired", func() error {
		res, derr := r.coll.DeleteMany(ctx, bson.M{"closingDate": bson.M{"$lt": now.UTC()}})
		if derr != nil {
			return derr
		}
		n = res.DeletedCount
		return nil
	})
	return n, err
}

func (r *PoolsRepo) MaxPoolNumber(ctx context.Context) (int64, bool, error) {
	var doc struct {
		PoolNumber bson.RawValue `bson:"poolNumber"`
	}

	err := r.observe("pools.max_pool_number", func() error {
		return r.coll.FindOne(ctx,
			numbered,
			options.FindOne().
				SetSort(bson.D{{Key: "poolNumber", Value: -1}}).
				SetProjection(bson.M{"poolNumber": 1}),
		).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	n := poolNumberOf(doc.PoolNumber)
	if n == nil {
		return 0, false, nil
	}
	return *n, true, nil
}

func (r *PoolsRepo) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "pools.count", bson.D{})
}

// CountCreatedBetween counts pools created in [since, until].
func (r *PoolsRepo) CountCreatedBetween(ctx context.Context, since, until time.Time) (int64, error) {
	return r.count(ctx, "pools.count_between", bson.M{"createdAt": bson.M{"$gte": since.UTC(), "$lte": until.UTC()}})
}

func (r *PoolsRepo) count(ctx context.Context, op string, filter any) (int64, error) {
	var n int64
	err := r.observe(op, func() error {
		var cerr error
		n, cerr = r.coll.CountDocuments(ctx, filter)
		return cerr
	})
	return n, err
}

func (r *PoolsRepo) ListUnnumbered(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"_id": 1})

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := r.observe("pools.list_unnumbered", func() error {
		cur, ferr := r.coll.Find(ctx, unnumbered, opts)
		if ferr != nil {
			return ferr
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID.Hex()
	}
	return ids, nil
}

func (r *PoolsRepo) AssignPoolNumber(ctx context.Context, id string, n int64) (bool, error) {
	objID, err := oid(id)
	if err != nil {
		return false, pool.ErrInvalidID
	}

	filter := bson.M{"_id": objID}
	for k, v := range unnumbered {
		filter[k] = v
	}

	var modified int64
	err = r.observe("pools.assign_pool_number", func() error {
		res, uerr := r.coll.UpdateOne(ctx, filter, bson.M{
			"$set": bson.M{"poolNumber": n, "updatedAt": time.Now().UTC()},
		})
		if uerr != nil {
			return uerr
		}
		modified = res.ModifiedCount
		return nil
	})
	return modified == 1, err
}
