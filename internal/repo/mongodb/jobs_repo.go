package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/job"
	"github.com/rjenterprise/poolhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// jobDoc keys jobs by their uuid string. The payload is kept as JSON text so
// it round-trips byte-for-byte into the codec.
type jobDoc struct {
	ID             string     `bson:"_id"`
	Type           string     `bson:"type"`
	Payload        string     `bson:"payload"`
	Status         string     `bson:"status"`
	Attempts       int        `bson:"attempts"`
	MaxAttempts    int        `bson:"maxAttempts"`
	RunAt          time.Time  `bson:"runAt"`
	LockedAt       *time.Time `bson:"lockedAt,omitempty"`
	LockedBy       *string    `bson:"lockedBy,omitempty"`
	LastError      *string    `bson:"lastError,omitempty"`
	IdempotencyKey *string    `bson:"idempotencyKey,omitempty"`
	CreatedAt      time.Time  `bson:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt"`
}

func jobToDoc(j job.Job) jobDoc {
	return jobDoc{
		ID:             j.ID,
		Type:           j.Type,
		Payload:        string(j.Payload),
		Status:         string(j.Status),
		Attempts:       j.Attempts,
		MaxAttempts:    j.MaxAttempts,
		RunAt:          j.RunAt,
		LockedAt:       j.LockedAt,
		LockedBy:       j.LockedBy,
		LastError:      j.LastError,
		IdempotencyKey: j.IdempotencyKey,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
}

func (d jobDoc) toDomain() job.Job {
	return job.Job{
		ID:             d.ID,
		Type:           d.Type,
		Payload:        json.RawMessage(d.Payload),
		Status:         job.Status(d.Status),
		Attempts:       d.Attempts,
		MaxAttempts:    d.MaxAttempts,
		RunAt:          d.RunAt,
		LockedAt:       d.LockedAt,
		LockedBy:       d.LockedBy,
		LastError:      d.LastError,
		IdempotencyKey: d.IdempotencyKey,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type JobsRepo struct {
	base
}

func NewJobsRepo(db *mongo.Database, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{base{coll: db.Collection(CollJobs), prom: prom}}
}

func (r *JobsRepo) Create(ctx context.Context, j job.Job) (job.Job, error) {
	err := r.observe("jobs.create", func() error {
		_, ierr := r.coll.InsertOne(ctx, jobToDoc(j))
		return ierr
	})
	if mongo.IsDuplicateKeyError(err) {
		return job.Job{}, job.ErrDuplicate
	}
	if err != nil {
		return job.Job{}, fmt.Errorf("insert job: %w", err)
	}
	return j, nil
}

// ClaimNext atomically moves the oldest runnable pending job to processing.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string, now time.Time) (job.Job, error) {
	now = now.UTC()
	filter := bson.M{
		"status": string(job.StatusPending),
		"runAt":  bson.M{"$lte": now},
		"$expr":  bson.M{"$lt": bson.A{"$attempts", "$maxAttempts"}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":    string(job.StatusProcessing),
			"lockedAt":  now,
			"lockedBy":  workerID,
			"updatedAt": now,
		},
		"$inc": bson.M{"attempts": 1},
	}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "runAt", Value: 1}, {Key: "createdAt", Value: 1}}).
		SetReturnDocument(options.After)

	var doc jobDoc
	err := r.observe("jobs.claim_next", func() error {
		return r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return job.Job{}, job.ErrNotFound
	}
	if err != nil {
		return job.Job{}, err
	}
	return doc.toDomain(), nil
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	return r.finish(ctx, "jobs.mark_done", id, bson.M{
		"$set":   bson.M{"status": string(job.StatusDone), "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"lockedAt": "", "lockedBy": "", "lastError": ""},
	})
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id, errMsg string) error {
	return r.finish(ctx, "jobs.mark_failed", id, bson.M{
		"$set": bson.M{
			"status":    string(job.StatusFailed),
			"lastError": errMsg,
			"updatedAt": time.Now().UTC(),
		},
		"$unset": bson.M{"lockedAt": "", "lockedBy": ""},
	})
}

func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	return r.finish(ctx, "jobs.reschedule", id, bson.M{
		"$set": bson.M{
			"status":    string(job.StatusPending),
			"runAt":     runAt.UTC(),
			"lastError": errMsg,
			"updatedAt": time.Now().UTC(),
		},
		"$unset": bson.M{"lockedAt": "", "lockedBy": ""},
	})
}

func (r *JobsRepo) finish(ctx context.Context, op, id string, update bson.M) error {
	var matched int64
	err := r.observe(op, func() error {
		res, uerr := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
		if uerr != nil {
			return uerr
		}
		matched = res.MatchedCount
		return nil
	})
	if err != nil {
		return err
	}
	if matched == 0 {
		return job.ErrNotFound
	}
	return nil
}

// Retry puts a failed job back in the queue with a fresh attempt budget.
func (r *JobsRepo) Retry(ctx context.Context, id string) error {
	now := time.Now().UTC()

	var matched int64
	err := r.observe("jobs.retry", func() error {
		res, uerr := r.coll.UpdateOne(ctx,
			bson.M{"_id": id, "status": string(job.StatusFailed)},
			bson.M{"$set": bson.M{
				"status":    string(job.StatusPending),
				"attempts":  0,
				"runAt":     now,
				"updatedAt": now,
			}},
		)
		if uerr != nil {
			return uerr
		}
		matched = res.MatchedCount
		return nil
	})
	if err != nil {
		return err
	}
	if matched == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return job.ErrNotFailed
}

// RequeueStale releases processing jobs whose lock is older than lockTTL.
// Jobs with attempts left go back to pending; exhausted ones are failed so an
// admin retry can pick them up.
func (r *JobsRepo) RequeueStale(ctx context.Context, lockTTL time.Duration, now time.Time) (int64, error) {
	now = now.UTC()
	stale := func(expr bson.M) bson.M {
		return bson.M{
			"status":   string(job.StatusProcessing),
			"lockedAt": bson.M{"$lt": now.Add(-lockTTL)},
			"$expr":    expr,
		}
	}

	var n int64
	err := r.observe("jobs.requeue_stale", func() error {
		failed, uerr := r.coll.UpdateMany(ctx,
			stale(bson.M{"$gte": bson.A{"$attempts", "$maxAttempts"}}),
			bson.M{
				"$set": bson.M{
					"status":    string(job.StatusFailed),
					"lastError": job.LockExpiredError,
					"updatedAt": now,
				},
				"$unset": bson.M{"lockedAt": "", "lockedBy": ""},
			},
		)
		if uerr != nil {
			return uerr
		}

		requeued, uerr := r.coll.UpdateMany(ctx,
			stale(bson.M{"$lt": bson.A{"$attempts", "$maxAttempts"}}),
			bson.M{
				"$set":   bson.M{"status": string(job.StatusPending), "updatedAt": now},
				"$unset": bson.M{"lockedAt": "", "lockedBy": ""},
			},
		)
		if uerr != nil {
			return uerr
		}

		n = failed.ModifiedCount + requeued.ModifiedCount
		return nil
	})
	return n, err
}

func (r *JobsRepo) GetByID(ctx context.Context, id string) (job.Job, error) {
	var doc jobDoc
	err := r.observe("jobs.get_by_id", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return job.Job{}, job.ErrNotFound
	}
	if err != nil {
		return job.Job{}, err
	}
	return doc.toDomain(), nil
}
