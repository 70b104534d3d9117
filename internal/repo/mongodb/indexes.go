package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on. Creating an
// index that already exists with the same keys and options is a no-op on the server.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		CollAccounts: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_unique")},
		},
		CollPools: {
			{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}}, Options: options.Index().SetName("title_description_text")},
			{Keys: bson.D{{Key: "poolNumber", Value: -1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("pool_number_created")},
			{Keys: bson.D{{Key: "closingDate", Value: 1}}, Options: options.Index().SetName("closing_date")},
			{Keys: bson.D{{Key: "creator", Value: 1}}, Options: options.Index().SetName("creator")},
		},
		CollBids: {
			{Keys: bson.D{{Key: "supplier", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("supplier_created")},
		},
		CollTransactions: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("user_created")},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}, Options: options.Index().SetName("type_status_created")},
		},
		CollJobs: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "runAt", Value: 1}}, Options: options.Index().SetName("status_run_at")},
			{Keys: bson.D{{Key: "idempotencyKey", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true).SetName("idempotency_key_unique")},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
