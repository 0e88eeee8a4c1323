package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fooddash/pkg/logger"
)

type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, db *mongo.Database) error
	Down        func(ctx context.Context, db *mongo.Database) error
}

type MigrationOptions struct {
	StockHistoryRetention time.Duration
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	log        *logger.Logger
}

func NewMigrator(db *mongo.Database, opts MigrationOptions, log *logger.Logger) *Migrator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Migrator{
		db:         db,
		migrations: getMigrations(opts),
		log:        log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Reverting migration: %s", migration.Description)

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}

		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection("migrations").ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func dropIndexes(collection string) func(ctx context.Context, db *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(collection).Indexes().DropAll(ctx)
		return err
	}
}

func dropIndex(collection, name string) func(ctx context.Context, db *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(collection).Indexes().DropOne(ctx, name)
		return err
	}
}

func getMigrations(opts MigrationOptions) []Migration {
	retention := opts.StockHistoryRetention
	if retention <= 0 {
		retention = 180 * 24 * time.Hour
	}

	return []Migration{
		{
			Version:     1,
			Description: "Create users indexes",
			Up:          createUsersIndexes,
			Down:        dropIndexes("users"),
		},
		{
			Version:     2,
			Description: "Create restaurants and menu items indexes",
			Up:          createRestaurantsIndexes,
			Down: func(ctx context.Context, db *mongo.Database) error {
				if err := dropIndexes("restaurants")(ctx, db); err != nil {
					return err
				}
				return dropIndexes("menu_items")(ctx, db)
			},
		},
		{
			Version:     3,
			Description: "Create orders indexes",
			Up:          createOrdersIndexes,
			Down:        dropIndexes("orders"),
		},
		{
			Version:     4,
			Description: "Create coupons indexes",
			Up:          createCouponsIndexes,
			Down:        dropIndexes("coupons"),
		},
		{
			Version:     5,
			Description: "Create loyalty transactions indexes with earned-once constraint",
			Up:          createLoyaltyIndexes,
			Down:        dropIndexes("loyalty_transactions"),
		},
		{
			Version:     6,
			Description: "Create reviews indexes with one review per order",
			Up:          createReviewsIndexes,
			Down:        dropIndexes("reviews"),
		},
		{
			Version:     7,
			Description: "Create notifications indexes",
			Up:          createNotificationsIndexes,
			Down:        dropIndexes("notifications"),
		},
		{
			Version:     8,
			Description: "Create stock movements indexes with retention",
			Up: func(ctx context.Context, db *mongo.Database) error {
				return createStockMovementsIndexes(ctx, db, retention)
			},
			Down: dropIndexes("stock_movements"),
		},
		{
			Version:     9,
			Description: "Create outbox indexes",
			Up:          createOutboxIndexes,
			Down:        dropIndexes("outbox"),
		},
		{
			Version:     10,
			Description: "Create unique stock movement reference index",
			Up:          createStockReferenceIndex,
			Down:        dropIndex("stock_movements", "uniq_reference"),
		},
	}
}

func createUsersIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "used_coupons.coupon_id", Value: 1}}},
	}

	_, err := db.Collection("users").Indexes().CreateMany(ctx, indexes)
	return err
}

func createRestaurantsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "rating.average", Value: -1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}
	if _, err := db.Collection("restaurants").Indexes().CreateMany(ctx, indexes); err != nil {
		return err
	}

	items := []mongo.IndexModel{
		{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "inventory.current_stock", Value: 1}}},
	}
	_, err := db.Collection("menu_items").Indexes().CreateMany(ctx, items)
	return err
}

func createOrdersIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "dispute.state", Value: 1}}},
	}

	_, err := db.Collection("orders").Indexes().CreateMany(ctx, indexes)
	return err
}

func createCouponsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "end_date", Value: 1}}},
	}

	_, err := db.Collection("coupons").Indexes().CreateMany(ctx, indexes)
	return err
}

func createLoyaltyIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "order_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_earned_per_order").
				SetPartialFilterExpression(bson.M{"type": "earned"}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "expires_at", Value: 1}, {Key: "expiry_processed", Value: 1}}},
	}

	_, err := db.Collection("loyalty_transactions").Indexes().CreateMany(ctx, indexes)
	return err
}

func createReviewsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "order_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_review_per_order"),
		},
		{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "moderation_status", Value: 1}}},
	}

	_, err := db.Collection("reviews").Indexes().CreateMany(ctx, indexes)
	return err
}

func createNotificationsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, err := db.Collection("notifications").Indexes().CreateMany(ctx, indexes)
	return err
}

func createStockMovementsIndexes(ctx context.Context, db *mongo.Database, retention time.Duration) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "date", Value: -1}}},
		{
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention.Seconds())),
		},
	}

	_, err := db.Collection("stock_movements").Indexes().CreateMany(ctx, indexes)
	return err
}

// Order stock movements carry a reference; manual adjustments do not.
func createStockReferenceIndex(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("stock_movements").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "reference", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName("uniq_reference").
			SetPartialFilterExpression(bson.M{"reference": bson.M{"$type": "string"}}),
	})
	return err
}

func createOutboxIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
		{Keys: bson.D{{Key: "order_id", Value: 1}}},
	}

	_, err := db.Collection("outbox").Indexes().CreateMany(ctx, indexes)
	return err
}
