package dataset

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
)

const mongoBatchSize = 1000

// MongoSource reads the dataset from a MongoDB collection whose documents
// use the CSV column names as keys.
type MongoSource struct {
	uri        string
	database   string
	collection string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewMongoSource returns a Source over uri/database/collection.
func NewMongoSource(uri, database, collection string, timeout time.Duration, logger *zap.Logger) *MongoSource {
	if database == "" {
		database = "postcodes"
	}
	if collection == "" {
		collection = "localities"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MongoSource{uri: uri, database: database, collection: collection, timeout: timeout, logger: logger}
}

func (s *MongoSource) Name() string { return "mongo:" + s.database + "." + s.collection }

func (s *MongoSource) connect(ctx context.Context) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func (s *MongoSource) Load(ctx context.Context) ([]models.LocationRecord, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			s.logger.Error("Error disconnecting MongoDB", zap.Error(err))
		}
	}()

	coll := client.Database(s.database).Collection(s.collection)
	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetBatchSize(mongoBatchSize))
	if err != nil {
		return nil, fmt.Errorf("find locations: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.LocationRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	return out, nil
}

// ImportRecords upserts rows keyed by postcode, locality and state, then
// makes sure the lookup index exists.
func (s *MongoSource) ImportRecords(ctx context.Context, rows []models.LocationRecord, progress func(int)) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			s.logger.Error("Error disconnecting MongoDB", zap.Error(err))
		}
	}()

	coll := client.Database(s.database).Collection(s.collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "postcode", Value: 1}, {Key: "locality", Value: 1}, {Key: "state", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("postcode_locality_state"),
	})
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	for start := 0; start < len(rows); start += mongoBatchSize {
		end := start + mongoBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := make([]mongo.WriteModel, 0, end-start)
		for i := start; i < end; i++ {
			r := rows[i]
			filter := bson.M{"postcode": r.Postcode, "locality": r.Locality, "state": r.State}
			batch = append(batch, mongo.NewReplaceOneModel().
				SetFilter(filter).
				SetReplacement(r).
				SetUpsert(true))
		}
		if _, err := coll.BulkWrite(ctx, batch, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("bulk write rows %d-%d: %w", start, end, err)
		}
		if progress != nil {
			progress(end - start)
		}
	}

	s.logger.Info("Imported records into MongoDB",
		zap.String("collection", s.Name()),
		zap.Int("rows", len(rows)))
	return nil
}
