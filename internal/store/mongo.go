package store

import (
	"context"
	"fmt"
	"regexp"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meteolab/weather-forecast-service/internal/weather"
)

// Mongo persists stored queries in a single MongoDB collection. It is the
// production implementation of the weather.Store contract.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	ready  atomic.Bool
}

// NewMongo connects to MongoDB and verifies reachability with a ping bounded
// by ctx. On ping failure the connection is torn down and an error returned;
// the caller decides whether to run without persistence.
func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	m := &Mongo{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	m.ready.Store(true)
	return m, nil
}

// Save inserts one stored query document.
func (m *Mongo) Save(ctx context.Context, doc weather.StoredQuery) error {
	if !m.ready.Load() {
		return weather.ErrStoreUnavailable
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert stored query: %w", err)
	}
	return nil
}

// History returns current-weather documents whose city matches the pattern
// case-insensitively, most recent first, capped at limit.
func (m *Mongo) History(ctx context.Context, city string, limit int64) ([]weather.StoredQuery, error) {
	if !m.ready.Load() {
		return nil, weather.ErrStoreUnavailable
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "query_time", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.D{{Key: "_id", Value: 0}})

	cur, err := m.coll.Find(ctx, historyFilter(city), opts)
	if err != nil {
		return nil, fmt.Errorf("find stored queries: %w", err)
	}

	var docs []weather.StoredQuery
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode stored queries: %w", err)
	}
	return docs, nil
}

// historyFilter matches the city as a case-insensitive substring and keeps
// only current-weather documents.
func historyFilter(city string) bson.D {
	return bson.D{
		{Key: "city", Value: primitive.Regex{Pattern: regexp.QuoteMeta(city), Options: "i"}},
		{Key: "type", Value: weather.QueryTypeCurrent},
	}
}

// Disconnect marks the store unavailable and closes the connection.
func (m *Mongo) Disconnect(ctx context.Context) error {
	m.ready.Store(false)
	return m.client.Disconnect(ctx)
}
