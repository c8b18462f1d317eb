package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetTimeout(defaultTimeout) // Per-operation timeout; exceeded operations surface as transient errors

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary node to verify the connection.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	err = client.Ping(pingCtx, readpref.Primary())
	if err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Failures are
// returned per collection so the caller can log them; none is fatal.
func EnsureIndexes(ctx context.Context, db *mongo.Database) map[string]error {
	failures := map[string]error{}
	for name, models := range map[string][]mongo.IndexModel{
		userCollectionName:         userIndexes(),
		trainerCollectionName:      trainerIndexes(),
		appointmentCollectionName:  appointmentIndexes(),
		workoutCollectionName:      ownedIndexes(),
		nutritionCollectionName:    ownedIndexes(),
		mealPlanCollectionName:     planIndexes(),
		workoutPlanCollectionName:  planIndexes(),
		paymentCollectionName:      paymentIndexes(),
		subscriptionCollectionName: subscriptionIndexes(),
	} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			failures[name] = err
		}
	}
	return failures
}
