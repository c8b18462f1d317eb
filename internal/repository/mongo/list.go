package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/fitness-hub/internal/query"
	"alcyxob/fitness-hub/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// findByID decodes the document with the given _id into T.
func findByID[T any](ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) (*T, error) {
	return findOne[T](ctx, coll, bson.M{"_id": id})
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

// findList runs a list query built by the query package.
func findList[T any](ctx context.Context, coll *mongo.Collection, q query.List) ([]T, error) {
	cursor, err := coll.Find(ctx, q.Filter(), q.FindOptions())
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	items := []T{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, translate(err)
	}
	return items, nil
}

// insert stores doc and returns the generated ObjectID.
func insert(ctx context.Context, coll *mongo.Collection, doc any) (primitive.ObjectID, error) {
	result, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// setFields applies $set (plus updatedAt) to the document with the given _id.
func setFields(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	result, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) error {
	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ownedIndexes is shared by collections keyed by owner and date.
func ownedIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}, Options: options.Index()},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}, Options: options.Index()},
	}
}
