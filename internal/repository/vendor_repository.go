package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type vendorRepository struct {
	collection *mongo.Collection
}

func NewVendorRepository(db *mongo.Database) VendorRepository {
	return &vendorRepository{
		collection: db.Collection(vendorsCollection),
	}
}

// VendorNames accepts both ObjectID hex ids and plain string ids, since
// bookings keep whatever vendorId the client sent.
func (r vendorRepository) VendorNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	keys := make(bson.A, 0, len(ids)*2)
	for _, id := range ids {
		keys = append(keys, id)
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			keys = append(keys, oid)
		}
	}

	opts := options.Find().SetProjection(bson.M{"name": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": keys}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find vendors: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ID   interface{} `bson:"_id"`
			Name string      `bson:"name"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode vendor: %w", err)
		}
		switch id := doc.ID.(type) {
		case primitive.ObjectID:
			names[id.Hex()] = doc.Name
		case string:
			names[id] = doc.Name
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("vendor cursor: %w", err)
	}
	return names, nil
}
