package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/swiftserve/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return &mongoRepository{
		collection: db.Collection(cartsCollection),
	}
}

func (m mongoRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var doc cartDocument

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return doc.toDomain()
}

func (m mongoRepository) AddItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	itemDoc, err := newCartItemDocument(item)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	// Matches only a cart that does not already hold the pair. When the cart
	// exists and holds it, the upsert collides with the unique user_id index.
	filter := bson.M{
		"user_id": userID,
		"items": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"vendor_id":    item.VendorID,
			"service_name": item.ServiceName,
		}}},
	}
	update := bson.M{
		"$push":        bson.M{"items": itemDoc},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}

	doc, err := m.findOneAndUpsert(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDuplicateItem
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}
	return doc.toDomain()
}

func (m mongoRepository) RemoveItem(ctx context.Context, userID, vendorID, serviceName string) (*domain.Cart, error) {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"vendor_id": vendorID, "service_name": serviceName},
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc cartDocument
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to remove item: %w", err)
	}

	return doc.toDomain()
}

func (m mongoRepository) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	now := time.Now().UTC()
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set":         bson.M{"items": bson.A{}, "updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}

	doc, err := m.findOneAndUpsert(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	return doc.toDomain()
}

func (m mongoRepository) EmptyCart(ctx context.Context, userID string) (*domain.Cart, error) {
	filter := bson.M{"user_id": userID}
	update := bson.M{"$set": bson.M{"items": bson.A{}, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc cartDocument
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to empty cart: %w", err)
	}

	return doc.toDomain()
}

// findOneAndUpsert runs an upserting findAndModify. Two racing upserts for the
// same user collide on the unique user_id index; the loser retries once as a
// plain update against the cart the winner created.
func (m mongoRepository) findOneAndUpsert(ctx context.Context, filter, update bson.M) (*cartDocument, error) {
	var doc cartDocument
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return &doc, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, err
	}

	retry := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := m.collection.FindOneAndUpdate(ctx, filter, update, retry).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
