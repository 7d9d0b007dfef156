package clients

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
)

type Repository interface {
	FindByPhone(ctx context.Context, businessID, phone string) (models.Client, error)
	Create(ctx context.Context, client models.Client) error
	Update(ctx context.Context, id string, set map[string]interface{}) (models.Client, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) FindByPhone(ctx context.Context, businessID, phone string) (models.Client, error) {
	var out models.Client
	err := r.col.FindOne(ctx, bson.M{"businessId": businessID, "phone": phone}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return models.Client{}, ErrClientNotFound
	}
	if err != nil {
		return models.Client{}, err
	}
	return out, nil
}

func (r *MongoRepository) Create(ctx context.Context, client models.Client) error {
	_, err := r.col.InsertOne(ctx, client)
	if mongo.IsDuplicateKeyError(err) {
		return ErrPhoneTaken
	}
	return err
}

func (r *MongoRepository) Update(ctx context.Context, id string, set map[string]interface{}) (models.Client, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Client
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(set)}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return models.Client{}, ErrClientNotFound
	}
	if err != nil {
		return models.Client{}, err
	}
	return updated, nil
}
