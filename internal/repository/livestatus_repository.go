package repository

import (
	"context"
	"time"

	"exam-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type LiveStatusRepository struct {
	Col *mongo.Collection
}

func NewLiveStatusRepository(db *mongo.Database) *LiveStatusRepository {
	return &LiveStatusRepository{Col: db.Collection("live_status")}
}

// Create registers the presence record at attempt start and returns its id.
func (r *LiveStatusRepository) Create(ctx context.Context, status *models.LiveStatus) (string, error) {
	res, err := r.Col.InsertOne(ctx, status)
	if err != nil {
		return "", err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return "", nil
}

// Touch updates lastActive. Implements session.PresenceStore.
func (r *LiveStatusRepository) Touch(ctx context.Context, id string, at time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Col.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"lastActive": at}})
	return err
}

// SetState finalizes the presence record. Implements session.PresenceStore.
func (r *LiveStatusRepository) SetState(ctx context.Context, id string, state models.LiveState) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Col.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"status": state}})
	return err
}
