package repository

import (
	"context"

	"exam-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ResultRepository struct {
	Col *mongo.Collection
}

func NewResultRepository(db *mongo.Database) *ResultRepository {
	return &ResultRepository{Col: db.Collection("results")}
}

// CountByUserAndExam counts persisted attempts, the authoritative input of
// the attempt-limit guard.
func (r *ResultRepository) CountByUserAndExam(ctx context.Context, userID, examID string) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{"userId": userID, "examId": examID})
}

func (r *ResultRepository) FindByExam(ctx context.Context, examID string) ([]models.Result, error) {
	cur, err := r.Col.Find(ctx, bson.M{"examId": examID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var results []models.Result
	for cur.Next(ctx) {
		var res models.Result
		if err := cur.Decode(&res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, cur.Err()
}

func (r *ResultRepository) FindByUserAndExam(ctx context.Context, userID, examID string) ([]models.Result, error) {
	cur, err := r.Col.Find(ctx, bson.M{"userId": userID, "examId": examID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var results []models.Result
	for cur.Next(ctx) {
		var res models.Result
		if err := cur.Decode(&res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, cur.Err()
}

// CreateResult inserts the result document and returns its generated id.
// Implements session.ResultStore.
func (r *ResultRepository) CreateResult(ctx context.Context, result *models.Result) (string, error) {
	res, err := r.Col.InsertOne(ctx, result)
	if err != nil {
		return "", err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return "", nil
}
