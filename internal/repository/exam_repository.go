package repository

import (
	"context"
	"errors"

	"exam-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("document not found")

type ExamRepository struct {
	Col *mongo.Collection
}

func NewExamRepository(db *mongo.Database) *ExamRepository {
	return &ExamRepository{Col: db.Collection("tests")}
}

// FindAll returns every exam definition in insertion order.
func (r *ExamRepository) FindAll(ctx context.Context) ([]models.ExamDefinition, error) {
	cur, err := r.Col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var exams []models.ExamDefinition
	for cur.Next(ctx) {
		var e models.ExamDefinition
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, cur.Err()
}

func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.ExamDefinition, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var exam models.ExamDefinition
	err = r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&exam)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	exam.ID = id
	return &exam, nil
}

func (r *ExamRepository) Create(ctx context.Context, exam *models.ExamDefinition) error {
	res, err := r.Col.InsertOne(ctx, exam)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		exam.ID = oid.Hex()
	}
	return nil
}
