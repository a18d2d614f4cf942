package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/hivoco/flipbook-api/pkg/database"
	"github.com/hivoco/flipbook-api/pkg/models"
)

type MongoBrochures struct {
	Coll *mongo.Collection
}

func NewMongoBrochures(db *mongo.Database) *MongoBrochures {
	return &MongoBrochures{Coll: db.Collection(database.BrochureCollection)}
}

func (r *MongoBrochures) Insert(ctx context.Context, b *models.Brochure) error {
	if b.Images == nil {
		b.Images = []string{}
	}
	if _, err := r.Coll.InsertOne(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("insert brochure: %w", err)
	}
	return nil
}

func (r *MongoBrochures) GetByName(ctx context.Context, name string) (*models.Brochure, error) {
	var b models.Brochure
	if err := r.Coll.FindOne(ctx, bson.M{"name": name}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find brochure: %w", err)
	}
	return &b, nil
}

func (r *MongoBrochures) Exists(ctx context.Context, name string) (bool, error) {
	n, err := r.Coll.CountDocuments(ctx, bson.M{"name": name}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count brochure: %w", err)
	}
	return n > 0, nil
}

func (r *MongoBrochures) List(ctx context.Context, q BrochureListQuery) ([]models.Brochure, error) {
	dir := 1
	if q.Desc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: NormalizeSort(q.SortBy), Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(q.Offset)).
		SetLimit(int64(q.Limit))

	cur, err := r.Coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list brochures: %w", err)
	}
	out := make([]models.Brochure, 0, q.Limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode brochures: %w", err)
	}
	return out, nil
}

func (r *MongoBrochures) Count(ctx context.Context) (int64, error) {
	n, err := r.Coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count brochures: %w", err)
	}
	return n, nil
}

func (r *MongoBrochures) Update(ctx context.Context, b *models.Brochure) (bool, error) {
	images := b.Images
	if images == nil {
		images = []string{}
	}
	res, err := r.Coll.UpdateOne(ctx, bson.M{"name": b.Name}, bson.M{"$set": bson.M{
		"displayName": b.DisplayName,
		"personName":  b.PersonName,
		"totalPages":  b.TotalPages,
		"images":      images,
		"isLandScape": b.IsLandScape,
		"updatedAt":   b.UpdatedAt,
	}})
	if err != nil {
		return false, fmt.Errorf("update brochure: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoBrochures) Delete(ctx context.Context, name string) (bool, error) {
	res, err := r.Coll.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return false, fmt.Errorf("delete brochure: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoBrochures) Ping(ctx context.Context) error {
	return r.Coll.Database().Client().Ping(ctx, readpref.Primary())
}
