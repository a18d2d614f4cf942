package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/hivoco/flipbook-api/pkg/database"
	"github.com/hivoco/flipbook-api/pkg/models"
)

type MongoMediaLinks struct {
	Coll *mongo.Collection
}

func NewMongoMediaLinks(db *mongo.Database) *MongoMediaLinks {
	return &MongoMediaLinks{Coll: db.Collection(database.MediaLinkCollection)}
}

func (r *MongoMediaLinks) Insert(ctx context.Context, ml *models.MediaLink) error {
	if _, err := r.Coll.InsertOne(ctx, ml); err != nil {
		return fmt.Errorf("insert media link: %w", err)
	}
	return nil
}

func (r *MongoMediaLinks) GetByID(ctx context.Context, id string) (*models.MediaLink, error) {
	var ml models.MediaLink
	if err := r.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&ml); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find media link: %w", err)
	}
	return &ml, nil
}

func (r *MongoMediaLinks) ListByBrochure(ctx context.Context, brochureName string, f MediaLinkFilter) ([]models.MediaLink, error) {
	filter := bson.M{"brochureName": brochureName}
	if f.PageNumber != nil {
		filter["pageNumber"] = *f.PageNumber
	}
	if f.LinkType != "" {
		filter["linkType"] = f.LinkType
	}
	if f.IsActive != nil {
		filter["isActive"] = *f.IsActive
	}

	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "createdAt", Value: -1}})
	cur, err := r.Coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list media links: %w", err)
	}
	out := []models.MediaLink{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode media links: %w", err)
	}
	return out, nil
}

func (r *MongoMediaLinks) Update(ctx context.Context, ml *models.MediaLink) (bool, error) {
	set := bson.M{
		"brochureName": ml.BrochureName,
		"pageNumber":   ml.PageNumber,
		"linkType":     ml.LinkType,
		"coordinates":  ml.Coordinates,
		"isImage":      ml.IsImage,
		"priority":     ml.Priority,
		"isActive":     ml.IsActive,
		"updatedAt":    ml.UpdatedAt,
	}
	unset := bson.M{}
	if ml.Link != "" {
		set["link"] = ml.Link
	} else {
		unset["link"] = ""
	}
	if len(ml.Images) > 0 {
		set["images"] = ml.Images
	} else {
		unset["images"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.Coll.UpdateOne(ctx, bson.M{"_id": ml.ID}, update)
	if err != nil {
		return false, fmt.Errorf("update media link: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoMediaLinks) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete media link: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoMediaLinks) DeleteByBrochure(ctx context.Context, brochureName string) (int64, error) {
	res, err := r.Coll.DeleteMany(ctx, bson.M{"brochureName": brochureName})
	if err != nil {
		return 0, fmt.Errorf("delete media links: %w", err)
	}
	return res.DeletedCount, nil
}

// IncrementClick uses $inc so concurrent clicks never lose updates.
func (r *MongoMediaLinks) IncrementClick(ctx context.Context, id string, at time.Time) (*models.MediaLink, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$inc": bson.M{"clickCount": 1},
		"$set": bson.M{"lastClickedAt": at},
	}

	var ml models.MediaLink
	if err := r.Coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&ml); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("increment click: %w", err)
	}
	return &ml, nil
}

func (r *MongoMediaLinks) ClickStats(ctx context.Context, brochureName string) ([]models.ClickStat, error) {
	filter := bson.M{}
	if brochureName != "" {
		filter["brochureName"] = brochureName
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "clickCount", Value: -1},
		{Key: "brochureName", Value: 1},
		{Key: "pageNumber", Value: 1},
	})

	cur, err := r.Coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("click stats query: %w", err)
	}
	var links []models.MediaLink
	if err := cur.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("decode click stats: %w", err)
	}

	out := make([]models.ClickStat, 0, len(links))
	for _, ml := range links {
		out = append(out, models.ClickStat{
			ID:            ml.ID,
			BrochureName:  ml.BrochureName,
			PageNumber:    ml.PageNumber,
			LinkType:      ml.LinkType,
			Link:          ml.Link,
			ClickCount:    ml.ClickCount,
			LastClickedAt: ml.LastClickedAt,
		})
	}
	return out, nil
}
