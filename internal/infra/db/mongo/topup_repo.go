// File: internal/infra/db/mongo/topup_repo.go
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
)

var _ repository.TopupRepository = (*TopupRepo)(nil)

type TopupRepo struct {
	col *mongo.Collection
}

func NewTopupRepo(db *mongo.Database) *TopupRepo {
	return &TopupRepo{col: db.Collection("topups")}
}

func (r *TopupRepo) Save(ctx context.Context, t *model.Topup) error {
	if t == nil || t.ID == "" {
		return domain.ErrInvalidArgument
	}
	doc, err := setDoc(t)
	if err != nil {
		return fmt.Errorf("Save topup marshal: %w", err)
	}
	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": t.ID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("Save topup: %w", err)
	}
	return nil
}

func (r *TopupRepo) ListByICCID(ctx context.Context, iccid string) ([]*model.Topup, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.col.Find(ctx, bson.M{"iccid": iccid}, opts)
	if err != nil {
		return nil, fmt.Errorf("ListByICCID topups: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*model.Topup
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("ListByICCID decode: %w", err)
	}
	return out, nil
}
