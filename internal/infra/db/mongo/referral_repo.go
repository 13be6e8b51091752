// File: internal/infra/db/mongo/referral_repo.go
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
)

var _ repository.ReferralRepository = (*ReferralRepo)(nil)

type ReferralRepo struct {
	col *mongo.Collection
}

func NewReferralRepo(db *mongo.Database) *ReferralRepo {
	return &ReferralRepo{col: db.Collection("referral_codes")}
}

func (r *ReferralRepo) Save(ctx context.Context, rc *model.ReferralCode) error {
	if rc == nil || rc.Code == "" {
		return domain.ErrInvalidArgument
	}
	_, err := r.col.InsertOne(ctx, rc)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("Save referral: %w", err)
	}
	return nil
}

func (r *ReferralRepo) FindByCode(ctx context.Context, code string) (*model.ReferralCode, error) {
	var rc model.ReferralCode
	err := r.col.FindOne(ctx, bson.M{"_id": code}).Decode(&rc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindByCode referral: %w", err)
	}
	return &rc, nil
}

func (r *ReferralRepo) FindByOwner(ctx context.Context, ownerID string) (*model.ReferralCode, error) {
	var rc model.ReferralCode
	err := r.col.FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&rc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindByOwner referral: %w", err)
	}
	return &rc, nil
}

func (r *ReferralRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return fmt.Errorf("DeleteByOwner referral: %w", err)
	}
	return nil
}

func (r *ReferralRepo) IncrementUsage(ctx context.Context, code string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": code},
		bson.M{"$inc": bson.M{"usageCount": 1}},
	)
	if err != nil {
		return fmt.Errorf("IncrementUsage referral: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ReferralRepo) ListAll(ctx context.Context) ([]*model.ReferralCode, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("ListAll referrals: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*model.ReferralCode
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("ListAll referrals decode: %w", err)
	}
	return out, nil
}
