// File: internal/infra/db/mongo/plan_repo.go
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

var _ repository.PlanRepository = (*PlanRepo)(nil)

// PlanRepo spreads the catalog over three collections split by capability.
// A plan lives in exactly one of them; Save moves it when its capability
// changed since the last sync.
type PlanRepo struct {
	standard  *mongo.Collection
	unlimited *mongo.Collection
	sms       *mongo.Collection
}

func NewPlanRepo(db *mongo.Database) *PlanRepo {
	return &PlanRepo{
		standard:  db.Collection("dataplans"),
		unlimited: db.Collection("dataplans-unlimited"),
		sms:       db.Collection("dataplans-sms"),
	}
}

func (r *PlanRepo) all() []*mongo.Collection {
	return []*mongo.Collection{r.standard, r.unlimited, r.sms}
}

func (r *PlanRepo) colFor(c model.PlanCapability) *mongo.Collection {
	switch c {
	case model.CapabilityUnlimited:
		return r.unlimited
	case model.CapabilitySMS:
		return r.sms
	default:
		return r.standard
	}
}

func (r *PlanRepo) Save(ctx context.Context, p *model.Plan) error {
	if p.IsZero() {
		return domain.ErrInvalidArgument
	}
	doc, err := setDoc(p)
	if err != nil {
		return fmt.Errorf("Save plan marshal: %w", err)
	}
	home := r.colFor(p.Capability)
	_, err = home.UpdateOne(ctx,
		bson.M{"_id": p.Slug},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("Save plan: %w", err)
	}
	// evict a stale copy left behind by a capability change
	for _, col := range r.all() {
		if col != home {
			_, _ = col.DeleteOne(ctx, bson.M{"_id": p.Slug})
		}
	}
	return nil
}

func (r *PlanRepo) FindBySlug(ctx context.Context, slug string) (*model.Plan, error) {
	for _, col := range r.all() {
		var p model.Plan
		err := col.FindOne(ctx, bson.M{"_id": slug}).Decode(&p)
		if err == nil {
			return &p, nil
		}
		if err != mongo.ErrNoDocuments {
			return nil, fmt.Errorf("FindBySlug plan: %w", err)
		}
	}
	return nil, domain.ErrNotFound
}

func (r *PlanRepo) ListByCountry(ctx context.Context, countryCode string, capability model.PlanCapability) ([]*model.Plan, error) {
	filter := bson.M{"countryCodes": countryCode}
	cols := r.all()
	if capability != "" {
		cols = []*mongo.Collection{r.colFor(capability)}
	}
	return r.find(ctx, cols, filter)
}

func (r *PlanRepo) ListForTopup(ctx context.Context, countryCode string) ([]*model.Plan, error) {
	filter := bson.M{"availableForTopup": true}
	if countryCode != "" {
		filter["countryCodes"] = countryCode
	}
	return r.find(ctx, r.all(), filter)
}

func (r *PlanRepo) ListAll(ctx context.Context) ([]*model.Plan, error) {
	return r.find(ctx, r.all(), bson.M{})
}

func (r *PlanRepo) Delete(ctx context.Context, slug string) error {
	deleted := false
	for _, col := range r.all() {
		res, err := col.DeleteOne(ctx, bson.M{"_id": slug})
		if err != nil {
			return fmt.Errorf("Delete plan: %w", err)
		}
		if res.DeletedCount > 0 {
			deleted = true
		}
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PlanRepo) find(ctx context.Context, cols []*mongo.Collection, filter bson.M) ([]*model.Plan, error) {
	opts := options.Find().SetSort(bson.M{"priceCents": 1})
	var out []*model.Plan
	for _, col := range cols {
		cursor, err := col.Find(ctx, filter, opts)
		if err != nil {
			return nil, fmt.Errorf("find plans: %w", err)
		}
		var batch []*model.Plan
		if err := cursor.All(ctx, &batch); err != nil {
			return nil, fmt.Errorf("find plans decode: %w", err)
		}
		out = append(out, batch...)
	}
	return out, nil
}
