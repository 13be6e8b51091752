// File: internal/infra/db/mongo/catalog_repo.go
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

var (
	_ repository.CountryRepository = (*CountryRepo)(nil)
	_ repository.RegionRepository  = (*RegionRepo)(nil)
)

type CountryRepo struct {
	col *mongo.Collection
}

func NewCountryRepo(db *mongo.Database) *CountryRepo {
	return &CountryRepo{col: db.Collection("countries")}
}

func (r *CountryRepo) Save(ctx context.Context, c *model.Country) error {
	if c == nil || c.Code == "" {
		return domain.ErrInvalidArgument
	}
	doc, err := setDoc(c)
	if err != nil {
		return fmt.Errorf("Save country marshal: %w", err)
	}
	// The sync pass owns every field except hidden; that one belongs to the
	// admin toggle and must survive the upsert.
	delete(doc, "hidden")
	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": c.Code},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("Save country: %w", err)
	}
	return nil
}

func (r *CountryRepo) FindByCode(ctx context.Context, code string) (*model.Country, error) {
	var c model.Country
	err := r.col.FindOne(ctx, bson.M{"_id": code}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindByCode country: %w", err)
	}
	return &c, nil
}

func (r *CountryRepo) List(ctx context.Context, includeHidden bool) ([]*model.Country, error) {
	filter := bson.M{}
	if !includeHidden {
		filter["hidden"] = bson.M{"$ne": true}
	}
	opts := options.Find().SetSort(bson.M{"name": 1})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("List countries: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*model.Country
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("List countries decode: %w", err)
	}
	return out, nil
}

func (r *CountryRepo) SetHidden(ctx context.Context, code string, hidden bool) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": code},
		bson.M{"$set": bson.M{"hidden": hidden}},
	)
	if err != nil {
		return fmt.Errorf("SetHidden country: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type RegionRepo struct {
	col *mongo.Collection
}

func NewRegionRepo(db *mongo.Database) *RegionRepo {
	return &RegionRepo{col: db.Collection("regions")}
}

func (r *RegionRepo) Save(ctx context.Context, reg *model.Region) error {
	if reg == nil || reg.Slug == "" {
		return domain.ErrInvalidArgument
	}
	doc, err := setDoc(reg)
	if err != nil {
		return fmt.Errorf("Save region marshal: %w", err)
	}
	delete(doc, "hidden")
	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": reg.Slug},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("Save region: %w", err)
	}
	return nil
}

func (r *RegionRepo) List(ctx context.Context, includeHidden bool) ([]*model.Region, error) {
	filter := bson.M{}
	if !includeHidden {
		filter["hidden"] = bson.M{"$ne": true}
	}
	opts := options.Find().SetSort(bson.M{"name": 1})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("List regions: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*model.Region
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("List regions decode: %w", err)
	}
	return out, nil
}

func (r *RegionRepo) SetHidden(ctx context.Context, slug string, hidden bool) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": slug},
		bson.M{"$set": bson.M{"hidden": hidden}},
	)
	if err != nil {
		return fmt.Errorf("SetHidden region: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
