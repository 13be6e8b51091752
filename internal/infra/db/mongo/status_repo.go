// File: internal/infra/db/mongo/status_repo.go
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
)

var _ repository.ProvisioningStatusRepository = (*StatusRepo)(nil)

// StatusRepo holds the provisioning-job progress documents the reconciler
// polls, keyed by order ID.
type StatusRepo struct {
	col *mongo.Collection
}

func NewStatusRepo(db *mongo.Database) *StatusRepo {
	return &StatusRepo{col: db.Collection("esim_order_status")}
}

func (r *StatusRepo) Get(ctx context.Context, orderID string) (*model.ProvisioningStatus, error) {
	var st model.ProvisioningStatus
	err := r.col.FindOne(ctx, bson.M{"_id": orderID}).Decode(&st)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("Get provisioning status: %w", err)
	}
	return &st, nil
}

func (r *StatusRepo) Set(ctx context.Context, st *model.ProvisioningStatus) error {
	if st == nil || st.OrderID == "" {
		return domain.ErrInvalidArgument
	}
	st.UpdatedAt = time.Now()
	doc, err := setDoc(st)
	if err != nil {
		return fmt.Errorf("Set provisioning status marshal: %w", err)
	}
	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": st.OrderID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("Set provisioning status: %w", err)
	}
	return nil
}
