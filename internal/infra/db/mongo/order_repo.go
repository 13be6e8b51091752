// File: internal/infra/db/mongo/order_repo.go
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

// Ensure interface compliance
var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo writes the two independent order copies: the global "orders"
// collection serves the public QR-page lookup, "user_esims" serves the
// buyer's history. Both writes are merge-upserts; neither is transactional
// with the other.
type OrderRepo struct {
	orders *mongo.Collection
	users  *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{
		orders: db.Collection("orders"),
		users:  db.Collection("user_esims"),
	}
}

func (r *OrderRepo) SaveGlobal(ctx context.Context, o *model.Order) error {
	if o.IsZero() {
		return domain.ErrInvalidArgument
	}
	doc, err := setDoc(o)
	if err != nil {
		return fmt.Errorf("SaveGlobal marshal: %w", err)
	}
	_, err = r.orders.UpdateOne(ctx,
		bson.M{"_id": o.ID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("SaveGlobal order: %w", err)
	}
	return nil
}

func (r *OrderRepo) SaveForUser(ctx context.Context, userID string, o *model.Order) error {
	if userID == "" || o.IsZero() {
		return domain.ErrInvalidArgument
	}
	copy := *o
	copy.UserID = userID
	doc, err := setDoc(&copy)
	if err != nil {
		return fmt.Errorf("SaveForUser marshal: %w", err)
	}
	_, err = r.users.UpdateOne(ctx,
		bson.M{"_id": o.ID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("SaveForUser order: %w", err)
	}
	return nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindByID order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) FindByICCID(ctx context.Context, iccid string) (*model.Order, error) {
	var o model.Order
	opts := options.FindOne().SetSort(bson.M{"createdAt": -1})
	err := r.orders.FindOne(ctx, bson.M{"iccid": iccid}, opts).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindByICCID order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.users.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("ListByUser orders: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*model.Order
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("ListByUser decode: %w", err)
	}
	return out, nil
}

func (r *OrderRepo) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Order, error) {
	filter := bson.M{
		"status":    model.OrderStatusPending,
		"createdAt": bson.M{"$lt": olderThan},
	}
	opts := options.Find().SetSort(bson.M{"createdAt": 1}).SetLimit(int64(limit))
	cursor, err := r.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("ListStalePending orders: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*model.Order
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("ListStalePending decode: %w", err)
	}
	return out, nil
}
