package metrics

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"autoshop_telegram_bot/internal/domain"
)

// ProductService computes catalog snapshots over the products collection.
type ProductService struct {
	products aggregateCollection
}

// NewProductService constructs a ProductService backed by the provided
// products collection.
func NewProductService(products aggregateCollection) *ProductService {
	return &ProductService{products: products}
}

// GetDashboardStats returns a point-in-time snapshot of the product catalog,
// optionally scoped to one center.
func (s *ProductService) GetDashboardStats(ctx context.Context, centerID string) (domain.ProductStats, error) {
	if s == nil || s.products == nil {
		return domain.ProductStats{}, errors.New("product metrics service is not initialized")
	}
	if ctx == nil {
		return domain.ProductStats{}, errors.New("context is required")
	}

	stats := domain.ProductStats{}

	total, err := s.products.CountDocuments(ctx, scoped(bson.M{}, centerID))
	if err != nil {
		return domain.ProductStats{}, fmt.Errorf("count products: %w", err)
	}
	stats.TotalProducts = total

	active, err := s.products.CountDocuments(ctx, scoped(bson.M{"active": true}, centerID))
	if err != nil {
		return domain.ProductStats{}, fmt.Errorf("count active products: %w", err)
	}
	stats.ActiveProducts = active

	lowStock, err := s.products.CountDocuments(ctx, scoped(bson.M{
		"stock_quantity": bson.M{"$gt": 0},
		"$expr":          bson.M{"$lte": bson.A{"$stock_quantity", "$min_stock"}},
	}, centerID))
	if err != nil {
		return domain.ProductStats{}, fmt.Errorf("count low stock products: %w", err)
	}
	stats.LowStockProducts = lowStock

	outOfStock, err := s.products.CountDocuments(ctx, scoped(bson.M{"stock_quantity": bson.M{"$lte": 0}}, centerID))
	if err != nil {
		return domain.ProductStats{}, fmt.Errorf("count out of stock products: %w", err)
	}
	stats.OutOfStock = outOfStock

	match := scoped(bson.M{}, centerID)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"inventory_value": bson.M{"$sum": bson.M{
				"$multiply": bson.A{"$stock_quantity", "$cost_price"},
			}},
		}}},
	}

	cursor, err := s.products.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.ProductStats{}, fmt.Errorf("aggregate inventory value: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		InventoryValue float64 `bson:"inventory_value"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return domain.ProductStats{}, fmt.Errorf("decode inventory aggregate: %w", err)
	}

	if len(results) > 0 {
		stats.InventoryValue = results[0].InventoryValue
	}

	return stats, nil
}

func scoped(filter bson.M, centerID string) bson.M {
	if centerID != "" {
		filter["center_id"] = centerID
	}
	return filter
}
