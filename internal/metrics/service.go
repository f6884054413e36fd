// Package metrics exposes the aggregate dashboard queries consumed by the
// report generators, without leaking MongoDB internals to callers.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"autoshop_telegram_bot/internal/domain"
)

// Service order status values stored in the service_orders collection.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusCanceled  = "canceled"
)

type aggregateCollection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
}

// nowFunc is overridable for tests.
var nowFunc = time.Now

// ServiceService computes dashboard metrics over the service orders collection.
type ServiceService struct {
	orders aggregateCollection
}

// NewServiceService constructs a ServiceService backed by the provided
// service orders collection.
func NewServiceService(orders aggregateCollection) *ServiceService {
	return &ServiceService{orders: orders}
}

// GetDashboardMetrics aggregates service-order counts and revenue for the
// requested period, optionally scoped to one center.
func (s *ServiceService) GetDashboardMetrics(ctx context.Context, centerID string, period string) (domain.DashboardMetrics, error) {
	if s == nil || s.orders == nil {
		return domain.DashboardMetrics{}, errors.New("service metrics service is not initialized")
	}
	if ctx == nil {
		return domain.DashboardMetrics{}, errors.New("context is required")
	}

	start, err := PeriodStart(nowFunc().UTC(), period)
	if err != nil {
		return domain.DashboardMetrics{}, err
	}

	base := bson.M{"created_at": bson.M{"$gte": start}}
	if centerID != "" {
		base["center_id"] = centerID
	}

	metrics := domain.DashboardMetrics{}

	total, err := s.orders.CountDocuments(ctx, base)
	if err != nil {
		return domain.DashboardMetrics{}, fmt.Errorf("count service orders: %w", err)
	}
	metrics.TotalServices = total

	for status, target := range map[string]*int64{
		StatusCompleted: &metrics.CompletedServices,
		StatusPending:   &metrics.PendingServices,
		StatusCanceled:  &metrics.CanceledServices,
	} {
		filter := bson.M{"created_at": bson.M{"$gte": start}, "status": status}
		if centerID != "" {
			filter["center_id"] = centerID
		}

		count, countErr := s.orders.CountDocuments(ctx, filter)
		if countErr != nil {
			return domain.DashboardMetrics{}, fmt.Errorf("count %s service orders: %w", status, countErr)
		}
		*target = count
	}

	match := bson.M{"created_at": bson.M{"$gte": start}, "status": StatusCompleted}
	if centerID != "" {
		match["center_id"] = centerID
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"revenue": bson.M{"$sum": "$total"},
			"average": bson.M{"$avg": "$total"},
		}}},
	}

	cursor, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.DashboardMetrics{}, fmt.Errorf("aggregate revenue: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Revenue float64 `bson:"revenue"`
		Average float64 `bson:"average"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return domain.DashboardMetrics{}, fmt.Errorf("decode revenue aggregate: %w", err)
	}

	if len(results) > 0 {
		metrics.Revenue = results[0].Revenue
		metrics.AverageTicket = results[0].Average
	}

	return metrics, nil
}

// PeriodStart returns the UTC start of the requested reporting window.
func PeriodStart(now time.Time, period string) (time.Time, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case "", domain.PeriodToday:
		return midnight, nil
	case domain.PeriodWeek:
		weekday := int(midnight.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return midnight.AddDate(0, 0, -(weekday - 1)), nil
	case domain.PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported period %q", period)
	}
}
