package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"autoshop_telegram_bot/internal/domain"
)

type fakeAggregateCollection struct {
	countFn    func(filter bson.M) (int64, error)
	aggDocs    []interface{}
	aggErr     error
	countCalls []bson.M
	aggCalls   int
}

func (f *fakeAggregateCollection) CountDocuments(_ context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	doc, ok := filter.(bson.M)
	if !ok {
		return 0, errors.New("unexpected filter type")
	}

	f.countCalls = append(f.countCalls, doc)

	if f.countFn == nil {
		return 0, nil
	}
	return f.countFn(doc)
}

func (f *fakeAggregateCollection) Aggregate(_ context.Context, _ interface{}, _ ...*options.AggregateOptions) (*mongo.Cursor, error) {
	f.aggCalls++

	if f.aggErr != nil {
		return nil, f.aggErr
	}

	return mongo.NewCursorFromDocuments(f.aggDocs, nil, nil)
}

func TestGetDashboardMetricsAggregatesCountsAndRevenue(t *testing.T) {
	coll := &fakeAggregateCollection{
		countFn: func(filter bson.M) (int64, error) {
			switch filter["status"] {
			case StatusCompleted:
				return 7, nil
			case StatusPending:
				return 2, nil
			case StatusCanceled:
				return 1, nil
			default:
				return 10, nil
			}
		},
		aggDocs: []interface{}{
			bson.D{{Key: "revenue", Value: 1234.5}, {Key: "average", Value: 176.36}},
		},
	}

	svc := NewServiceService(coll)

	metrics, err := svc.GetDashboardMetrics(context.Background(), "center-1", domain.PeriodToday)
	if err != nil {
		t.Fatalf("GetDashboardMetrics returned error: %v", err)
	}

	if metrics.TotalServices != 10 || metrics.CompletedServices != 7 || metrics.PendingServices != 2 || metrics.CanceledServices != 1 {
		t.Fatalf("unexpected counts: %+v", metrics)
	}

	if metrics.Revenue != 1234.5 {
		t.Fatalf("expected revenue 1234.5, got %v", metrics.Revenue)
	}

	if metrics.AverageTicket != 176.36 {
		t.Fatalf("expected average ticket 176.36, got %v", metrics.AverageTicket)
	}

	for _, call := range coll.countCalls {
		if call["center_id"] != "center-1" {
			t.Fatalf("expected center scope on every count, got %v", call)
		}
	}
}

func TestGetDashboardMetricsEmptyAggregateYieldsZeros(t *testing.T) {
	coll := &fakeAggregateCollection{}

	svc := NewServiceService(coll)

	metrics, err := svc.GetDashboardMetrics(context.Background(), "", domain.PeriodWeek)
	if err != nil {
		t.Fatalf("GetDashboardMetrics returned error: %v", err)
	}

	if metrics != (domain.DashboardMetrics{}) {
		t.Fatalf("expected zero metrics from empty data, got %+v", metrics)
	}
}

func TestGetDashboardMetricsPropagatesCountError(t *testing.T) {
	wantErr := errors.New("count blew up")
	coll := &fakeAggregateCollection{
		countFn: func(bson.M) (int64, error) {
			return 0, wantErr
		},
	}

	svc := NewServiceService(coll)

	_, err := svc.GetDashboardMetrics(context.Background(), "", domain.PeriodToday)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected count error, got %v", err)
	}
}

func TestGetDashboardMetricsRejectsUnknownPeriod(t *testing.T) {
	svc := NewServiceService(&fakeAggregateCollection{})

	_, err := svc.GetDashboardMetrics(context.Background(), "", "yesterday")
	if err == nil {
		t.Fatalf("expected error for unsupported period")
	}
}

func TestPeriodStart(t *testing.T) {
	// Wednesday, 2026-08-19 15:04:05 UTC.
	now := time.Date(2026, 8, 19, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		period string
		want   time.Time
	}{
		{name: "today", period: domain.PeriodToday, want: time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)},
		{name: "empty defaults to today", period: "", want: time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)},
		{name: "week starts monday", period: domain.PeriodWeek, want: time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)},
		{name: "month starts on the first", period: domain.PeriodMonth, want: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeriodStart(now, tt.period)
			if err != nil {
				t.Fatalf("PeriodStart returned error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("PeriodStart(%q) = %v, want %v", tt.period, got, tt.want)
			}
		})
	}

	if _, err := PeriodStart(now, "quarter"); err == nil {
		t.Fatalf("expected error for unsupported period")
	}
}

func TestPeriodStartSundayBelongsToPreviousWeek(t *testing.T) {
	sunday := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	got, err := PeriodStart(sunday, domain.PeriodWeek)
	if err != nil {
		t.Fatalf("PeriodStart returned error: %v", err)
	}

	want := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected week start %v, got %v", want, got)
	}
}
