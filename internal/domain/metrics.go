package domain

// Report periods accepted by the metrics services and report generators.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// DashboardMetrics aggregates service-order activity for one period. Zero
// values are meaningful: report formatting substitutes 0 for anything the
// data source did not produce.
type DashboardMetrics struct {
	TotalServices     int64
	CompletedServices int64
	PendingServices   int64
	CanceledServices  int64
	Revenue           float64
	AverageTicket     float64
}

// ProductStats aggregates the product catalog state. Unlike service metrics it
// is a point-in-time snapshot and carries no period.
type ProductStats struct {
	TotalProducts    int64
	ActiveProducts   int64
	LowStockProducts int64
	OutOfStock       int64
	InventoryValue   float64
}
