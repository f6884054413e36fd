// Package report implements the aggregate-metrics report generators. Every
// generator formats a fixed Portuguese template, substitutes zeros for
// anything the data source did not produce, and never leaks raw errors to
// chat.
package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/menu"
)

// Report type names used in callback data and dispatch.
const (
	TypeGeneral  = "general"
	TypeServices = "services"
	TypeProducts = "products"
)

const timestampLayout = "02/01/2006 15:04"

// nowFunc is overridable for tests.
var nowFunc = time.Now

// Generator produces one report type for a chat.
type Generator interface {
	Generate(ctx context.Context, chatID int64, params map[string]string) domain.Response
	ReportType() string
	ReportName() string
	AvailablePeriods() []string
}

// ServiceMetrics is the service-order aggregate source consumed by the
// general and services reports.
type ServiceMetrics interface {
	GetDashboardMetrics(ctx context.Context, centerID, period string) (domain.DashboardMetrics, error)
}

// ProductMetrics is the catalog snapshot source consumed by the general and
// products reports.
type ProductMetrics interface {
	GetDashboardStats(ctx context.Context, centerID string) (domain.ProductStats, error)
}

// AvailablePeriods lists the reporting windows every generator accepts.
func AvailablePeriods() []string {
	return []string{domain.PeriodToday, domain.PeriodWeek, domain.PeriodMonth}
}

// NormalizePeriod maps the period parameter onto a supported window,
// defaulting to today for anything absent or unknown.
func NormalizePeriod(period string) string {
	switch period {
	case domain.PeriodWeek, domain.PeriodMonth:
		return period
	default:
		return domain.PeriodToday
	}
}

// PeriodLabel renders the Portuguese label for a reporting window.
func PeriodLabel(period string) string {
	switch period {
	case domain.PeriodWeek:
		return "Esta Semana"
	case domain.PeriodMonth:
		return "Este Mês"
	default:
		return "Hoje"
	}
}

// FormatBRL renders a value as Brazilian currency: dot thousands separators
// and a comma before the decimals.
func FormatBRL(value float64) string {
	negative := value < 0
	if negative {
		value = -value
	}

	whole := strconv.FormatFloat(value, 'f', 2, 64)
	parts := strings.SplitN(whole, ".", 2)

	intPart := parts[0]
	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}

	return fmt.Sprintf("R$ %s%s,%s", sign, grouped.String(), parts[1])
}

func generatedAt() string {
	return "🕒 Gerado em: " + nowFunc().Format(timestampLayout)
}

// errorMessage builds the user-facing failure text. The optional detail line
// is only appended when includeDetails is set; the products report omits it.
func errorMessage(detail string, includeDetails bool) string {
	message := "⚠️ *Erro no Sistema*\n\nNão foi possível gerar o relatório agora. Tente novamente em instantes."

	if includeDetails && strings.TrimSpace(detail) != "" {
		message += "\n\nDetalhes: " + strings.TrimSpace(detail)
	}

	return message
}

func errorResponse(internal, detail string, includeDetails bool) domain.Response {
	response := domain.ErrorResponse(errorMessage(detail, includeDetails), internal)
	response.Keyboard = [][]domain.Button{menu.BackRow()}
	return response
}
