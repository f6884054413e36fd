package command

import (
	"context"

	"github.com/sirupsen/logrus"

	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/logging"
	"autoshop_telegram_bot/internal/menu"
	"autoshop_telegram_bot/internal/report"
)

// ReportHandler routes report commands to the registered generators. A bare
// report command shows the report-type menu; the type parameter selects a
// generator and the remaining parameters pass through untouched.
type ReportHandler struct {
	generators map[string]report.Generator
	logger     *logrus.Entry
}

// NewReportHandler constructs the report handler over the given generators.
func NewReportHandler(logger *logrus.Entry, generators ...report.Generator) *ReportHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	registry := make(map[string]report.Generator, len(generators))
	for _, generator := range generators {
		if generator == nil {
			continue
		}
		registry[generator.ReportType()] = generator
	}

	return &ReportHandler{
		generators: registry,
		logger:     logger,
	}
}

// Name identifies the handler in dispatch logs.
func (h *ReportHandler) Name() string { return "report" }

// Description summarizes the handler for listings.
func (h *ReportHandler) Description() string { return "relatórios de serviços e produtos" }

// CanHandle claims the report command and its Portuguese alias.
func (h *ReportHandler) CanHandle(cmd domain.Command) bool {
	return cmd.Name == "report" || cmd.Name == "relatorio"
}

// Handle selects the generator named by the type parameter. Without a type,
// or with an unknown one, the report-type menu is shown instead.
func (h *ReportHandler) Handle(ctx context.Context, chatID int64, cmd domain.Command) domain.Response {
	reportType := cmd.Param("type", "")
	if reportType == "" {
		return menu.Reports()
	}

	generator, ok := h.generators[reportType]
	if !ok {
		h.logger.WithFields(logging.Fields{
			"event":       "report_type_unknown",
			"report_type": reportType,
			"chat_id":     chatID,
		}).Warn("unknown report type requested")

		return menu.Reports()
	}

	return generator.Generate(ctx, chatID, cmd.Params)
}
