package worker

// alert_worker.go
// Processes low-stock alert jobs from QueueAlerts and emails the configured
// recipient.

import (
	"context"
	"encoding/json"
	"fmt"

	"agrosnab/internal/infra"

	"github.com/rs/zerolog/log"
)

// AlertWorker sends low-stock notifications via SMTP.
type AlertWorker struct {
	mailer *infra.Mailer
	to     string
}

func NewAlertWorker(mailer *infra.Mailer, to string) *AlertWorker {
	return &AlertWorker{mailer: mailer, to: to}
}

func (w *AlertWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload LowStockAlertPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("alert_worker: invalid payload: %w", err)
	}
	if w.to == "" {
		log.Warn().Str("sku", payload.SKU).Msg("alert_worker: no recipient configured, dropping alert")
		return nil
	}

	subject := fmt.Sprintf("Low stock: %s", payload.Name)
	body := fmt.Sprintf("Product %s (%s) is down to %d units.", payload.Name, payload.SKU, payload.Stock)
	if err := w.mailer.SendAlert(w.to, subject, body); err != nil {
		return fmt.Errorf("alert_worker: send failed: %w", err)
	}
	log.Info().Str("sku", payload.SKU).Int("stock", payload.Stock).Msg("alert_worker: low stock alert sent")
	return nil
}
