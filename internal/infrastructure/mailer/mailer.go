// Package mailer delivers license keys to buyers. Delivery is simulated by
// logging the message.
package mailer

import (
	"context"

	log "github.com/sirupsen/logrus"

	"license-shop/internal/domain"
	"license-shop/internal/logger"
)

type Mailer interface {
	SendLicense(ctx context.Context, order domain.Order, license domain.License) error
}

type logMailer struct {
	logger log.FieldLogger
}

func NewLogMailer(logger log.FieldLogger) Mailer {
	return &logMailer{logger: logger}
}

func (m *logMailer) SendLicense(ctx context.Context, order domain.Order, license domain.License) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.WithFields(log.Fields{
		logger.ActionKey: "EMAIL_SENT",
		"to":             order.BuyerEmail,
		"licenseKey":     license.Key,
		"orderId":        order.ID,
		"price":          order.Price,
	}).Info("license email sent")
	return nil
}
