package service

import (
	"context"

	"smssignup/internal/utils"

	"github.com/sirupsen/logrus"
)

// LogSMSGateway writes messages to the log instead of sending them. The full
// message, code included, is logged, so it is for local development only.
type LogSMSGateway struct {
	Logger logrus.FieldLogger
}

func (g LogSMSGateway) Send(ctx context.Context, phoneNumber string, message string) (SMSReceipt, error) {
	if err := ctx.Err(); err != nil {
		return SMSReceipt{}, err
	}
	id, err := utils.GenerateRandomToken(9)
	if err != nil {
		return SMSReceipt{}, err
	}
	logger := g.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(logrus.Fields{
		"phone":   phoneNumber,
		"message": message,
	}).Info("sms (log gateway)")
	return SMSReceipt{ID: "log_" + id, Status: "sent"}, nil
}
