package sms

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// SMSGateway defines the interface for sending SMS messages
type SMSGateway interface {
	// Send delivers message to phone.
	// Returns a transaction ID and an error if the send failed
	Send(ctx context.Context, phone, message string) (int64, error)

	// GetName returns the name of the SMS gateway implementation
	GetName() string
}

// GetName returns the gateway name
func (d *DialogGateway) GetName() string {
	return "dialog"
}

// LogGateway writes messages to the log instead of sending them (SMS_MODE=dev)
type LogGateway struct {
	logger *logrus.Logger
}

// NewLogGateway creates a gateway that only logs
func NewLogGateway(logger *logrus.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

// Send logs the message
func (g *LogGateway) Send(_ context.Context, phone, message string) (int64, error) {
	transactionID := time.Now().UnixMicro()
	g.logger.WithFields(logrus.Fields{
		"phone":          phone,
		"transaction_id": transactionID,
	}).Info("SMS (dev mode): " + message)
	return transactionID, nil
}

// GetName returns the gateway name
func (g *LogGateway) GetName() string {
	return "log"
}
