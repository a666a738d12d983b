package notification

import (
	"context"
	"fmt"

	"github.com/meditrax/clinical-core/internal/email"
	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/pkg/logger"
	"github.com/meditrax/clinical-core/pkg/messaging"
)

// Service fans a raised alert out to the broker channel and, for emergency
// severity, the on-call email list. Delivery is best effort: the caller
// treats any error here as log-and-count, never as a failed alert.
type Service struct {
	broker  messaging.Broker
	mailer  email.Service
	channel string
	onCall  []string
	log     *logger.Logger
}

func NewService(broker messaging.Broker, mailer email.Service, channel string, onCall []string, log *logger.Logger) *Service {
	return &Service{
		broker:  broker,
		mailer:  mailer,
		channel: channel,
		onCall:  onCall,
		log:     log,
	}
}

// Notify publishes the alert payload. Both legs are attempted even when the
// first fails; the first error is returned for the caller's failure counter.
func (s *Service) Notify(ctx context.Context, n *model.AlertNotification) error {
	var firstErr error

	if s.broker != nil {
		msg := messaging.Message{Type: "critical_alert", Payload: n}
		if err := s.broker.Publish(ctx, s.channel, msg); err != nil {
			firstErr = fmt.Errorf("failed to publish alert: %w", err)
			s.log.Error(err, "alert publish failed", "alert_id", n.AlertID)
		}
	}

	if s.mailer != nil && n.Severity == model.AlertSeverityEmergency {
		subject := fmt.Sprintf("EMERGENCY alert for patient %s", n.PatientID)
		body := fmt.Sprintf("%s\n\nRaised at %s", n.Message, n.RaisedAt.Format("2006-01-02 15:04:05 MST"))
		if err := s.mailer.SendAlert(ctx, s.onCall, subject, body); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			s.log.Error(err, "alert email failed", "alert_id", n.AlertID)
		}
	}

	return firstErr
}
