// Package notify delivers lifecycle notifications over email and SMS.
// Delivery is best effort; a failed send never rolls back the transition
// that caused it.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"lifesure/internal/common/config"
	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

// SESService and SNSService mirror the SDK call shapes for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Directory resolves a recipient's profile from their email.
type Directory interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service composes and sends lifecycle notifications.
type Service struct {
	cfg    config.NotificationConfig
	ses    SESService
	sns    SNSService
	users  Directory
	logger logger.Logger
}

func NewService(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, users Directory, log logger.Logger) *Service {
	return &Service{cfg: cfg, ses: sesClient, sns: snsClient, users: users, logger: log}
}

func (s *Service) ApplicationApproved(ctx context.Context, app *models.Application) error {
	subject := "Your policy application was approved"
	body := fmt.Sprintf("Application %s is approved. Your premium is now due; complete the payment from your dashboard.", app.ID)
	sms := fmt.Sprintf("Application %s approved. Premium due.", app.ID)
	return s.deliver(ctx, app.CustomerEmail, subject, body, sms)
}

func (s *Service) ApplicationRejected(ctx context.Context, app *models.Application, reason string) error {
	subject := "Your policy application was rejected"
	body := fmt.Sprintf("Application %s was rejected.\n\nFeedback: %s", app.ID, reason)
	sms := fmt.Sprintf("Application %s rejected.", app.ID)
	return s.deliver(ctx, app.CustomerEmail, subject, body, sms)
}

func (s *Service) PaymentRecorded(ctx context.Context, app *models.Application, txn *models.Transaction) error {
	subject := "Payment received"
	body := fmt.Sprintf("We received your payment of %d %s for %s. Your policy is now active.",
		txn.Amount, txn.Currency, txn.PolicyTitle)
	sms := fmt.Sprintf("Payment received for %s.", txn.PolicyTitle)
	return s.deliver(ctx, app.CustomerEmail, subject, body, sms)
}

func (s *Service) ClaimApproved(ctx context.Context, claim *models.Claim) error {
	subject := "Your claim was approved"
	body := fmt.Sprintf("Claim %s on application %s has been approved. Our payout team will contact you.",
		claim.ID, claim.ApplicationID)
	sms := fmt.Sprintf("Claim %s approved.", claim.ID)
	return s.deliver(ctx, claim.CustomerEmail, subject, body, sms)
}

// deliver sends over every enabled channel and reports the first failure
// after trying all of them.
func (s *Service) deliver(ctx context.Context, email, subject, body, smsText string) error {
	var firstErr error

	if s.cfg.Email.Enabled {
		if err := s.sendEmail(ctx, email, subject, body); err != nil {
			firstErr = stderrors.NewNotificationSendFailedError("email", err)
		}
	}

	if s.cfg.SMS.Enabled {
		phone := s.phoneFor(ctx, email)
		if phone != "" {
			if err := s.sendSMS(ctx, phone, smsText); err != nil && firstErr == nil {
				firstErr = stderrors.NewNotificationSendFailedError("sms", err)
			}
		}
	}

	return firstErr
}

func (s *Service) phoneFor(ctx context.Context, email string) string {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Debug("no profile for sms recipient", map[string]interface{}{"email": email})
		return ""
	}
	return user.Phone
}

func (s *Service) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(s.cfg.Email.FromEmail),
	})
	return err
}

func (s *Service) sendSMS(ctx context.Context, to, message string) error {
	_, err := s.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
