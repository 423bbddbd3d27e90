package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifesure/internal/common/config"
	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

type mockSES struct {
	sent []*ses.SendEmailInput
	err  error
}

func (m *mockSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.sent = append(m.sent, params)
	return &ses.SendEmailOutput{}, m.err
}

type mockSNS struct {
	published []*sns.PublishInput
	err       error
}

func (m *mockSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.published = append(m.published, params)
	return &sns.PublishOutput{}, m.err
}

type mockDirectory struct {
	users map[string]*models.User
}

func (m *mockDirectory) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, stderrors.NewResourceNotFoundError("user", email)
	}
	return u, nil
}

func testConfig(emailOn, smsOn bool) config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = emailOn
	cfg.Email.FromEmail = "noreply@lifesure.io"
	cfg.SMS.Enabled = smsOn
	return cfg
}

func TestApplicationApproved_SendsEmailAndSMS(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	dir := &mockDirectory{users: map[string]*models.User{
		"jordan@example.com": {Email: "jordan@example.com", Phone: "+15550100"},
	}}
	svc := NewService(testConfig(true, true), sesMock, snsMock, dir, logger.NewNoOpLogger())

	app := &models.Application{ID: "app-1", CustomerEmail: "jordan@example.com"}
	require.NoError(t, svc.ApplicationApproved(context.Background(), app))

	require.Len(t, sesMock.sent, 1)
	assert.Equal(t, "jordan@example.com", sesMock.sent[0].Destination.ToAddresses[0])
	assert.Equal(t, "noreply@lifesure.io", *sesMock.sent[0].Source)

	require.Len(t, snsMock.published, 1)
	assert.Equal(t, "+15550100", *snsMock.published[0].PhoneNumber)
}

func TestSMSSkippedWithoutPhone(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	dir := &mockDirectory{users: map[string]*models.User{
		"jordan@example.com": {Email: "jordan@example.com"},
	}}
	svc := NewService(testConfig(true, true), sesMock, snsMock, dir, logger.NewNoOpLogger())

	app := &models.Application{ID: "app-1", CustomerEmail: "jordan@example.com"}
	require.NoError(t, svc.ApplicationRejected(context.Background(), app, "incomplete history"))

	assert.Len(t, sesMock.sent, 1)
	assert.Empty(t, snsMock.published)
}

func TestDisabledChannelsSendNothing(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	svc := NewService(testConfig(false, false), sesMock, snsMock, &mockDirectory{}, logger.NewNoOpLogger())

	txn := &models.Transaction{Amount: 12900, Currency: "usd", PolicyTitle: "Term Life 20"}
	app := &models.Application{ID: "app-1", CustomerEmail: "jordan@example.com"}
	require.NoError(t, svc.PaymentRecorded(context.Background(), app, txn))

	assert.Empty(t, sesMock.sent)
	assert.Empty(t, snsMock.published)
}

func TestEmailFailureSurfacesAsNotificationError(t *testing.T) {
	sesMock := &mockSES{err: errors.New("ses throttled")}
	svc := NewService(testConfig(true, false), sesMock, &mockSNS{}, &mockDirectory{}, logger.NewNoOpLogger())

	claim := &models.Claim{ID: "clm-1", ApplicationID: "app-1", CustomerEmail: "jordan@example.com"}
	err := svc.ClaimApproved(context.Background(), claim)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeNotificationSendFailed, stderrors.CodeOf(err))
	assert.True(t, stderrors.IsRetryable(err))
}
