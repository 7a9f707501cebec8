package services

import (
	"context"
	"errors"
	"sync"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/resend/resend-go/v3"
)

var (
	emailClient     *resend.Client
	emailClientOnce sync.Once
)

var ErrEmailDisabled = errors.New("email delivery is not configured")

// EmailSender delivers one HTML email.
type EmailSender interface {
	Enabled() bool
	Send(ctx context.Context, to []string, subject, html string) error
}

type EmailService struct {
	logger *gecho.Logger
	cfg    *structs.Config
	client *resend.Client
}

func NewEmailService(logger *gecho.Logger, cfg *structs.Config) *EmailService {
	es := &EmailService{
		logger: logger,
		cfg:    cfg,
	}
	if cfg.Email.ApiKey != "" {
		es.client = getEmailClient(cfg.Email.ApiKey)
	}
	return es
}

func getEmailClient(apiKey string) *resend.Client {
	emailClientOnce.Do(func() {
		emailClient = resend.NewClient(apiKey)
	})
	return emailClient
}

// Enabled reports whether an API key was configured.
func (es *EmailService) Enabled() bool {
	return es.client != nil
}

func (es *EmailService) Send(ctx context.Context, to []string, subject, html string) error {
	if !es.Enabled() {
		return ErrEmailDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    es.cfg.Email.From,
		To:      to,
		Html:    html,
		Subject: subject,
	}

	sent, err := es.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		es.logger.Error("Failed to send email", gecho.Field("error", err), gecho.Field("to", to))
		return err
	}

	es.logger.Debug("Email sent", gecho.Field("id", sent.Id), gecho.Field("to", to))
	return nil
}
