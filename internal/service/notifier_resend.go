package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"smssignup/internal/entity"

	"github.com/resend/resend-go"
	"github.com/sirupsen/logrus"
)

type ResendNotifier struct {
	client *resend.Client
	from   string
	logger logrus.FieldLogger
}

func NewResendNotifier(apiKey string, from string, logger logrus.FieldLogger) *ResendNotifier {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return &ResendNotifier{logger: logger}
	}
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger,
	}
}

func (n *ResendNotifier) SendWelcome(ctx context.Context, user *entity.User) error {
	if n.client == nil {
		return ErrEmailNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	name := strings.TrimSpace(user.FirstName)
	if name == "" {
		name = "there"
	}
	request := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{user.Email},
		Subject: "Welcome, your phone is verified",
		Html: fmt.Sprintf("<p>Hi %s,</p><p>Your phone number %s is verified and your sign-up is complete.</p>",
			html.EscapeString(name), html.EscapeString(user.Phone())),
		Text: fmt.Sprintf("Hi %s, your phone number %s is verified and your sign-up is complete.", name, user.Phone()),
	}
	sent, err := n.client.Emails.Send(request)
	if err != nil {
		return fmt.Errorf("resend welcome email: %w", err)
	}
	if n.logger != nil {
		n.logger.WithFields(logrus.Fields{"user_id": user.ID, "email_id": sent.Id}).Info("welcome email sent")
	}
	return nil
}

type NoopNotifier struct{}

func (NoopNotifier) SendWelcome(ctx context.Context, user *entity.User) error {
	return nil
}
