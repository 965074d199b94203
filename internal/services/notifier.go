package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.uber.org/zap"
)

// VerificationNotifier delivers the email verification link to a freshly
// registered user.
type VerificationNotifier interface {
	NotifyVerification(ctx context.Context, email, token string) error
}

// VerificationLink builds the link a user follows to verify their email.
func VerificationLink(baseURL, token string) string {
	return fmt.Sprintf("%s/verify-email/?token=%s", baseURL, url.QueryEscape(token))
}

// LogNotifier only logs the verification link. It is used when no mail
// pipeline is configured.
type LogNotifier struct {
	baseURL string
	log     *zap.Logger
}

func NewLogNotifier(baseURL string, log *zap.Logger) *LogNotifier {
	return &LogNotifier{baseURL: baseURL, log: log}
}

func (n *LogNotifier) NotifyVerification(_ context.Context, email, token string) error {
	n.log.Info("verification email",
		zap.String("email", email),
		zap.String("link", VerificationLink(n.baseURL, token)),
	)
	return nil
}

// Publisher sends a message body to a named queue.
type Publisher interface {
	Publish(queue string, body []byte) error
}

const VerificationQueue = "email_verification"

// VerificationMessage is the payload consumed by the mail worker.
type VerificationMessage struct {
	Email     string `json:"email"`
	Token     string `json:"token"`
	VerifyURL string `json:"verify_url"`
}

// QueueNotifier hands verification emails to a mail worker through a
// message queue.
type QueueNotifier struct {
	baseURL   string
	publisher Publisher
}

func NewQueueNotifier(baseURL string, publisher Publisher) *QueueNotifier {
	return &QueueNotifier{baseURL: baseURL, publisher: publisher}
}

func (n *QueueNotifier) NotifyVerification(_ context.Context, email, token string) error {
	body, err := json.Marshal(VerificationMessage{
		Email:     email,
		Token:     token,
		VerifyURL: VerificationLink(n.baseURL, token),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal verification message: %w", err)
	}
	if err := n.publisher.Publish(VerificationQueue, body); err != nil {
		return fmt.Errorf("failed to publish verification message: %w", err)
	}
	return nil
}
