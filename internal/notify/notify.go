// Package notify sends operational notifications through SES email and SNS.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/metrics"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
	ErrNoRecipients           = errors.New("no recipients")
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
}

// Message is one notification. Text is required; HTML falls back to Text.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

type Notifier struct {
	config    *Config
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

// New builds a Notifier. A nil client disables its channel.
func New(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	if config == nil {
		config = &Config{}
	}
	return &Notifier{
		config:    config,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

func (n *Notifier) EmailEnabled() bool {
	return n.config.EmailEnabled && n.sesClient != nil
}

func (n *Notifier) SMSEnabled() bool {
	return n.config.SMSEnabled && n.snsClient != nil
}

// Email sends msg to every address in to. It returns false when the channel
// is disabled.
func (n *Notifier) Email(ctx context.Context, to []string, msg Message) (bool, error) {
	if !n.EmailEnabled() {
		metrics.NotificationsSent.WithLabelValues(ChannelEmail, "disabled").Inc()
		return false, nil
	}
	to = nonBlank(to)
	if len(to) == 0 {
		return false, ErrNoRecipients
	}

	html := msg.HTML
	if html == "" {
		html = msg.Text
	}
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: to},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Text)},
				Html: &types.Content{Data: aws.String(html)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	if err != nil {
		metrics.NotificationsSent.WithLabelValues(ChannelEmail, "failed").Inc()
		return false, fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
	}

	metrics.NotificationsSent.WithLabelValues(ChannelEmail, "sent").Inc()
	n.logger.Info("email sent", map[string]interface{}{
		"subject":    msg.Subject,
		"recipients": len(to),
	})
	return true, nil
}

// Publish posts msg.Text to an SNS topic. It returns false when the channel
// is disabled or no topic is configured.
func (n *Notifier) Publish(ctx context.Context, topicARN string, msg Message) (bool, error) {
	if !n.SMSEnabled() || strings.TrimSpace(topicARN) == "" {
		metrics.NotificationsSent.WithLabelValues(ChannelSMS, "disabled").Inc()
		return false, nil
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Message:  aws.String(msg.Text),
	}
	if msg.Subject != "" {
		input.Subject = aws.String(msg.Subject)
	}
	if _, err := n.snsClient.Publish(ctx, input); err != nil {
		metrics.NotificationsSent.WithLabelValues(ChannelSMS, "failed").Inc()
		return false, fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
	}

	metrics.NotificationsSent.WithLabelValues(ChannelSMS, "sent").Inc()
	n.logger.Info("topic message published", map[string]interface{}{"topic": topicARN})
	return true, nil
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
