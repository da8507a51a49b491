package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	appConfig "github.com/kendall-kelly/repair-shop-api/config"
	"github.com/kendall-kelly/repair-shop-api/models"
)

// Notification tells the customer-facing notification worker that a request
// reached a status the customer must act on or know about
type Notification struct {
	RepairRequestID string              `json:"repair_request_id"`
	CustomerID      string              `json:"customer_id"`
	Status          models.RepairStatus `json:"status"`
	TrackingCode    string              `json:"tracking_code"`
}

// notifyOn lists the statuses that produce a customer notification
var notifyOn = map[models.RepairStatus]bool{
	models.StatusReadyPickup: true,
	models.StatusCompleted:   true,
	models.StatusCancelled:   true,
}

// ShouldNotify reports whether reaching status notifies the customer
func ShouldNotify(status models.RepairStatus) bool {
	return notifyOn[status]
}

// Notifier delivers customer notifications
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// SQSAPI is the part of the SQS client the notifier uses
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier sends notifications to an SQS queue
type SQSNotifier struct {
	client   SQSAPI
	queueURL string
}

// NewSQSNotifier creates a notifier for queueURL
func NewSQSNotifier(client SQSAPI, queueURL string) *SQSNotifier {
	return &SQSNotifier{client: client, queueURL: queueURL}
}

// InitSQSNotifier builds an SQS client from the application configuration
func InitSQSNotifier(ctx context.Context) (*SQSNotifier, error) {
	cfg := appConfig.GetConfig()

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSQSNotifier(sqs.NewFromConfig(awsConfig), cfg.SQSQueueURL), nil
}

// Notify sends one notification as a JSON message body
func (n *SQSNotifier) Notify(ctx context.Context, notification Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// NoopNotifier drops notifications. It is used when no queue is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, Notification) error {
	return nil
}
