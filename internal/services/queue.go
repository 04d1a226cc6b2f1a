package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// QueueService hands uploaded ledgers over to the processing function.
type QueueService struct {
	serviceClient *azqueue.ServiceClient
}

// NewQueueService creates a new QueueService instance.
func NewQueueService(queueURL string) (*QueueService, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("QUEUE_SERVICE_URL environment variable is required")
	}

	slog.Info("initializing queue service", "queue_url", queueURL)
	var client *azqueue.ServiceClient

	if isLocal(queueURL) {
		slog.Info("using Azurite shared key credentials for queue service")
		name, key := getAzuriteCredentials()
		cred, err := azqueue.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azqueue.NewServiceClientWithSharedKeyCredential(queueURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue service client with shared key: %w", err)
		}
	} else {
		cred, err := newDefaultAzureCredential("queue")
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azqueue.NewServiceClient(queueURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue service client: %w", err)
		}
	}

	slog.Info("queue service initialized successfully")
	return &QueueService{serviceClient: client}, nil
}

// EnqueueMessage JSON-encodes message and adds it to a queue.
func (s *QueueService) EnqueueMessage(ctx context.Context, queueName string, message any) error {
	queueClient := s.serviceClient.NewQueueClient(queueName)

	_, err := queueClient.Create(ctx, nil)
	if err != nil && !isAzureCode(err, "QueueAlreadyExists") {
		slog.Warn("failed to create queue", "queue", queueName, "error", err)
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	// The Functions host expects base64 queue payloads.
	encoded := base64.StdEncoding.EncodeToString(msgBytes)

	if _, err := queueClient.EnqueueMessage(ctx, encoded, nil); err != nil {
		slog.Error("failed to enqueue message", "queue", queueName, "error", err)
		return fmt.Errorf("failed to enqueue message to %s: %w", queueName, err)
	}

	slog.Info("enqueued message", "queue", queueName)
	return nil
}

func isAzureCode(err error, code string) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.ErrorCode == code
}
