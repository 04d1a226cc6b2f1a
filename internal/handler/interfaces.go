package handler

import (
	"context"

	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/rocjay1/ledger-analyzer/internal/services"
)

// DatabaseClient defines the table operations used by handlers.
type DatabaseClient interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error
	GetCurrentLedger(ctx context.Context) (*models.LedgerInfo, error)
	SetCurrentLedger(ctx context.Context, info models.LedgerInfo) error
	ListReports(ctx context.Context, kind string) ([]models.SavedReport, error)
}

// BlobClient defines the blob storage operations used by handlers.
type BlobClient interface {
	UploadBytes(ctx context.Context, containerName, blobName string, data []byte) error
	DownloadBytes(ctx context.Context, containerName, blobName string) ([]byte, error)
}

// QueueClient defines the queue operations used by handlers.
type QueueClient interface {
	EnqueueMessage(ctx context.Context, queueName string, message any) error
}

// EmailClient defines the email operations used by handlers.
type EmailClient interface {
	SendEmail(ctx context.Context, to []string, subject, body string) error
	SendErrorEmail(ctx context.Context, recipients []string, filename string, errors []string) error
	SendDigestEmail(ctx context.Context, recipients []string, digest services.Digest) error
}

// ReportSaver persists a rendered report on request.
type ReportSaver interface {
	SaveReport(ctx context.Context, kind string, report any) (models.SavedReport, error)
}
