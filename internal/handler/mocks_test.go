package handler

import (
	"context"
	"time"

	"github.com/rocjay1/ledger-analyzer/internal/config"
	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/rocjay1/ledger-analyzer/internal/services"
)

// MockDatabaseClient is a mock implementation of DatabaseClient
type MockDatabaseClient struct {
	GetSettingsFunc      func(ctx context.Context) (*models.Settings, error)
	SaveSettingsFunc     func(ctx context.Context, settings models.Settings) error
	GetCurrentLedgerFunc func(ctx context.Context) (*models.LedgerInfo, error)
	SetCurrentLedgerFunc func(ctx context.Context, info models.LedgerInfo) error
	ListReportsFunc      func(ctx context.Context, kind string) ([]models.SavedReport, error)
}

func (m *MockDatabaseClient) GetSettings(ctx context.Context) (*models.Settings, error) {
	if m.GetSettingsFunc != nil {
		return m.GetSettingsFunc(ctx)
	}
	return nil, services.ErrNotFound
}

func (m *MockDatabaseClient) SaveSettings(ctx context.Context, settings models.Settings) error {
	if m.SaveSettingsFunc != nil {
		return m.SaveSettingsFunc(ctx, settings)
	}
	return nil
}

func (m *MockDatabaseClient) GetCurrentLedger(ctx context.Context) (*models.LedgerInfo, error) {
	if m.GetCurrentLedgerFunc != nil {
		return m.GetCurrentLedgerFunc(ctx)
	}
	return nil, services.ErrNotFound
}

func (m *MockDatabaseClient) SetCurrentLedger(ctx context.Context, info models.LedgerInfo) error {
	if m.SetCurrentLedgerFunc != nil {
		return m.SetCurrentLedgerFunc(ctx, info)
	}
	return nil
}

func (m *MockDatabaseClient) ListReports(ctx context.Context, kind string) ([]models.SavedReport, error) {
	if m.ListReportsFunc != nil {
		return m.ListReportsFunc(ctx, kind)
	}
	return nil, nil
}

// MockBlobClient is a mock implementation of BlobClient
type MockBlobClient struct {
	UploadBytesFunc   func(ctx context.Context, containerName, blobName string, data []byte) error
	DownloadBytesFunc func(ctx context.Context, containerName, blobName string) ([]byte, error)
}

func (m *MockBlobClient) UploadBytes(ctx context.Context, containerName, blobName string, data []byte) error {
	if m.UploadBytesFunc != nil {
		return m.UploadBytesFunc(ctx, containerName, blobName, data)
	}
	return nil
}

func (m *MockBlobClient) DownloadBytes(ctx context.Context, containerName, blobName string) ([]byte, error) {
	if m.DownloadBytesFunc != nil {
		return m.DownloadBytesFunc(ctx, containerName, blobName)
	}
	return nil, services.ErrNotFound
}

// MockQueueClient is a mock implementation of QueueClient
type MockQueueClient struct {
	EnqueueMessageFunc func(ctx context.Context, queueName string, message any) error
}

func (m *MockQueueClient) EnqueueMessage(ctx context.Context, queueName string, message any) error {
	if m.EnqueueMessageFunc != nil {
		return m.EnqueueMessageFunc(ctx, queueName, message)
	}
	return nil
}

// MockEmailClient is a mock implementation of EmailClient
type MockEmailClient struct {
	SendEmailFunc       func(ctx context.Context, to []string, subject, body string) error
	SendErrorEmailFunc  func(ctx context.Context, recipients []string, filename string, errors []string) error
	SendDigestEmailFunc func(ctx context.Context, recipients []string, digest services.Digest) error
}

func (m *MockEmailClient) SendEmail(ctx context.Context, to []string, subject, body string) error {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, to, subject, body)
	}
	return nil
}

func (m *MockEmailClient) SendErrorEmail(ctx context.Context, recipients []string, filename string, errors []string) error {
	if m.SendErrorEmailFunc != nil {
		return m.SendErrorEmailFunc(ctx, recipients, filename, errors)
	}
	return nil
}

func (m *MockEmailClient) SendDigestEmail(ctx context.Context, recipients []string, digest services.Digest) error {
	if m.SendDigestEmailFunc != nil {
		return m.SendDigestEmailFunc(ctx, recipients, digest)
	}
	return nil
}

// MockReportSaver is a mock implementation of ReportSaver
type MockReportSaver struct {
	SaveReportFunc func(ctx context.Context, kind string, report any) (models.SavedReport, error)
}

func (m *MockReportSaver) SaveReport(ctx context.Context, kind string, report any) (models.SavedReport, error) {
	if m.SaveReportFunc != nil {
		return m.SaveReportFunc(ctx, kind, report)
	}
	return models.SavedReport{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		LedgerContainer:  "ledger-data",
		ReportsContainer: "reports",
		LedgerQueue:      "process-ledger",
		UserEmail:        "me@example.com",
	}
}

var testNow = time.Date(2024, 5, 20, 14, 30, 0, 0, time.UTC)

func newTestDeps() (*Dependencies, *MockDatabaseClient, *MockBlobClient) {
	db := &MockDatabaseClient{}
	blob := &MockBlobClient{}
	deps := &Dependencies{
		Database: db,
		Blob:     blob,
		Config:   testConfig(),
		Now:      func() time.Time { return testNow },
	}
	return deps, db, blob
}

// sampleLedger is a small CSV export in the bank's column layout.
const sampleLedger = "Дата операции;Номер карты;Сумма операции;Кешбэк;Категория;Описание\n" +
	"18.05.2024 12:00:00;*1234;-1500,00;15;Супермаркеты;Пятёрочка\n" +
	"19.05.2024 09:30:00;*1234;-250,00;;Такси;Яндекс Такси\n" +
	"19.05.2024 18:00:00;*5678;-700,00;7;Переводы;Перевод +7 921 123-45-67\n" +
	"10.05.2024 10:00:00;;50000,00;;Зарплата;Зарплата\n" +
	"15.04.2024 10:00:00;*1234;-320,50;3;Супермаркеты;Магнит\n"

// withLedger makes the mocks serve content as the current ledger.
func withLedger(db *MockDatabaseClient, blob *MockBlobClient, filename, content string) {
	db.GetCurrentLedgerFunc = func(ctx context.Context) (*models.LedgerInfo, error) {
		return &models.LedgerInfo{BlobName: "uploads/" + filename, Filename: filename}, nil
	}
	blob.DownloadBytesFunc = func(ctx context.Context, containerName, blobName string) ([]byte, error) {
		return []byte(content), nil
	}
}
