package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/rocjay1/ledger-analyzer/internal/models"
)

const (
	settingsPartition = "SETTINGS"
	settingsRowKey    = "default"
	ledgerPartition   = "LEDGER"
	ledgerRowKey      = "current"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// DatabaseService handles interactions with Azure Table Storage.
type DatabaseService struct {
	serviceClient *aztables.ServiceClient
	settingsTable string
	reportsTable  string
}

// NewDatabaseService creates a new DatabaseService and ensures its tables exist.
func NewDatabaseService(ctx context.Context, tableURL, settingsTable, reportsTable string) (*DatabaseService, error) {
	if tableURL == "" {
		return nil, fmt.Errorf("TABLE_SERVICE_URL environment variable is required")
	}

	var client *aztables.ServiceClient
	if isLocal(tableURL) {
		slog.Info("using Azurite credentials for database service")
		name, key := getAzuriteCredentials()
		cred, err := aztables.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = aztables.NewServiceClientWithSharedKey(tableURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client with shared key: %w", err)
		}
	} else {
		cred, err := newDefaultAzureCredential("database")
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = aztables.NewServiceClient(tableURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client: %w", err)
		}
	}

	svc := &DatabaseService{
		serviceClient: client,
		settingsTable: settingsTable,
		reportsTable:  reportsTable,
	}
	if err := svc.CreateTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	slog.Info("database service initialized successfully",
		"table_url", tableURL,
		"settings_table", settingsTable,
		"reports_table", reportsTable,
	)
	return svc, nil
}

// CreateTables ensures all required tables exist.
func (s *DatabaseService) CreateTables(ctx context.Context) error {
	for _, tableName := range []string{s.settingsTable, s.reportsTable} {
		_, err := s.serviceClient.CreateTable(ctx, tableName, nil)
		if err != nil {
			if isAzureCode(err, "TableAlreadyExists") {
				continue
			}
			return fmt.Errorf("failed to create table %s: %w", tableName, err)
		}
	}
	return nil
}

func (s *DatabaseService) getClient(tableName string) *aztables.Client {
	return s.serviceClient.NewClient(tableName)
}

// getEntity loads one entity as a generic map, mapping 404 to ErrNotFound.
func (s *DatabaseService) getEntity(ctx context.Context, tableName, pk, rk string) (map[string]any, error) {
	resp, err := s.getClient(tableName).GetEntity(ctx, pk, rk, nil)
	if err != nil {
		var azErr *azcore.ResponseError
		if errors.As(err, &azErr) && azErr.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entity %s/%s: %w", pk, rk, err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(resp.Value, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode entity %s/%s: %w", pk, rk, err)
	}
	return parsed, nil
}

func (s *DatabaseService) upsertEntity(ctx context.Context, tableName string, entity map[string]any) error {
	entityJSON, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	if _, err := s.getClient(tableName).UpsertEntity(ctx, entityJSON, nil); err != nil {
		return fmt.Errorf("failed to upsert entity into %s: %w", tableName, err)
	}
	return nil
}

// GetSettings retrieves the stored dashboard settings.
// It returns ErrNotFound when the user has not saved any.
func (s *DatabaseService) GetSettings(ctx context.Context) (*models.Settings, error) {
	parsed, err := s.getEntity(ctx, s.settingsTable, settingsPartition, settingsRowKey)
	if err != nil {
		return nil, err
	}
	return &models.Settings{
		UserCurrencies: splitList(getString(parsed, "UserCurrencies")),
		UserStocks:     splitList(getString(parsed, "UserStocks")),
	}, nil
}

// SaveSettings upserts the dashboard settings.
func (s *DatabaseService) SaveSettings(ctx context.Context, settings models.Settings) error {
	return s.upsertEntity(ctx, s.settingsTable, map[string]any{
		"PartitionKey":   settingsPartition,
		"RowKey":         settingsRowKey,
		"UserCurrencies": strings.Join(settings.UserCurrencies, ","),
		"UserStocks":     strings.Join(settings.UserStocks, ","),
	})
}

// GetCurrentLedger returns the ledger upload reports are built from.
func (s *DatabaseService) GetCurrentLedger(ctx context.Context) (*models.LedgerInfo, error) {
	parsed, err := s.getEntity(ctx, s.settingsTable, ledgerPartition, ledgerRowKey)
	if err != nil {
		return nil, err
	}
	return &models.LedgerInfo{
		BlobName:          getString(parsed, "BlobName"),
		Filename:          getString(parsed, "Filename"),
		Checksum:          getString(parsed, "Checksum"),
		TransactionsCount: getInt(parsed, "TransactionsCount"),
		ErrorsCount:       getInt(parsed, "ErrorsCount"),
		LoadedAt:          getString(parsed, "LoadedAt"),
	}, nil
}

// SetCurrentLedger points reports at a newly processed ledger upload.
func (s *DatabaseService) SetCurrentLedger(ctx context.Context, info models.LedgerInfo) error {
	return s.upsertEntity(ctx, s.settingsTable, map[string]any{
		"PartitionKey":      ledgerPartition,
		"RowKey":            ledgerRowKey,
		"BlobName":          info.BlobName,
		"Filename":          info.Filename,
		"Checksum":          info.Checksum,
		"TransactionsCount": info.TransactionsCount,
		"ErrorsCount":       info.ErrorsCount,
		"LoadedAt":          info.LoadedAt,
	})
}

// RecordReport indexes a report saved to blob storage.
func (s *DatabaseService) RecordReport(ctx context.Context, report models.SavedReport) error {
	return s.upsertEntity(ctx, s.reportsTable, map[string]any{
		"PartitionKey": report.Kind,
		"RowKey":       report.ID,
		"BlobName":     report.BlobName,
		"CreatedAt":    report.CreatedAt,
	})
}

// ListReports lists saved reports, newest first. An empty kind lists all kinds.
func (s *DatabaseService) ListReports(ctx context.Context, kind string) ([]models.SavedReport, error) {
	opts := &aztables.ListEntitiesOptions{}
	if kind != "" {
		filter := fmt.Sprintf("PartitionKey eq '%s'", strings.ReplaceAll(kind, "'", "''"))
		opts.Filter = &filter
	}
	pager := s.getClient(s.reportsTable).NewListEntitiesPager(opts)

	reports := []models.SavedReport{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}
		for _, entity := range resp.Entities {
			var parsed map[string]any
			if err := json.Unmarshal(entity, &parsed); err != nil {
				slog.Warn("skipping undecodable report entity", "error", err)
				continue
			}
			reports = append(reports, models.SavedReport{
				ID:        getString(parsed, "RowKey"),
				Kind:      getString(parsed, "PartitionKey"),
				BlobName:  getString(parsed, "BlobName"),
				CreatedAt: getString(parsed, "CreatedAt"),
			})
		}
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].CreatedAt > reports[j].CreatedAt })
	return reports, nil
}

func getString(parsed map[string]any, key string) string {
	if v, ok := parsed[key].(string); ok {
		return v
	}
	return ""
}

func getInt(parsed map[string]any, key string) int {
	switch v := parsed[key].(type) {
	case float64:
		return int(v)
	case string:
		var i int
		fmt.Sscanf(v, "%d", &i)
		return i
	}
	return 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
