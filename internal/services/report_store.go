package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rocjay1/ledger-analyzer/internal/models"
)

// ReportBlobWriter is the blob operation ReportStore needs.
type ReportBlobWriter interface {
	UploadBytes(ctx context.Context, containerName, blobName string, data []byte) error
}

// ReportIndex is the table operation ReportStore needs.
type ReportIndex interface {
	RecordReport(ctx context.Context, report models.SavedReport) error
}

// ReportStore persists rendered reports as JSON blobs and indexes them in a table.
type ReportStore struct {
	blob      ReportBlobWriter
	index     ReportIndex
	container string
	now       func() time.Time
}

// NewReportStore creates a ReportStore writing into container.
func NewReportStore(blob ReportBlobWriter, index ReportIndex, container string) *ReportStore {
	return &ReportStore{blob: blob, index: index, container: container, now: time.Now}
}

// SaveReport stores report under "<kind>/<timestamp>-<id>.json" and records it.
func (s *ReportStore) SaveReport(ctx context.Context, kind string, report any) (models.SavedReport, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return models.SavedReport{}, fmt.Errorf("failed to marshal %s report: %w", kind, err)
	}

	now := s.now().UTC()
	saved := models.SavedReport{
		ID:        uuid.New().String(),
		Kind:      kind,
		CreatedAt: now.Format(time.RFC3339),
	}
	saved.BlobName = fmt.Sprintf("%s/%s-%s.json", kind, now.Format("20060102-150405"), saved.ID)

	if err := s.blob.UploadBytes(ctx, s.container, saved.BlobName, data); err != nil {
		return models.SavedReport{}, err
	}
	if err := s.index.RecordReport(ctx, saved); err != nil {
		return models.SavedReport{}, err
	}

	slog.Info("saved report", "kind", kind, "id", saved.ID, "blob_name", saved.BlobName, "size_bytes", len(data))
	return saved, nil
}
