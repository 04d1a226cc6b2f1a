package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobWriter struct {
	container string
	blobName  string
	data      []byte
	err       error
}

func (f *fakeBlobWriter) UploadBytes(ctx context.Context, containerName, blobName string, data []byte) error {
	f.container, f.blobName, f.data = containerName, blobName, data
	return f.err
}

type fakeReportIndex struct {
	recorded []models.SavedReport
}

func (f *fakeReportIndex) RecordReport(ctx context.Context, report models.SavedReport) error {
	f.recorded = append(f.recorded, report)
	return nil
}

func TestReportStore_SaveReport(t *testing.T) {
	blob := &fakeBlobWriter{}
	index := &fakeReportIndex{}
	store := NewReportStore(blob, index, "reports")
	store.now = func() time.Time { return time.Date(2024, 5, 20, 14, 30, 0, 0, time.UTC) }

	saved, err := store.SaveReport(context.Background(), "events", map[string]int{"total_amount": 42})
	require.NoError(t, err)

	_, err = uuid.Parse(saved.ID)
	assert.NoError(t, err)
	assert.Equal(t, "events", saved.Kind)
	assert.Equal(t, "2024-05-20T14:30:00Z", saved.CreatedAt)
	assert.True(t, strings.HasPrefix(saved.BlobName, "events/20240520-143000-"))
	assert.True(t, strings.HasSuffix(saved.BlobName, saved.ID+".json"))

	assert.Equal(t, "reports", blob.container)
	assert.Equal(t, saved.BlobName, blob.blobName)
	var payload map[string]int
	require.NoError(t, json.Unmarshal(blob.data, &payload))
	assert.Equal(t, 42, payload["total_amount"])

	require.Len(t, index.recorded, 1)
	assert.Equal(t, saved, index.recorded[0])
}

func TestReportStore_SaveReport_UploadError(t *testing.T) {
	blob := &fakeBlobWriter{err: errors.New("storage down")}
	index := &fakeReportIndex{}
	store := NewReportStore(blob, index, "reports")

	_, err := store.SaveReport(context.Background(), "events", map[string]int{})
	require.Error(t, err)
	assert.Empty(t, index.recorded)
}
