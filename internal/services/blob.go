package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobService stores raw ledger uploads and saved reports in Azure Blob Storage.
type BlobService struct {
	client *azblob.Client
}

// NewBlobService creates a new BlobService instance.
func NewBlobService(blobURL string) (*BlobService, error) {
	if blobURL == "" {
		return nil, fmt.Errorf("BLOB_SERVICE_URL environment variable is required")
	}

	slog.Info("initializing blob service", "blob_url", blobURL)
	var client *azblob.Client

	if isLocal(blobURL) {
		slog.Info("using Azurite shared key credentials for blob service")
		name, key := getAzuriteCredentials()
		cred, err := azblob.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client with shared key: %w", err)
		}
	} else {
		cred, err := newDefaultAzureCredential("blob")
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azblob.NewClient(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
	}

	slog.Info("blob service initialized successfully")
	return &BlobService{client: client}, nil
}

// UploadBytes writes data to a blob, creating the container when missing.
func (s *BlobService) UploadBytes(ctx context.Context, containerName, blobName string, data []byte) error {
	slog.Info("uploading blob", "container", containerName, "blob_name", blobName, "size_bytes", len(data))
	_, err := s.client.CreateContainer(ctx, containerName, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		slog.Warn("failed to create container", "container", containerName, "error", err)
	}

	if _, err := s.client.UploadBuffer(ctx, containerName, blobName, data, nil); err != nil {
		slog.Error("failed to upload blob", "container", containerName, "blob_name", blobName, "error", err)
		return fmt.Errorf("failed to upload blob %s/%s: %w", containerName, blobName, err)
	}
	return nil
}

// DownloadBytes returns the full content of a blob.
// A missing blob yields an error wrapping ErrNotFound.
func (s *BlobService) DownloadBytes(ctx context.Context, containerName, blobName string) ([]byte, error) {
	slog.Info("downloading blob", "container", containerName, "blob_name", blobName)
	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("blob %s/%s: %w", containerName, blobName, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download blob %s/%s: %w", containerName, blobName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}

	slog.Debug("downloaded blob", "container", containerName, "blob_name", blobName, "size_bytes", len(data))
	return data, nil
}

// IsNotFound reports whether err means a blob or entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
