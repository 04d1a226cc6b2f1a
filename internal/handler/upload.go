package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

const maxUploadBytes = 10 << 20

// ledgerMessage is the queue payload linking an upload to its blob.
type ledgerMessage struct {
	BlobName string `json:"blob_name"`
	Filename string `json:"filename"`
}

// HandleUpload stores an uploaded ledger file and queues it for processing.
func (d *Dependencies) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		slog.Warn("upload attempt with invalid method", "method", r.Method, "path", r.URL.Path)
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		slog.Warn("failed to parse multipart form", "error", err, "max_size_mb", maxUploadBytes>>20)
		WriteError(w, http.StatusBadRequest, "File too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Warn("failed to get file from form", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to get file")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx", ".xlsm":
	default:
		slog.Warn("rejected upload with unsupported extension", "filename", filename)
		WriteError(w, http.StatusBadRequest, "Only .csv and .xlsx ledgers are supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed to read uploaded file", "filename", filename, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	slog.Info("received ledger upload", "filename", filename, "size_bytes", len(data))

	container := d.Config.LedgerContainer
	blobName := fmt.Sprintf("uploads/%s-%s", d.now().Format("20060102-150405"), filename)
	if err := d.Blob.UploadBytes(r.Context(), container, blobName, data); err != nil {
		slog.Error("failed to upload blob", "blob_name", blobName, "container", container, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to upload blob: "+err.Error())
		return
	}

	queue := d.Config.LedgerQueue
	msg := ledgerMessage{BlobName: blobName, Filename: filename}
	if err := d.Queue.EnqueueMessage(r.Context(), queue, msg); err != nil {
		slog.Error("failed to enqueue message", "queue", queue, "filename", filename, "blob_name", blobName, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to enqueue message: "+err.Error())
		return
	}
	slog.Info("queued ledger for processing", "queue", queue, "filename", filename, "blob_name", blobName)

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":    "queued",
		"blob_name": blobName,
	})
}
