package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocjay1/ledger-analyzer/internal/ledger"
	"github.com/rocjay1/ledger-analyzer/internal/models"
)

// invokeRequest represents the payload from Azure Functions Custom Handler.
type invokeRequest struct {
	Data     map[string]any `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// ProcessQueue handles the queue trigger for uploaded ledgers. A ledger with
// at least one readable row becomes the current ledger; otherwise the user is
// e-mailed the row problems. The message is consumed either way.
func (d *Dependencies) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("failed to read queue request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var invokeReq invokeRequest
	if err := json.Unmarshal(bodyBytes, &invokeReq); err != nil {
		slog.Error("failed to unmarshal queue request", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to unmarshal request")
		return
	}

	queueItemVal, ok := invokeReq.Data["queueItem"]
	if !ok {
		queueItemVal, ok = invokeReq.Data["queueitem"]
		if !ok {
			WriteError(w, http.StatusBadRequest, "Missing queueItem in Data")
			return
		}
	}

	queueItemStr, ok := queueItemVal.(string)
	if !ok {
		WriteError(w, http.StatusBadRequest, "queueItem is not a string")
		return
	}

	var msg ledgerMessage
	if err := json.Unmarshal([]byte(queueItemStr), &msg); err != nil {
		slog.Error("failed to unmarshal queueItem", "error", err)
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid queueItem JSON: %v", err))
		return
	}
	if msg.BlobName == "" {
		slog.Warn("queue message missing blob_name", "queue_item", queueItemStr)
		WriteError(w, http.StatusBadRequest, "Missing blob_name")
		return
	}
	if msg.Filename == "" {
		msg.Filename = msg.BlobName
	}

	ctx := r.Context()
	container := d.Config.LedgerContainer
	slog.Info("processing queue item", "blob_name", msg.BlobName, "container", container)

	data, err := d.Blob.DownloadBytes(ctx, container, msg.BlobName)
	if err != nil {
		slog.Error("failed to download ledger from blob", "blob_name", msg.BlobName, "container", container, "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to download ledger: %v", err))
		return
	}

	res, err := ledger.Parse(msg.Filename, data, slog.Default())
	var problems []string
	if err != nil {
		problems = []string{err.Error()}
	} else {
		problems = res.Errors
		for _, col := range res.MissingColumns {
			problems = append(problems, fmt.Sprintf("Missing column: %s", col))
		}
	}
	slog.Info("parsed ledger",
		"blob_name", msg.BlobName,
		"transactions_count", len(res.Transactions),
		"errors_count", len(problems),
	)

	if len(res.Transactions) == 0 {
		slog.Warn("ledger has no readable transactions", "blob_name", msg.BlobName, "errors_count", len(problems))
		if len(problems) == 0 {
			problems = []string{"The file contains no transactions"}
		}
		d.notifyUploadFailure(r, msg.Filename, problems)
		w.WriteHeader(http.StatusOK)
		return
	}

	sum := sha256.Sum256(data)
	info := models.LedgerInfo{
		BlobName:          msg.BlobName,
		Filename:          msg.Filename,
		Checksum:          hex.EncodeToString(sum[:]),
		TransactionsCount: len(res.Transactions),
		ErrorsCount:       len(problems),
		LoadedAt:          d.now().UTC().Format(time.RFC3339),
	}
	if err := d.Database.SetCurrentLedger(ctx, info); err != nil {
		slog.Error("failed to record current ledger", "blob_name", msg.BlobName, "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to record ledger: %v", err))
		return
	}

	slog.Info("queue processing complete",
		"blob_name", msg.BlobName,
		"transactions_count", info.TransactionsCount,
		"errors_count", info.ErrorsCount,
		"checksum", info.Checksum,
	)
	w.WriteHeader(http.StatusOK)
}

func (d *Dependencies) notifyUploadFailure(r *http.Request, filename string, problems []string) {
	if d.Email == nil || d.Config.UserEmail == "" {
		slog.Warn("e-mail not configured; upload failure not reported", "filename", filename)
		return
	}
	if err := d.Email.SendErrorEmail(r.Context(), []string{d.Config.UserEmail}, filename, problems); err != nil {
		slog.Error("failed to send upload failure email", "filename", filename, "error", err)
	}
}
