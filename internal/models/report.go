package models

// SavedReport is an index entry for a report persisted to blob storage.
type SavedReport struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	BlobName  string `json:"blob_name"`
	CreatedAt string `json:"created_at"` // RFC 3339
}
