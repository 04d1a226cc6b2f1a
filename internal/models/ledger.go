package models

// LedgerInfo describes the ledger upload that reports are currently built from.
type LedgerInfo struct {
	BlobName          string `json:"blob_name"`
	Filename          string `json:"filename"`
	Checksum          string `json:"checksum"` // SHA-256 of the raw file
	TransactionsCount int    `json:"transactions_count"`
	ErrorsCount       int    `json:"errors_count"`
	LoadedAt          string `json:"loaded_at"` // RFC 3339
}
