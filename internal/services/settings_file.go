package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rocjay1/ledger-analyzer/internal/models"
)

// LoadSettingsFile reads dashboard settings from a JSON file such as
// {"user_currencies": ["USD"], "user_stocks": ["AAPL"]}.
// A missing file yields ErrNotFound.
func LoadSettingsFile(path string) (models.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Settings{}, fmt.Errorf("settings file %s: %w", path, ErrNotFound)
		}
		return models.Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings models.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return settings, nil
}
