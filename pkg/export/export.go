package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

// Path returns where WriteJSON puts the records of entity for target
func Path(dir string, target mapping.Target, entity mapping.EntityType) string {
	return filepath.Join(dir, string(target), string(entity)+".json")
}

// WriteJSON writes records as an indented JSON array to
// <dir>/<target>/<entity>.json and returns the path
func WriteJSON(dir string, entity mapping.EntityType, target mapping.Target, records []common.Record) (string, error) {
	path := Path(dir, target, entity)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	if records == nil {
		records = []common.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s records: %w", entity, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
