package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

var extensions = []string{".json", ".yaml", ".yml", ".xlsx"}

// Plural returns the collection name of an entity: products, categories...
func Plural(entity mapping.EntityType) string {
	if entity == mapping.EntityCategory {
		return "categories"
	}
	return string(entity) + "s"
}

// FindFile looks for the export of entity in dir, trying the plural name
// first. It returns "" when no file exists.
func FindFile(dir string, entity mapping.EntityType) string {
	for _, name := range []string{Plural(entity), string(entity)} {
		for _, ext := range extensions {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// ReadFile reads the records of one entity from a JSON, YAML or XLSX export.
// A missing file is logged and yields no records.
func ReadFile(path string, entity mapping.EntityType, log *logger.Logger) ([]common.Record, error) {
	if path == "" {
		log.WithEntity(string(entity)).Warn("No source file found, skipping")
		return []common.Record{}, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.WithEntity(string(entity)).Warnf("Source file %s does not exist, skipping", path)
		return []common.Record{}, nil
	}

	var (
		records []common.Record
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		records, err = readXLSX(path, entity)
	case ".yaml", ".yml":
		records, err = readDocument(path, entity, yaml.Unmarshal)
	default:
		records, err = readDocument(path, entity, json.Unmarshal)
	}
	if err != nil {
		return nil, err
	}

	log.WithEntity(string(entity)).Infof("Read %d records from %s", len(records), path)
	return records, nil
}

// readDocument accepts a list of records, an object holding the list under the
// entity name (plural or singular), or a single record.
func readDocument(path string, entity mapping.EntityType, unmarshal func([]byte, interface{}) error) ([]common.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc interface{}
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if obj, ok := common.AsObject(doc); ok {
		for _, key := range []string{Plural(entity), string(entity), "data"} {
			if list, ok := common.AsList(obj[key]); ok {
				return toRecords(list, path)
			}
		}
		return []common.Record{common.Record(obj)}, nil
	}

	list, ok := common.AsList(doc)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list or an object of %s", path, Plural(entity))
	}
	return toRecords(list, path)
}

func toRecords(list []interface{}, path string) ([]common.Record, error) {
	records := make([]common.Record, 0, len(list))
	for i, item := range list {
		obj, ok := common.AsObject(item)
		if !ok {
			return nil, fmt.Errorf("%s: item %d is not an object", path, i)
		}
		records = append(records, common.Record(obj))
	}
	return records, nil
}

// readXLSX reads the sheet named after the entity, or the first sheet. The
// header row names the fields; cell values are kept as trimmed strings.
func readXLSX(path string, entity mapping.EntityType) ([]common.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in %s", path)
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, Plural(entity)) || strings.EqualFold(name, string(entity)) {
			sheetName = name
			break
		}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return []common.Record{}, nil
	}

	headers := rows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}

	records := make([]common.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(common.Record)
		for i, value := range row {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			if value = strings.TrimSpace(value); value != "" {
				rec[headers[i]] = value
			}
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}
	return records, nil
}
