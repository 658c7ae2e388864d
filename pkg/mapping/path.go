package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// ParsePath splits a dot-path into its segments.
// Supports: "title", "metadata.original_id", "seo.meta.title".
func ParsePath(path string) ([]string, error) {
	if path == "" {
		return nil, errors.New("empty path")
	}

	segments := strings.Split(path, ".")
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("invalid path %q: empty segment", path)
		}
	}

	return segments, nil
}
