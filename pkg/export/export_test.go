package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteJSON(dir, mapping.EntityProduct, mapping.TargetCommerce, []common.Record{{"title": "Shirt"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "commerce", "product.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []map[string]interface{}{{"title": "Shirt"}}, got)

	path, err = WriteJSON(dir, mapping.EntityPage, mapping.TargetContent, nil)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
