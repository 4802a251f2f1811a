package faillog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_orders.log")
	logger := New(path)

	require.NoError(t, logger.Write(1001, 1001, "erp timeout"))
	require.NoError(t, logger.Write(1002, 1002, "item not found"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], "order_id=1001")
	assert.Contains(t, lines[0], "error=erp timeout")
	assert.Contains(t, lines[1], "order_id=1002")

	fields := strings.Split(lines[0], "\t")
	require.Len(t, fields, 4, "a record is four tab-separated fields")
}

func TestLogger_WriteToUnwritablePath(t *testing.T) {
	logger := New(filepath.Join(t.TempDir(), "missing", "nested", "fail.log"))

	err := logger.Write(1, 1, "boom")
	assert.Error(t, err)
}
