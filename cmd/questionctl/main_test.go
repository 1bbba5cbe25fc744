package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersQuestion = `
table: orders.
Item  Qty  Price
=====================
pen   2    1.5
book  1    12.0
Output:
=========
Item  Total
=========
pen   3.0
book  12.0
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "playground.toml")
	body := fmt.Sprintf(`
[warehouse]
dir = %q

[store]
path = %q

[outputs]
dir = %q
`, filepath.Join(dir, "warehouse"), filepath.Join(dir, "playground.db"), filepath.Join(dir, "outputs"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, ordersQuestion, "parse", "--config", cfg, "-")
	require.NoError(t, err)
	assert.Contains(t, out, "table name: orders")
	assert.Contains(t, out, "2 rows, 3 columns")
	assert.Contains(t, out, "Price")
	assert.Contains(t, out, "FLOAT")
	assert.Contains(t, out, "expected output:")
}

func TestParseCommandJSONAndExport(t *testing.T) {
	cfg := writeConfig(t)
	exportPath := filepath.Join(t.TempDir(), "rows.csv")

	out, err := run(t, ordersQuestion, "parse", "--config", cfg, "--json", "--export", exportPath)
	require.NoError(t, err)

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "orders", summary["tableName"])
	assert.Equal(t, float64(2), summary["rowCount"])

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Item,Qty,Price\n"), string(data))
}

func TestParseCommandFromFile(t *testing.T) {
	cfg := writeConfig(t)
	questionPath := filepath.Join(t.TempDir(), "q.txt")
	require.NoError(t, os.WriteFile(questionPath, []byte(ordersQuestion), 0o644))

	out, err := run(t, "", "parse", "--config", cfg, questionPath)
	require.NoError(t, err)
	assert.Contains(t, out, "orders")

	_, err = run(t, "", "parse", "--config", cfg, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestParseCommandRejectsBadQuestion(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, "nothing", "parse", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PARSE_ERROR")
}

func TestLoadAndQueryCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, ordersQuestion, "load", "--config", cfg, "--dataset", "practice")
	require.NoError(t, err)
	assert.Contains(t, out, "created with 2 rows")
	assert.Contains(t, out, "input_data.csv")

	table := "practice.orders_" + time.Now().UTC().Format("20060102")
	out, err = run(t, "", "query", "--config", cfg, "--json", "SELECT Item FROM "+table+" ORDER BY Item")
	require.NoError(t, err)

	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, float64(2), res["rowCount"])

	out, err = run(t, "", "query", "--config", cfg, "SELECT COUNT(*) AS n FROM "+table)
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows")
}
