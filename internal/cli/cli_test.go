package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sideways-trend/internal/config"
	"sideways-trend/internal/errors"
	"sideways-trend/internal/models"
)

const acmeCSV = `Date,Close,Volume,Open,High,Low
05-Mar-15,139.00,1804500,125.90,139.50,125.60
04-Mar-15,124.90,1530200,126.00,126.40,124.50
03-Mar-15,126.10,1221000,125.40,126.30,125.20
02-Mar-15,125.50,1350800,124.80,125.90,124.60
`

const flatCSV = `Date,Close
02-Mar-15,10.00
03-Mar-15,10.00
04-Mar-15,10.00
`

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	return &App{Config: cfg, Logger: zerolog.Nop()}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd(app)
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestAnalyzeCmd(t *testing.T) {
	app := newTestApp(t)
	file := writeFile(t, "acme.csv", acmeCSV)

	out, err := run(t, app, "analyze", file)
	require.NoError(t, err)
	assert.Equal(t, "Longest sideways trend is from 02-Mar-15 to 04-Mar-15 (3 trading days)\n"+
		"Price range is 124.90 to 126.10, a 1.0% change\n", out)

	out, err = run(t, app, "analyze", file, "--max-pct-change", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "from 02-Mar-15 to 05-Mar-15 (4 trading days)")
	assert.Contains(t, out, "Price range is 124.90 to 139.00, a 11.3% change")
}

func TestAnalyzeCmd_JSONNaive(t *testing.T) {
	app := newTestApp(t)
	file := writeFile(t, "acme.csv", acmeCSV)

	out, err := run(t, app, "analyze", file, "--naive", "--json", "--symbol", "XYZ")
	require.NoError(t, err)

	var a models.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, "naive", a.Algorithm)
	assert.Equal(t, "XYZ", a.Symbol)
	assert.Equal(t, 3, a.Days)
	assert.Equal(t, int64(12490), a.Low)
	assert.Equal(t, int64(12610), a.High)
}

func TestAnalyzeCmd_Errors(t *testing.T) {
	app := newTestApp(t)
	file := writeFile(t, "acme.csv", acmeCSV)

	_, err := run(t, app, "analyze", file, "--max-pct-change", "-2")
	assert.True(t, errors.Is(err, errors.ErrConfigInvalid), "got %v", err)

	_, err = run(t, app, "analyze", writeFile(t, "empty.csv", "Date,Close\n"))
	assert.True(t, errors.Is(err, errors.ErrEmptySeries), "got %v", err)

	_, err = run(t, app, "analyze", file, "--close-column", "Last")
	assert.True(t, errors.Is(err, errors.ErrMissingColumn), "got %v", err)
}

func TestSaveImportAndHistory(t *testing.T) {
	app := newTestApp(t)
	acme := writeFile(t, "acme.csv", acmeCSV)
	flat := writeFile(t, "flat.csv", flatCSV)

	_, err := run(t, app, "analyze", acme, "--save")
	require.NoError(t, err)

	out, err := run(t, app, "import", flat)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 prices for FLAT")

	out, err = run(t, app, "symbols")
	require.NoError(t, err)
	assert.Equal(t, "ACME\nFLAT\n", out)

	out, err = run(t, app, "stored", "flat", "--max-pct-change", "0", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "(3 trading days)")
	assert.Contains(t, out, "Price range is 10.00 to 10.00, a 0.0% change")

	out, err = run(t, app, "history", "--json")
	require.NoError(t, err)
	var analyses []models.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &analyses))
	require.Len(t, analyses, 2)

	out, err = run(t, app, "history", "--symbol", "ACME")
	require.NoError(t, err)
	assert.Contains(t, out, "ACME")
	assert.Contains(t, out, "124.90")
	assert.NotContains(t, out, "FLAT")

	_, err = run(t, app, "stored", "missing")
	assert.True(t, errors.Is(err, errors.ErrSeriesNotFound), "got %v", err)
}

func TestStoreDisabled(t *testing.T) {
	app := newTestApp(t)
	app.Config.Store.Enabled = false

	_, err := run(t, app, "history")
	assert.ErrorIs(t, err, errStoreDisabled)
}

func TestScanCmd(t *testing.T) {
	app := newTestApp(t)
	acme := writeFile(t, "acme.csv", acmeCSV)
	flat := writeFile(t, "flat.csv", flatCSV)
	broken := writeFile(t, "broken.csv", "Date,Close\nyesterday,1.00\n")

	out, err := run(t, app, "scan", acme, flat, "--jobs", "2", "--save")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	acmeLine, flatLine := -1, -1
	for i, l := range lines {
		if strings.Contains(l, "ACME") {
			acmeLine = i
		}
		if strings.Contains(l, "FLAT") {
			flatLine = i
		}
	}
	require.NotEqual(t, -1, acmeLine, out)
	require.NotEqual(t, -1, flatLine, out)
	assert.Less(t, acmeLine, flatLine, "rows keep argument order")

	out, err = run(t, app, "history", "--json")
	require.NoError(t, err)
	var analyses []models.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &analyses))
	assert.Len(t, analyses, 2)

	out, err = run(t, app, "scan", acme, broken, "--json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	var results []scanResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, 3, results[0].Analysis.Days)
	assert.Nil(t, results[1].Analysis)
	assert.Contains(t, results[1].Error, "invalid date")
}

func TestVersionAndConfigCmds(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sideways v"+Version)

	out, err = run(t, app, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, app.Config.Dir+"\n", out)

	out, err = run(t, app, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	out, err = run(t, app, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Algorithm:    divide")
}

func TestRootCmd_LoadsConfigDir(t *testing.T) {
	dir := t.TempDir()
	content := "[analysis]\nmax_pct_change = 20.0\n[logging]\nfile = false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))
	file := writeFile(t, "acme.csv", acmeCSV)

	out, err := run(t, nil, "--config", dir, "analyze", file)
	require.NoError(t, err)
	assert.Contains(t, out, "(4 trading days)")
}

func TestAnalyzeCmd_LogsThroughCommandLogger(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(t)
	app.Logger = zerolog.New(&buf).Level(zerolog.InfoLevel)
	acme := writeFile(t, "acme.csv", acmeCSV)

	_, err := run(t, app, "analyze", acme)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"operation":"analyze"`)
	assert.Contains(t, buf.String(), `"symbol":"ACME"`)
	assert.Contains(t, buf.String(), `"trading_days":3`)

	buf.Reset()
	_, err = run(t, app, "scan", acme)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"operation":"scan"`)
}

func TestMaxPctChangeFlag_DefaultsFromConfig(t *testing.T) {
	app := newTestApp(t)
	app.Config.Analysis.MaxPctChange = 20
	acme := writeFile(t, "acme.csv", acmeCSV)

	cmd := NewRootCmd(app)
	analyze, _, err := cmd.Find([]string{"analyze"})
	require.NoError(t, err)
	assert.Equal(t, "0", analyze.Flags().Lookup("max-pct-change").DefValue)

	out, err := run(t, app, "analyze", acme)
	require.NoError(t, err)
	assert.Contains(t, out, "(4 trading days)")

	// An explicit zero still wins over the config.
	out, err = run(t, app, "analyze", acme, "--max-pct-change", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "(1 trading days)")
}
