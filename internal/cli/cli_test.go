package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/bondmetrics/internal/collect"
	"benritz/bondmetrics/internal/config"
	"benritz/bondmetrics/internal/report"
	"benritz/bondmetrics/internal/types"
)

var testNow = time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC)

func testApp(logs *bytes.Buffer) *App {
	return &App{
		Config: &config.Config{
			Log:    config.LogConfig{Level: "info", JSON: true},
			Output: config.OutputConfig{Format: "text", Color: false},
		},
		LogOutput: logs,
		Now:       func() time.Time { return testNow },
		NewS3: func(ctx context.Context) (collect.S3Putter, error) {
			return nil, fmt.Errorf("no s3 in tests")
		},
	}
}

func run(t *testing.T, app *App, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(app)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestPrice_Text(t *testing.T) {
	var logs bytes.Buffer
	out, _, err := run(t, testApp(&logs), "price", "1000", "0.05", "0.06", "10", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Bond Price              : $925.6126")
	assert.Contains(t, out, "Bond is trading at a discount")
}

func TestPrice_JSON(t *testing.T) {
	var logs bytes.Buffer
	out, _, err := run(t, testApp(&logs), "price", "--format", "json", "1000", "0.04", "0.04", "5", "1")
	require.NoError(t, err)

	var res report.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 1000.0, res.Metrics.Price, 1e-9)
	assert.Equal(t, types.Annual, res.Params.Frequency)
}

func TestPrice_Invalid(t *testing.T) {
	tests := []struct {
		args []string
		kind error
		msg  string
	}{
		{[]string{"1000", "1.5", "0.06", "10", "2"}, types.ErrOutOfRange, "coupon rate"},
		{[]string{"-1000", "0.05", "0.06", "10", "2"}, types.ErrOutOfRange, "face value"},
		{[]string{"1000", "-0.01", "0.06", "10", "2"}, types.ErrOutOfRange, "coupon rate"},
		{[]string{"1000", "0.05", "-0.06", "10", "2"}, types.ErrOutOfRange, "yield to maturity"},
		{[]string{"1000", "0.05", "0.06", "-5", "2"}, types.ErrOutOfRange, "years to maturity"},
		{[]string{"1000", "0.05", "0.06", "10", "-2"}, types.ErrOutOfRange, "frequency"},
		{[]string{"1000", "0.05", "0.06", "0", "2"}, types.ErrOutOfRange, "years to maturity"},
		{[]string{"1000", "0.05", "0.06", "10", "3"}, types.ErrOutOfRange, "frequency"},
		{[]string{"abc", "0.05", "0.06", "10", "2"}, types.ErrMalformedNumber, "face value"},
		{[]string{"1000", "0.05"}, types.ErrWrongArity, "expected 5"},
	}

	for _, tt := range tests {
		var logs bytes.Buffer
		out, errOut, err := run(t, testApp(&logs), append([]string{"price"}, tt.args...)...)
		require.Error(t, err, "%v", tt.args)
		assert.ErrorIs(t, err, tt.kind)
		assert.ErrorContains(t, err, tt.msg)
		assert.Empty(t, out)
		assert.Contains(t, errOut, "Usage:")
	}
}

func TestPrice_FlagsAroundNegativeArgs(t *testing.T) {
	var logs bytes.Buffer
	out, _, err := run(t, testApp(&logs), "price", "1000", "-f", "json", "0.05", "-0.06", "--no-color", "10", "2")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrOutOfRange)
	assert.ErrorContains(t, err, "yield to maturity")
	assert.Empty(t, out)
}

func TestPrice_InheritedFlags(t *testing.T) {
	var logs bytes.Buffer
	out, _, err := run(t, testApp(&logs), "price", "--debug", "--format=json", "1000", "0.05", "0.06", "10", "2")
	require.NoError(t, err)

	var res report.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 925.6126, res.Metrics.Price, 5e-5)

	assert.Contains(t, logs.String(), "computed bond metrics")
	assert.Contains(t, logs.String(), `"operation":"price"`)
}

func TestPrice_UnknownFlag(t *testing.T) {
	var logs bytes.Buffer
	_, errOut, err := run(t, testApp(&logs), "price", "--bogus", "1000", "0.05", "0.06", "10", "2")
	assert.ErrorContains(t, err, "unknown flag: --bogus")
	assert.Contains(t, errOut, "Usage:")
}

func TestPrice_Help(t *testing.T) {
	var logs bytes.Buffer
	out, _, err := run(t, testApp(&logs), "price", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Payments per year")
}

func TestPrice_BadFormat(t *testing.T) {
	var logs bytes.Buffer
	_, _, err := run(t, testApp(&logs), "price", "-f", "xml", "1000", "0.05", "0.06", "10", "2")
	assert.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestBatch_StoresParquet(t *testing.T) {
	dir := t.TempDir()
	workbook := filepath.Join(dir, "bonds.csv")
	require.NoError(t, os.WriteFile(workbook, []byte("id,face_value,coupon_rate,ytm,years,frequency\nA,1000,0.05,0.06,10,2\nB,1000,2,0.06,10,2\n"), 0644))

	var logs bytes.Buffer
	out, _, err := run(t, testApp(&logs), "batch", workbook, filepath.Join(dir, "out"))
	require.NoError(t, err)

	assert.Contains(t, out, "925.6126")
	assert.Contains(t, logs.String(), "skipping bond")
	assert.Contains(t, logs.String(), `"field":"coupon rate"`)

	records, err := collect.ReadRecords(filepath.Join(dir, "out", "2025", "03", "14", "bonds.parquet"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].ID)
}

func TestBatch_NoValidRows(t *testing.T) {
	workbook := filepath.Join(t.TempDir(), "bonds.csv")
	require.NoError(t, os.WriteFile(workbook, []byte("A,1000,0.05,0.06,0,2\n"), 0644))

	var logs bytes.Buffer
	_, _, err := run(t, testApp(&logs), "batch", workbook)
	assert.ErrorIs(t, err, ErrNoValidBonds)
}

func TestBatch_S3ClientError(t *testing.T) {
	workbook := filepath.Join(t.TempDir(), "bonds.csv")
	require.NoError(t, os.WriteFile(workbook, []byte("A,1000,0.05,0.06,10,2\n"), 0644))

	var logs bytes.Buffer
	_, _, err := run(t, testApp(&logs), "batch", workbook, "s3://gilts-data/metrics")
	assert.ErrorContains(t, err, "no s3 in tests")
}

func TestCollect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><label>Last updated: 14 Mar 2025</label><table id="mainbody">
<tr><td>T30</td><td>4 1/4% Treasury Gilt 2030</td><td>4.25%</td><td>31-Jan-2030</td><td>4.9</td><td>£98.89</td><td>4.50%</td></tr>
</table></body></html>`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	var logs bytes.Buffer
	app := testApp(&logs)
	app.Collector = &collect.DividendDataCollector{URL: srv.URL}
	app.Config.Collect.Destination = dir

	out, _, err := run(t, app, "collect")
	require.NoError(t, err)
	assert.Contains(t, out, "T30")

	records, err := collect.ReadRecords(filepath.Join(dir, "2025", "03", "14", "DividendData.parquet"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int32(5), records[0].Years)
	assert.Equal(t, "DividendData", records[0].Source)
}

func TestCollect_NoDestination(t *testing.T) {
	var logs bytes.Buffer
	_, _, err := run(t, testApp(&logs), "collect")
	assert.ErrorIs(t, err, ErrNoDestination)
}

func TestVersion(t *testing.T) {
	var logs bytes.Buffer
	out, _, err := run(t, testApp(&logs), "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}
