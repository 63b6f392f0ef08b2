package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, dcfg, err := Load(t.TempDir(), "config.json", "dataconfig.json")
	require.NoError(t, err)

	assert.Equal(t, "data/AirQualityUCI.csv", cfg.Input)
	assert.Equal(t, time.Hour, time.Duration(cfg.ScheduleInterval))
	assert.Equal(t, "CO(GT)", dcfg.ImputeColumn)
	assert.Equal(t, -200.0, dcfg.Sentinel)
	assert.Equal(t, []string{"T", "RH", "AH"}, dcfg.MinMaxColumns)
	assert.True(t, dcfg.Source.DropEmptyRows)
	// 默认输入是分号分隔、逗号小数的UCI文件
	assert.Equal(t, ",", dcfg.Source.Decimal)
	assert.Empty(t, dcfg.Source.Delimiter)
}

func TestLoadConfigOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{"input": "in.csv", "schedule_interval": "5m"}`)
	writeFile(t, dir, "dataconfig.json", `{
		"impute_column": "NOx(GT)",
		"source": {"delimiter": ";", "decimal": ","}
	}`)

	cfg, dcfg, err := Load(dir, "config.json", "dataconfig.json")
	require.NoError(t, err)

	assert.Equal(t, "in.csv", cfg.Input)
	assert.Equal(t, "data/AirQuality_cleaned.csv", cfg.Output)
	assert.Equal(t, 5*time.Minute, time.Duration(cfg.ScheduleInterval))
	assert.Equal(t, "NOx(GT)", dcfg.ImputeColumn)
	assert.Equal(t, ";", dcfg.Source.Delimiter)
	assert.Equal(t, ",", dcfg.Source.Decimal)
	// 未出现的字段保留默认值
	assert.Equal(t, "utf-8", dcfg.Source.Encoding)
	assert.Equal(t, 30, dcfg.HistogramBins)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{"schedule_interval": "soon"}`)
	writeFile(t, dir, "dataconfig.json", `{not json`)

	_, _, err := Load(dir, "config.json", "dataconfig.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "解析Config失败")
	assert.Contains(t, err.Error(), "解析DataConfig失败")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(dc *DataConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(*DataConfig) {}},
		{
			name:    "overlapping groups",
			mutate:  func(dc *DataConfig) { dc.MinMaxColumns = append(dc.MinMaxColumns, "C6H6(GT)") },
			wantErr: "C6H6(GT)",
		},
		{
			name:    "empty impute column",
			mutate:  func(dc *DataConfig) { dc.ImputeColumn = "" },
			wantErr: "impute_column",
		},
		{
			name:    "comma decimal with comma delimiter",
			mutate:  func(dc *DataConfig) { dc.Source.Decimal = ","; dc.Source.Delimiter = "," },
			wantErr: "逗号",
		},
		{
			name:    "unknown delimiter",
			mutate:  func(dc *DataConfig) { dc.Source.Delimiter = "|" },
			wantErr: "分隔符",
		},
		{
			name:    "zero bins",
			mutate:  func(dc *DataConfig) { dc.HistogramBins = 0 },
			wantErr: "histogram_bins",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dc := DefaultDataConfig()
			tt.mutate(dc)
			err := dc.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDurationJSON(t *testing.T) {
	b, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.JSONEq(t, `"1m30s"`, string(b))

	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"2h"`), &d))
	assert.Equal(t, 2*time.Hour, time.Duration(d))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
