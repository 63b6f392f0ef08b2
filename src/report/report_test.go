package report

import (
	"AirQualityPrep/src/processor"
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]string{"2004-03-10 18:00:00", "2004-03-10 19:00:00", "2004-03-10 20:00:00", "2004-03-10 21:00:00"}, series.String, "DateTime"),
		series.New([]float64{1, 2, 3, 4}, series.Float, "a"),
		series.New([]float64{2, 4, 6, 8}, series.Float, "b"),
		series.New([]float64{4, 3, 2, math.NaN()}, series.Float, "c"),
		series.New([]int{18, 19, 20, 21}, series.Int, "Hour"),
	)
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte("\x89PNG"), data[:4])
}

func TestHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", HistogramFile)
	require.NoError(t, Histogram(testFrame(), "c", 30, path))
	assertPNG(t, path)
}

func TestHistogramErrors(t *testing.T) {
	dir := t.TempDir()
	df := testFrame()

	err := Histogram(df, "missing", 10, filepath.Join(dir, "x.png"))
	assert.ErrorIs(t, err, processor.ErrColumnNotFound)

	err = Histogram(df, "DateTime", 10, filepath.Join(dir, "x.png"))
	assert.ErrorIs(t, err, processor.ErrNotNumeric)

	empty := dataframe.New(series.New([]float64{math.NaN()}, series.Float, "v"))
	err = Histogram(empty, "v", 10, filepath.Join(dir, "x.png"))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCorrelationMatrix(t *testing.T) {
	names, m := CorrelationMatrix(testFrame())
	require.Equal(t, []string{"a", "b", "c", "Hour"}, names)

	for i := range names {
		assert.InDelta(t, 1, m[i][i], 1e-12, names[i])
		for j := range names {
			assert.Equal(t, m[i][j], m[j][i])
		}
	}
	assert.InDelta(t, 1, m[0][1], 1e-12)
	// c与a只在前三行都有值
	assert.InDelta(t, -1, m[0][2], 1e-12)
	assert.InDelta(t, 1, m[0][3], 1e-12)
}

func TestCorrelationMatrixConstantColumn(t *testing.T) {
	df := dataframe.New(
		series.New([]float64{1, 2, 3}, series.Float, "a"),
		series.New([]float64{5, 5, 5}, series.Float, "flat"),
	)
	_, m := CorrelationMatrix(df)
	assert.True(t, math.IsNaN(m[0][1]))
}

func TestCorrelationHeatmap(t *testing.T) {
	path := filepath.Join(t.TempDir(), HeatmapFile)
	require.NoError(t, CorrelationHeatmap(testFrame(), path))
	assertPNG(t, path)

	onlyText := dataframe.New(series.New([]string{"x"}, series.String, "s"))
	assert.ErrorIs(t, CorrelationHeatmap(onlyText, path), ErrNoData)
}

func TestDescribe(t *testing.T) {
	var buf bytes.Buffer
	Describe(&buf, testFrame())

	out := buf.String()
	assert.Contains(t, strings.ToLower(out), "4 rows x 5 columns")
	assert.Contains(t, out, "Hour")
	assert.Contains(t, out, "2.5000")
	assert.NotContains(t, out, "DateTime")

	sums := Summarize(testFrame())
	require.Len(t, sums, 4)
	assert.Equal(t, "c", sums[2].Name)
	assert.Equal(t, 3, sums[2].Count)
	assert.InDelta(t, 3, sums[2].Mean, 1e-12)
	assert.InDelta(t, 1, sums[2].Std, 1e-12)
	assert.Equal(t, 2.0, sums[2].Min)
	assert.Equal(t, 4.0, sums[2].Max)
}
