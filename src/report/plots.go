package report

import (
	"AirQualityPrep/src/processor"
	"AirQualityPrep/src/utils"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// 图表文件名
const (
	HistogramFile = "histogram.png"
	HeatmapFile   = "correlation_heatmap.png"
)

// ErrNoData 没有可绘制的数值
var ErrNoData = errors.New("no numeric data to plot")

// Histogram 绘制单列的分布直方图并保存为png
func Histogram(df dataframe.DataFrame, column string, bins int, path string) error {
	return utils.SaveStaged(path, func(w io.Writer) error { return WriteHistogram(w, df, column, bins) })
}

// WriteHistogram 绘制单列的分布直方图, 缺失值不参与统计
func WriteHistogram(w io.Writer, df dataframe.DataFrame, column string, bins int) error {
	if !utils.HasColumn(df, column) {
		return fmt.Errorf("%w: %q", processor.ErrColumnNotFound, column)
	}
	s := df.Col(column)
	if !processor.IsNumeric(s) {
		return fmt.Errorf("%w: %q is %s", processor.ErrNotNumeric, column, s.Type())
	}

	vals := make(plotter.Values, 0, s.Len())
	for _, v := range s.Float() {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return fmt.Errorf("%w: column %q", ErrNoData, column)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Distribution of %s", column)
	p.X.Label.Text = column
	p.Y.Label.Text = "Frequency"

	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return fmt.Errorf("histogram %q: %w", column, err)
	}
	p.Add(h)

	return writePNG(w, p, 6*vg.Inch, 4*vg.Inch)
}

// CorrelationMatrix 计算所有数值列两两之间的皮尔逊相关系数
// 每对列只使用两者都非缺失的行, 有效行不足2或方差为0时结果为NaN
func CorrelationMatrix(df dataframe.DataFrame) ([]string, [][]float64) {
	var names []string
	var cols [][]float64
	for _, name := range df.Names() {
		s := df.Col(name)
		if processor.IsNumeric(s) {
			names = append(names, name)
			cols = append(cols, s.Float())
		}
	}

	m := make([][]float64, len(cols))
	for i := range cols {
		m[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := pairwiseCorrelation(cols[i], cols[j])
			m[i][j], m[j][i] = r, r
		}
	}
	return names, m
}

func pairwiseCorrelation(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for k := range x {
		if math.IsNaN(x[k]) || math.IsNaN(y[k]) {
			continue
		}
		xs = append(xs, x[k])
		ys = append(ys, y[k])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsInf(r, 0) {
		return math.NaN()
	}
	return r
}

// corrGrid 将相关矩阵适配为plotter.GridXYZ
type corrGrid struct {
	m [][]float64
}

func (g corrGrid) Dims() (c, r int)   { return len(g.m), len(g.m) }
func (g corrGrid) Z(c, r int) float64 { return g.m[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// CorrelationHeatmap 绘制相关系数热力图并保存为png
func CorrelationHeatmap(df dataframe.DataFrame, path string) error {
	return utils.SaveStaged(path, func(w io.Writer) error { return WriteCorrelationHeatmap(w, df) })
}

// WriteCorrelationHeatmap 绘制数值列的相关系数热力图, 色标固定在[-1,1]
func WriteCorrelationHeatmap(w io.Writer, df dataframe.DataFrame) error {
	names, m := CorrelationMatrix(df)
	if len(names) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Correlation Heatmap"

	hm := plotter.NewHeatMap(corrGrid{m: m}, palette.Heat(16, 1))
	hm.Min, hm.Max = -1, 1
	p.Add(hm)

	ticks := make([]plot.Tick, len(names))
	for i, name := range names {
		ticks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = -1
	p.X.Tick.Label.YAlign = -0.5

	size := vg.Length(len(names))*0.6*vg.Inch + 2*vg.Inch
	return writePNG(w, p, size, size)
}

func writePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrWriteFile, err)
	}
	return nil
}
