package report

import (
	"AirQualityPrep/src/processor"
	"fmt"
	"io"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnSummary 是单个数值列的描述统计
type ColumnSummary struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}

// Summarize 对每个数值列计算非缺失值的个数、均值、样本标准差、最小值和最大值
func Summarize(df dataframe.DataFrame) []ColumnSummary {
	var out []ColumnSummary
	for _, name := range df.Names() {
		s := df.Col(name)
		if !processor.IsNumeric(s) {
			continue
		}
		obs := make([]float64, 0, s.Len())
		for _, v := range s.Float() {
			if !math.IsNaN(v) {
				obs = append(obs, v)
			}
		}

		cs := ColumnSummary{Name: name, Count: len(obs)}
		switch len(obs) {
		case 0:
			cs.Mean, cs.Std, cs.Min, cs.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		case 1:
			cs.Mean, cs.Std, cs.Min, cs.Max = obs[0], math.NaN(), obs[0], obs[0]
		default:
			cs.Mean, cs.Std = stat.MeanStdDev(obs, nil)
			cs.Min, cs.Max = floats.Min(obs), floats.Max(obs)
		}
		out = append(out, cs)
	}
	return out
}

// Describe 以表格形式输出数值列的描述统计
func Describe(w io.Writer, df dataframe.DataFrame) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%d rows x %d columns", df.Nrow(), df.Ncol()))
	t.AppendHeader(table.Row{"Column", "Count", "Mean", "Std", "Min", "Max"})

	for _, cs := range Summarize(df) {
		t.AppendRow(table.Row{
			cs.Name,
			cs.Count,
			formatStat(cs.Mean),
			formatStat(cs.Std),
			formatStat(cs.Min),
			formatStat(cs.Max),
		})
	}
	t.Render()
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}
