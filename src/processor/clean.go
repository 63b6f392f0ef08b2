package processor

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// MeanImputer 用列均值填充缺失值
// 均值在填充前计算, 包含哨兵值在内的所有有效数值都参与计算
type MeanImputer struct {
	Column string

	Mean   float64 // 填充使用的均值
	Filled int     // 填充的单元格数
}

func (m *MeanImputer) Name() string { return "impute" }

func (m *MeanImputer) Detail() string {
	return fmt.Sprintf("列 %s 填充 %d 个缺失值, 均值 %.6g", m.Column, m.Filled, m.Mean)
}

func (m *MeanImputer) ColCalculation(df *dataframe.DataFrame) error {
	vals, err := numericValues(*df, m.Column)
	if err != nil {
		return err
	}

	obs := present(vals)
	if len(obs) == 0 {
		return fmt.Errorf("%w: column %q has no present values", ErrUndefinedMean, m.Column)
	}
	m.Mean = stat.Mean(obs, nil)

	m.Filled = 0
	for i, v := range vals {
		if math.IsNaN(v) {
			vals[i] = m.Mean
			m.Filled++
		}
	}

	return mutate(df, series.New(vals, series.Float, m.Column))
}

// SentinelFilter 删除任一数值列等于哨兵值的行
// 字符串列不参与比较
type SentinelFilter struct {
	Sentinel float64

	Dropped int
}

func (f *SentinelFilter) Name() string { return "filter" }

func (f *SentinelFilter) Detail() string {
	return fmt.Sprintf("删除 %d 行包含哨兵值 %g 的记录", f.Dropped, f.Sentinel)
}

func (f *SentinelFilter) ColCalculation(df *dataframe.DataFrame) error {
	before := df.Nrow()
	out := *df

	// 逐列过滤, 多次Filter等价于对所有列取"且"
	for _, name := range out.Names() {
		if out.Nrow() == 0 {
			break
		}
		if !IsNumeric(out.Col(name)) {
			continue
		}
		out = out.Filter(
			dataframe.F{
				Colname:    name,
				Comparator: series.CompFunc,
				Comparando: func(el series.Element) bool {
					return el.IsNA() || el.Float() != f.Sentinel
				},
			},
		)
		if out.Err != nil {
			return fmt.Errorf("filter %q: %w", name, out.Err)
		}
	}

	f.Dropped = before - out.Nrow()
	*df = out
	return nil
}
