// data.go
package processor

import (
	"AirQualityPrep/src/config"
	"AirQualityPrep/src/storage"
	"AirQualityPrep/src/utils"
	"fmt"
	"math"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// 派生列名
const (
	DateTimeColumn = "DateTime"
	HourColumn     = "Hour"
	DayColumn      = "Day"
)

// DataProcess 是流水线中的一个步骤, 原地修改DataFrame
type DataProcess interface {
	Name() string
	ColCalculation(data *dataframe.DataFrame) error
}

// Pipeline 按固定顺序执行各步骤, 每个步骤只执行一次
type Pipeline struct {
	steps  []DataProcess
	logger *storage.Logger
}

// NewPipeline 构建清洗流程: 均值填充 -> 哨兵值过滤 -> 标准化 -> 归一化 -> 时间特征
func NewPipeline(dcfg *config.DataConfig, logger *storage.Logger) *Pipeline {
	return &Pipeline{
		steps: []DataProcess{
			&MeanImputer{Column: dcfg.ImputeColumn},
			&SentinelFilter{Sentinel: dcfg.Sentinel},
			&StandardScaler{Columns: dcfg.StandardizeColumns},
			&MinMaxScaler{Columns: dcfg.MinMaxColumns},
			&DateTimeDeriver{
				DateColumn: dcfg.DateColumn,
				TimeColumn: dcfg.TimeColumn,
				Layout:     dcfg.DateTimeLayout,
			},
		},
		logger: logger,
	}
}

// Steps 返回流程中的步骤, 执行后可读取各步骤拟合出的参数
func (p *Pipeline) Steps() []DataProcess {
	return p.steps
}

// Run 依次执行所有步骤, 任一步骤出错立即返回
func (p *Pipeline) Run(df *dataframe.DataFrame) error {
	for _, step := range p.steps {
		t1 := time.Now()
		before := df.Nrow()

		if err := step.ColCalculation(df); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}

		p.logger.Info(fmt.Sprintf("%s 完成: %d -> %d 行, 耗时 %v",
			step.Name(), before, df.Nrow(), time.Since(t1)))
		if d, ok := step.(interface{ Detail() string }); ok {
			p.logger.Debug(d.Detail())
		}
	}
	return nil
}

// numericValues 取出数值列的float视图, 缺失值为NaN
func numericValues(df dataframe.DataFrame, name string) ([]float64, error) {
	if !utils.HasColumn(df, name) {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	s := df.Col(name)
	if !IsNumeric(s) {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotNumeric, name, s.Type())
	}
	return s.Float(), nil
}

// IsNumeric 判断是否为数值列
func IsNumeric(s series.Series) bool {
	return s.Type() == series.Int || s.Type() == series.Float
}

// present 返回非NaN的值
func present(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// mutate 覆盖或新增一列并检查gota的错误
func mutate(df *dataframe.DataFrame, s series.Series) error {
	out := df.Mutate(s)
	if out.Err != nil {
		return fmt.Errorf("mutate %q: %w", s.Name, out.Err)
	}
	*df = out
	return nil
}
