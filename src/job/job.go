package job

import (
	"AirQualityPrep/src/config"
	"AirQualityPrep/src/datasource/file"
	"AirQualityPrep/src/processor"
	"AirQualityPrep/src/report"
	"AirQualityPrep/src/storage"
	"AirQualityPrep/src/utils"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"
)

// Result 记录一次运行的产出
type Result struct {
	Rows    int
	Columns []string
	Output  string
	Plots   []string
	XLSX    string
	Elapsed time.Duration
}

// Job 执行完整的一次处理: 读取 -> 清洗 -> 报告 -> 导出
// 同一个Job的多次Run串行执行
type Job struct {
	cfg    *config.Config
	dcfg   *config.DataConfig
	logger *storage.Logger
	out    io.Writer

	mu sync.Mutex
}

// New 创建Job, out 用于输出描述统计表, 可为nil
func New(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger, out io.Writer) *Job {
	return &Job{cfg: cfg, dcfg: dcfg, logger: logger, out: out}
}

// Run 执行一次处理, 任何阶段出错都不会写出任何输出文件
func (j *Job) Run(ctx context.Context) (*Result, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	t1 := time.Now()
	defer j.rotateLog()

	j.logger.Info(fmt.Sprintf("开始处理: %s", j.cfg.Input))
	df, err := file.ReadToDataFrame(j.cfg.Input, j.dcfg)
	if err != nil {
		return nil, fmt.Errorf("加载数据失败: %w", err)
	}
	j.logger.Info(fmt.Sprintf("读取完成: %d 行, %d 列", df.Nrow(), df.Ncol()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := processor.NewPipeline(j.dcfg, j.logger).Run(&df); err != nil {
		return nil, fmt.Errorf("处理数据失败: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if j.out != nil {
		report.Describe(j.out, df)
	}

	res := &Result{
		Rows:    df.Nrow(),
		Columns: df.Names(),
		Output:  j.cfg.Output,
	}

	// 所有输出先写入临时文件, 全部成功后再统一重命名
	st := &utils.Staging{}
	defer st.Discard()

	if j.cfg.PlotsDir != "" {
		if j.dcfg.HistogramColumn != "" {
			path := filepath.Join(j.cfg.PlotsDir, report.HistogramFile)
			err := st.Stage(path, func(w io.Writer) error {
				return report.WriteHistogram(w, df, j.dcfg.HistogramColumn, j.dcfg.HistogramBins)
			})
			if err != nil {
				return nil, fmt.Errorf("绘制直方图失败: %w", err)
			}
			res.Plots = append(res.Plots, path)
		}
		path := filepath.Join(j.cfg.PlotsDir, report.HeatmapFile)
		err := st.Stage(path, func(w io.Writer) error {
			return report.WriteCorrelationHeatmap(w, df)
		})
		if err != nil {
			return nil, fmt.Errorf("绘制热力图失败: %w", err)
		}
		res.Plots = append(res.Plots, path)
	}

	err = st.Stage(j.cfg.Output, func(w io.Writer) error { return utils.WriteCSV(w, df) })
	if err != nil {
		return nil, fmt.Errorf("保存结果失败: %w", err)
	}

	if j.cfg.XLSXOutput != "" {
		err := st.Stage(j.cfg.XLSXOutput, func(w io.Writer) error { return utils.WriteExcel(w, df) })
		if err != nil {
			return nil, fmt.Errorf("导出Excel失败: %w", err)
		}
		res.XLSX = j.cfg.XLSXOutput
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := st.Commit(); err != nil {
		return nil, fmt.Errorf("保存结果失败: %w", err)
	}

	if len(res.Plots) > 0 {
		j.logger.Info(fmt.Sprintf("图表已保存到: %s", j.cfg.PlotsDir))
	}
	j.logger.Info(fmt.Sprintf("处理后的数据已保存到: %s", j.cfg.Output))
	if res.XLSX != "" {
		j.logger.Info(fmt.Sprintf("Excel已保存到: %s", res.XLSX))
	}

	res.Elapsed = time.Since(t1)
	j.logger.Info(fmt.Sprintf("处理完成: %d 行, 耗时 %v", res.Rows, res.Elapsed))
	return res, nil
}

func (j *Job) rotateLog() {
	if err := j.logger.CheckRotate(j.cfg); err != nil {
		j.logger.Warning(fmt.Sprintf("日志轮转失败: %v", err))
	}
}
