package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	Input      string `json:"input"`       // 输入数据文件(csv/xlsx)
	Output     string `json:"output"`      // 清洗结果csv路径
	PlotsDir   string `json:"plots_dir"`   // 图表输出目录
	XLSXOutput string `json:"xlsx_output"` // 可选的xlsx导出路径, 为空则不导出

	LogName    string `json:"log_name"`
	LogMaxSize string `json:"log_max_size"` // 例如 "10 * 1024 * 1024"

	ScheduleInterval Duration `json:"schedule_interval"` // schedule 命令的执行间隔
	WatchDebounce    Duration `json:"watch_debounce"`    // watch 命令合并连续写事件的窗口
}

// SourceConfig 描述输入文件的格式
type SourceConfig struct {
	Delimiter        string   `json:"delimiter"` // 为空时根据表头自动识别
	Decimal          string   `json:"decimal"`   // "." 或 ","
	Encoding         string   `json:"encoding"`
	NAValues         []string `json:"na_values"`
	DropEmptyRows    bool     `json:"drop_empty_rows"`
	DropEmptyColumns bool     `json:"drop_empty_columns"`
	SheetName        string   `json:"sheet_name"` // 仅xlsx输入
	HeaderRow        int      `json:"header_row"` // 仅xlsx输入, 从0开始
}

// DataConfig 描述各列在清洗流程中的角色
type DataConfig struct {
	Source SourceConfig `json:"source"`

	ImputeColumn       string   `json:"impute_column"`
	Sentinel           float64  `json:"sentinel"`
	StandardizeColumns []string `json:"standardize_columns"`
	MinMaxColumns      []string `json:"minmax_columns"`

	DateColumn     string `json:"date_column"`
	TimeColumn     string `json:"time_column"`
	DateTimeLayout string `json:"datetime_layout"` // 为空时根据数据推断

	HistogramColumn string `json:"histogram_column"`
	HistogramBins   int    `json:"histogram_bins"`
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	loadErr            error
)

// DefaultConfig 返回内置默认配置
func DefaultConfig() *Config {
	return &Config{
		Input:            "data/AirQualityUCI.csv",
		Output:           "data/AirQuality_cleaned.csv",
		PlotsDir:         "plots",
		LogName:          "airprep.log",
		LogMaxSize:       "10 * 1024 * 1024",
		ScheduleInterval: Duration(time.Hour),
		WatchDebounce:    Duration(500 * time.Millisecond),
	}
}

// DefaultDataConfig 返回与数据集约定一致的列配置
func DefaultDataConfig() *DataConfig {
	return &DataConfig{
		Source: SourceConfig{
			Decimal:          ",",
			Encoding:         "utf-8",
			NAValues:         []string{"", "NA", "NaN", "nan"},
			DropEmptyRows:    true,
			DropEmptyColumns: true,
			SheetName:        "AirQualityUCI",
		},
		ImputeColumn:       "CO(GT)",
		Sentinel:           -200,
		StandardizeColumns: []string{"CO(GT)", "PT08.S1(CO)", "C6H6(GT)"},
		MinMaxColumns:      []string{"T", "RH", "AH"},
		DateColumn:         "Date",
		TimeColumn:         "Time",
		HistogramColumn:    "CO(GT)",
		HistogramBins:      30,
	}
}

// LoadConfig 只加载一次配置, 后续调用返回同一实例
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	once.Do(func() {
		instance, dataConfigInstance, loadErr = Load(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, loadErr
}

// Load 读取并校验配置, 文件不存在时使用默认值
func Load(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	if err := dcfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, dcfg, nil
}

// readFile 读取配置文件, 文件不存在时返回nil表示使用默认值
func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	cfg := DefaultConfig()
	if len(data) > 0 {
		if err := json.Unmarshal(data, cfg); err != nil {
			errChan <- fmt.Errorf("解析Config失败: %w", err)
			return
		}
	}
	resultChan <- cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	dcfg := DefaultDataConfig()
	if len(data) > 0 {
		if err := json.Unmarshal(data, dcfg); err != nil {
			errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
			return
		}
	}
	resultChan <- dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg  *Config
		dcfg *DataConfig
		errs []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, nil, combineErrors(errs)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return fmt.Errorf("配置加载遇到多个错误: %w", errors.Join(errs...))
}

// Validate 检查列配置是否自洽
func (dc *DataConfig) Validate() error {
	var errs []error

	if dc.ImputeColumn == "" {
		errs = append(errs, errors.New("impute_column 不能为空"))
	}
	if dc.DateColumn == "" || dc.TimeColumn == "" {
		errs = append(errs, errors.New("date_column 和 time_column 不能为空"))
	}
	if dc.HistogramBins <= 0 {
		errs = append(errs, fmt.Errorf("histogram_bins 必须大于0: %d", dc.HistogramBins))
	}

	// 两个缩放分组必须不相交
	std := make(map[string]bool, len(dc.StandardizeColumns))
	for _, c := range dc.StandardizeColumns {
		std[c] = true
	}
	for _, c := range dc.MinMaxColumns {
		if std[c] {
			errs = append(errs, fmt.Errorf("列 %q 同时出现在 standardize_columns 和 minmax_columns 中", c))
		}
	}

	switch dc.Source.Delimiter {
	case "", ";", ",", "\t":
	default:
		errs = append(errs, fmt.Errorf("不支持的分隔符: %q", dc.Source.Delimiter))
	}
	switch dc.Source.Decimal {
	case ".", ",":
	default:
		errs = append(errs, fmt.Errorf("不支持的小数点: %q", dc.Source.Decimal))
	}
	if dc.Source.Decimal == "," && dc.Source.Delimiter == "," {
		errs = append(errs, errors.New("小数点与分隔符不能同为逗号"))
	}
	if dc.Source.HeaderRow < 0 {
		errs = append(errs, fmt.Errorf("header_row 不能为负数: %d", dc.Source.HeaderRow))
	}

	return errors.Join(errs...)
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
// 用于从JSON字符串解析Duration
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
// 用于将Duration序列化为JSON字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d Duration) String() string { return time.Duration(d).String() }
