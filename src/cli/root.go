// Package cli 提供 airprep 命令行入口
package cli

import (
	"AirQualityPrep/src/config"
	"AirQualityPrep/src/job"
	"AirQualityPrep/src/storage"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// 配置文件名
const (
	ConfigFile     = "config.json"
	DataConfigFile = "dataconfig.json"
)

// Version 在构建时设置
var Version = "0.1.0"

// Loader 从目录读取两份配置
type Loader func(jsonFolder, jsonFile, dataJsonFile string) (*config.Config, *config.DataConfig, error)

// options 保存命令行参数, 非空参数覆盖配置文件
type options struct {
	configDir string
	verbose   bool
	input     string
	output    string
	plotsDir  string
	xlsx      string
}

// app 是单次命令执行期间共享的状态
type app struct {
	cfg    *config.Config
	dcfg   *config.DataConfig
	logger *storage.Logger
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func (a *app) newJob(cmd *cobra.Command) *job.Job {
	return job.New(a.cfg, a.dcfg, a.logger, cmd.OutOrStdout())
}

// NewRootCmd 创建根命令, load 为配置加载函数
func NewRootCmd(load Loader) *cobra.Command {
	opts := &options{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "airprep",
		Short: "airprep - 空气质量数据清洗工具",
		Long: `airprep 读取空气质量监测数据(csv/xlsx), 依次完成缺失值填充、哨兵值过滤、
标准化、归一化和时间特征派生, 输出清洗后的CSV、直方图和相关系数热力图。`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			cfg, dcfg, err := load(opts.configDir, ConfigFile, DataConfigFile)
			if err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			applyOverrides(cfg, opts)

			logger, err := storage.NewLogger(cfg.LogName, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("初始化日志失败: %w", err)
			}
			if opts.verbose {
				logger.SetLevel(storage.DEBUG)
			}

			a.cfg, a.dcfg, a.logger = cfg, dcfg, logger
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configDir, "config", "config", "配置文件目录, 包含 config.json 和 dataconfig.json")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "输出调试日志")
	pf.StringVar(&opts.input, "input", "", "输入数据文件(csv/xlsx)")
	pf.StringVar(&opts.output, "output", "", "清洗结果csv路径")
	pf.StringVar(&opts.plotsDir, "plots", "", "图表输出目录")
	pf.StringVar(&opts.xlsx, "xlsx", "", "额外导出xlsx的路径")

	rootCmd.AddCommand(newRunCommand(a))
	rootCmd.AddCommand(newWatchCommand(a))
	rootCmd.AddCommand(newScheduleCommand(a))

	return rootCmd
}

func applyOverrides(cfg *config.Config, opts *options) {
	if opts.input != "" {
		cfg.Input = opts.input
	}
	if opts.output != "" {
		cfg.Output = opts.output
	}
	if opts.plotsDir != "" {
		cfg.PlotsDir = opts.plotsDir
	}
	if opts.xlsx != "" {
		cfg.XLSXOutput = opts.xlsx
	}
}

// signalContext 在收到 SIGINT/SIGTERM 时取消, 收到 SIGHUP 时重新打开日志文件
func signalContext(parent context.Context, logger *storage.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := logger.Reopen(""); err != nil {
					logger.Error(fmt.Sprintf("重新打开日志失败: %v", err))
					continue
				}
				logger.Info("收到SIGHUP, 日志文件已重新打开")
			}
		}
	}()

	return ctx, stop
}
