package cli

import (
	"AirQualityPrep/src/datasource/file"
	"AirQualityPrep/src/job"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

func newRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "执行一次完整的清洗流程",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()

			ctx, stop := signalContext(cmd.Context(), a.logger)
			defer stop()

			res, err := a.newJob(cmd).Run(ctx)
			if err != nil {
				a.logger.Error(err.Error())
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "清洗完成: %d 行 -> %s\n", res.Rows, res.Output)
			return nil
		},
	}
}

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "输入文件写入后自动重新处理",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()

			ctx, stop := signalContext(cmd.Context(), a.logger)
			defer stop()

			monitor, err := file.NewFileMonitor(a.cfg.Input, time.Duration(a.cfg.WatchDebounce))
			if err != nil {
				return fmt.Errorf("创建文件监听失败: %w", err)
			}
			defer monitor.Close()

			j := a.newJob(cmd)
			runLogged(ctx, a, j)

			a.logger.Info(fmt.Sprintf("文件监听已启动: %s, 按Ctrl+C退出", a.cfg.Input))
			err = monitor.Watch(ctx, func(path string) {
				a.logger.Info(fmt.Sprintf("检测到文件更新: %s", path))
				runLogged(ctx, a, j)
			})
			if err != nil {
				return fmt.Errorf("文件监听出错: %w", err)
			}
			a.logger.Info("文件监听已停止")
			return nil
		},
	}
}

func newScheduleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "按 schedule_interval 定时重新处理",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()

			ctx, stop := signalContext(cmd.Context(), a.logger)
			defer stop()

			interval := a.cfg.ScheduleInterval.String() // 例如 "1h0m0s"
			cronSpec := fmt.Sprintf("@every %s", interval)

			gate := &runGate{}
			j := a.newJob(cmd)
			c := cron.New()
			err := c.AddFunc(cronSpec, func() {
				if !gate.enter() {
					return
				}
				defer gate.leave()
				a.logger.Info(fmt.Sprintf("开始定时处理(间隔: %v)...", interval))
				runLogged(ctx, a, j)
			})
			if err != nil {
				return fmt.Errorf("创建定时任务失败: %w", err)
			}

			runLogged(ctx, a, j)

			c.Start()
			a.logger.Info(fmt.Sprintf("定时任务已启动(间隔: %v), 按Ctrl+C退出", interval))
			<-ctx.Done()

			// 等待正在执行的任务结束后再关闭日志
			c.Stop()
			gate.closeAndWait()
			a.logger.Info("定时任务已停止")
			return nil
		},
	}
}

// runLogged 执行一次Job, 失败只记录日志, 等待下一次触发
func runLogged(ctx context.Context, a *app, j *job.Job) {
	if ctx.Err() != nil {
		return
	}
	if _, err := j.Run(ctx); err != nil {
		a.logger.Error(fmt.Sprintf("处理失败: %v", err))
	}
}

// runGate 记录正在执行的定时任务, 关闭后不再接受新任务
// enter 与 closeAndWait 在同一把锁下判断状态, WaitGroup 的 Add 不会与 Wait 并发
type runGate struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func (g *runGate) enter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.wg.Add(1)
	return true
}

func (g *runGate) leave() { g.wg.Done() }

// closeAndWait 拒绝之后的任务并等待已开始的任务结束
func (g *runGate) closeAndWait() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.wg.Wait()
}
