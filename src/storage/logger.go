package storage

import (
	"AirQualityPrep/src/config"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LogLevel 定义日志级别类型
type LogLevel int

// 日志级别常量定义
const (
	DEBUG   LogLevel = iota // 调试信息
	INFO                    // 普通信息
	WARNING                 // 警告信息
	ERROR                   // 错误信息
	FATAL                   // 致命错误
)

// Logger 日志记录器结构体
type Logger struct {
	filename string     // 日志文件路径, 为空时只输出到控制台
	file     *os.File   // 日志文件句柄
	console  io.Writer  // 控制台输出, 可为nil
	level    LogLevel   // 最低输出级别
	mu       sync.Mutex // 互斥锁，保证并发安全
}

// NewLogger 创建新的日志记录器
// 参数:
//
//	filename: 日志文件路径, 为空则不写文件
//	console: 同步输出的控制台, 为nil则不输出
//
// 返回值:
//
//	*Logger: 日志记录器实例
//	error: 创建过程中的错误
func NewLogger(filename string, console io.Writer) (*Logger, error) {
	l := &Logger{
		filename: filename,
		console:  console,
		level:    INFO,
	}
	if filename == "" {
		return l, nil
	}

	// 打开或创建日志文件，权限设置为0644
	file, err := openLogFile(filename)
	if err != nil {
		return nil, err
	}
	l.file = file
	return l, nil
}

func openLogFile(filename string) (*os.File, error) {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
	}
	return os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// SetLevel 设置最低输出级别
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close 关闭日志文件
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Reopen 重新打开一个文件, 用于外部轮转后(SIGHUP)恢复写入
// 参数：
// filename：新文件的路径, 为空时重新打开原路径
// 返回值：
// error：重建文件时的错误
func (l *Logger) Reopen(filename string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if filename == "" {
		filename = l.filename
	}
	if filename == "" {
		return nil
	}

	// 关闭旧文件
	if l.file != nil {
		_ = l.file.Close()
	}

	// 重新打开
	file, err := openLogFile(filename)
	if err != nil {
		l.file = nil
		return err
	}
	l.file = file
	l.filename = filename
	return nil
}

// Log 记录日志方法
// 参数:
//
//	level: 日志级别
//	message: 日志消息内容
func (l *Logger) Log(level LogLevel, message string) {
	l.mu.Lock()         // 加锁保证线程安全
	defer l.mu.Unlock() // 方法结束时自动解锁

	if level < l.level {
		return
	}

	// 格式化日志条目: [时间] 级别: 消息
	entry := fmt.Sprintf("[%s] %s: %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		level.String(),
		message)

	if l.file != nil {
		_, _ = l.file.WriteString(entry)
	}
	if l.console != nil {
		_, _ = io.WriteString(l.console, entry)
	}
}

// CheckRotate 日志文件超过 log_max_size 时进行轮转
func (l *Logger) CheckRotate(cfg *config.Config) error {
	l.mu.Lock()
	file := l.file
	l.mu.Unlock()
	if file == nil {
		return nil
	}

	maxSize, err := eval(cfg.LogMaxSize)
	if err != nil {
		return fmt.Errorf("log_max_size 无效: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return err
	}

	if maxSize > 0 && info.Size() > maxSize {
		return l.rotateLog()
	}
	return nil
}

func (l *Logger) rotateLog() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		_ = l.file.Close()
		ext := filepath.Ext(l.filename)
		rotated := fmt.Sprintf("%s.%s%s",
			strings.TrimSuffix(l.filename, ext),
			time.Now().Format("20060102150405"),
			ext)
		if err := os.Rename(l.filename, rotated); err != nil {
			return fmt.Errorf("日志轮转失败: %w", err)
		}
	}

	file, err := openLogFile(l.filename)
	if err != nil {
		l.file = nil
		return err
	}
	l.file = file
	return nil
}

// String 实现LogLevel的String方法
// 返回值:
//
//	string: 日志级别的字符串表示
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// eval 计算形如 "10 * 1024 * 1024" 的乘法表达式
func eval(expr string) (int64, error) {
	if strings.TrimSpace(expr) == "" {
		return 0, nil
	}
	parts := strings.Split(expr, "*")
	var result int64 = 1
	for _, part := range parts {
		num, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, err
		}
		result *= num
	}
	return result, nil
}

// 以下是快捷日志方法
func (l *Logger) Debug(msg string)   { l.Log(DEBUG, msg) }   // 记录调试信息
func (l *Logger) Info(msg string)    { l.Log(INFO, msg) }    // 记录普通信息
func (l *Logger) Warning(msg string) { l.Log(WARNING, msg) } // 记录警告信息
func (l *Logger) Error(msg string)   { l.Log(ERROR, msg) }   // 记录错误信息
func (l *Logger) Fatal(msg string)   { l.Log(FATAL, msg) }   // 记录致命错误
