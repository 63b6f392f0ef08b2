package processor

import (
	"AirQualityPrep/src/utils"
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// DateTimeFormat 是DateTime列的输出格式
const DateTimeFormat = "2006-01-02 15:04:05"

// 候选格式按顺序尝试, 月/日有歧义时优先月在前
var (
	dateLayouts = []string{
		"2006-01-02",
		"2006/01/02",
		"1/2/2006",
		"2/1/2006",
		"2.1.2006",
		"1-2-2006",
		"2-1-2006",
	}
	timeLayouts = []string{
		"15:04:05",
		"15.04.05",
		"15:04",
		"15.04",
	}
)

// DateTimeDeriver 拼接日期和时间列, 派生 DateTime、Hour、Day
type DateTimeDeriver struct {
	DateColumn string
	TimeColumn string
	Layout     string // 为空时从数据推断

	Resolved string // 实际使用的格式
}

func (d *DateTimeDeriver) Name() string { return "datetime" }

func (d *DateTimeDeriver) Detail() string {
	return fmt.Sprintf("时间格式: %q", d.Resolved)
}

func (d *DateTimeDeriver) ColCalculation(df *dataframe.DataFrame) error {
	for _, col := range []string{d.DateColumn, d.TimeColumn} {
		if !utils.HasColumn(*df, col) {
			return fmt.Errorf("%w: %q", ErrColumnNotFound, col)
		}
	}

	dates := df.Col(d.DateColumn).Records()
	times := df.Col(d.TimeColumn).Records()
	combined := make([]string, len(dates))
	for i := range dates {
		combined[i] = dates[i] + " " + times[i]
	}

	layout := d.Layout
	if layout == "" {
		layout = InferLayout(combined)
	}
	d.Resolved = layout

	stamps := make([]string, len(combined))
	hours := make([]int, len(combined))
	days := make([]int, len(combined))
	for i, s := range combined {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			return fmt.Errorf("%w: row %d %q: %v", ErrTimestampParse, i, s, err)
		}
		stamps[i] = t.Format(DateTimeFormat)
		hours[i] = t.Hour()
		days[i] = t.Day()
	}

	if err := mutate(df, series.New(stamps, series.String, DateTimeColumn)); err != nil {
		return err
	}
	if err := mutate(df, series.New(hours, series.Int, HourColumn)); err != nil {
		return err
	}
	return mutate(df, series.New(days, series.Int, DayColumn))
}

// InferLayout 返回第一个能解析全部值的候选格式
// 没有格式能解析全部值时返回第一个能解析首行的格式, 由调用方报告具体的错误行
func InferLayout(values []string) string {
	var firstRowMatch string
	for _, dl := range dateLayouts {
		for _, tl := range timeLayouts {
			layout := dl + " " + tl
			if parsesAll(layout, values) {
				return layout
			}
			if firstRowMatch == "" && len(values) > 0 && parses(layout, values[0]) {
				firstRowMatch = layout
			}
		}
	}
	if firstRowMatch != "" {
		return firstRowMatch
	}
	return dateLayouts[0] + " " + timeLayouts[0]
}

func parsesAll(layout string, values []string) bool {
	for _, v := range values {
		if !parses(layout, v) {
			return false
		}
	}
	return true
}

func parses(layout, v string) bool {
	_, err := time.ParseInLocation(layout, v, time.UTC)
	return err == nil
}
