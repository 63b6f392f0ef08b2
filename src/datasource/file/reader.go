// reader.go
package file

import (
	"AirQualityPrep/src/config"
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
)

var (
	// ErrReadFile 输入文件无法打开或读取
	ErrReadFile = errors.New("read data file")
	// ErrParseFile 输入文件内容格式错误
	ErrParseFile = errors.New("parse data file")
)

const (
	Number       string = `^[+-]?[0-9]*\.?[0-9]+([eE][+-]?[0-9]+)?$`
	DecimalComma string = `^[+-]?[0-9]+,[0-9]+$`
)

// 预编译
var (
	numberRe       = regexp.MustCompile(Number)
	decimalCommaRe = regexp.MustCompile(DecimalComma)
)

// ReadToDataFrame 根据扩展名读取csv或xlsx文件
func ReadToDataFrame(filePath string, dcfg *config.DataConfig) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		return ReadXLSX(filePath, dcfg)
	default:
		return ReadCSV(filePath, dcfg.Source)
	}
}

// ReadCSV 读取分隔文本文件
func ReadCSV(filePath string, src config.SourceConfig) (dataframe.DataFrame, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	defer f.Close()

	return ReadCSVFrom(f, src)
}

// ReadCSVFrom 从reader中读取分隔文本, 整体成功或整体失败
func ReadCSVFrom(r io.Reader, src config.SourceConfig) (dataframe.DataFrame, error) {
	decoded, err := charsetReader(src.Encoding, r)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %w", ErrParseFile, err)
	}

	br := bufio.NewReader(decoded)
	delim, err := resolveDelimiter(br, src.Delimiter)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	// 逗号既是分隔符又是小数点时字段会被拆开
	if delim == ',' && src.Decimal == "," {
		return dataframe.DataFrame{}, fmt.Errorf("%w: decimal comma with comma delimiter", ErrParseFile)
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	records, err := cr.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %w", classifyReadErr(err), err)
	}

	if src.Decimal == "," {
		normalizeDecimalComma(records)
	}

	return recordsToDataFrame(records, src)
}

// csv解析错误属于格式错误, 其他为读取错误
func classifyReadErr(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return ErrParseFile
	}
	return ErrReadFile
}

// resolveDelimiter 未配置分隔符时根据表头行识别
func resolveDelimiter(br *bufio.Reader, configured string) (rune, error) {
	if configured != "" {
		return []rune(configured)[0], nil
	}

	head, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	if len(head) == 0 {
		return 0, fmt.Errorf("%w: empty file", ErrParseFile)
	}
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	semis := bytes.Count(head, []byte{';'})
	commas := bytes.Count(head, []byte{','})
	tabs := bytes.Count(head, []byte{'\t'})
	switch {
	case tabs > semis && tabs > commas:
		return '\t', nil
	case semis > commas:
		return ';', nil
	default:
		return ',', nil
	}
}

// normalizeDecimalComma 把 "2,6" 形式的数值改写为 "2.6"
func normalizeDecimalComma(records [][]string) {
	for i := 1; i < len(records); i++ {
		for j, v := range records[i] {
			if decimalCommaRe.MatchString(v) {
				records[i][j] = strings.Replace(v, ",", ".", 1)
			}
		}
	}
}

// recordsToDataFrame 将表头+数据行转换为DataFrame
func recordsToDataFrame(records [][]string, src config.SourceConfig) (dataframe.DataFrame, error) {
	if len(records) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: empty file", ErrParseFile)
	}

	header := records[0]
	rows := records[1:]

	if src.DropEmptyRows {
		rows = dropEmptyRows(rows)
	}
	if src.DropEmptyColumns {
		header, rows = dropEmptyColumns(header, rows)
	}
	if len(header) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: no columns", ErrParseFile)
	}

	// 全部缺失的列无法推断类型, 按数值列处理
	types := make(map[string]series.Type)
	for j, name := range header {
		allMissing := true
		for _, row := range rows {
			if !isMissing(row[j], src.NAValues) {
				allMissing = false
				break
			}
		}
		if allMissing {
			types[name] = series.Float
		}
	}

	df := dataframe.LoadRecords(
		append([][]string{header}, rows...),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(src.NAValues),
		dataframe.WithTypes(types),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %w", ErrParseFile, df.Err)
	}
	return df, nil
}

func isMissing(v string, naValues []string) bool {
	if strings.TrimSpace(v) == "" {
		return true
	}
	for _, na := range naValues {
		if v == na {
			return true
		}
	}
	return false
}

func dropEmptyRows(rows [][]string) [][]string {
	kept := rows[:0]
	for _, row := range rows {
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}

// dropEmptyColumns 删除表头为空且所有值为空的列(例如行尾多余的分隔符)
func dropEmptyColumns(header []string, rows [][]string) ([]string, [][]string) {
	keep := make([]int, 0, len(header))
	for j, name := range header {
		if strings.TrimSpace(name) != "" {
			keep = append(keep, j)
			continue
		}
		for _, row := range rows {
			if strings.TrimSpace(row[j]) != "" {
				keep = append(keep, j)
				break
			}
		}
	}
	if len(keep) == len(header) {
		return header, rows
	}

	newHeader := make([]string, len(keep))
	for i, j := range keep {
		newHeader[i] = header[j]
	}
	newRows := make([][]string, len(rows))
	for r, row := range rows {
		newRow := make([]string, len(keep))
		for i, j := range keep {
			newRow[i] = row[j]
		}
		newRows[r] = newRow
	}
	return newHeader, newRows
}

// ReadXLSX 读取Excel工作表
func ReadXLSX(filePath string, dcfg *config.DataConfig) (dataframe.DataFrame, error) {
	// 1. 使用tealeg/xlsx打开Excel文件
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		if _, statErr := os.Stat(filePath); statErr != nil {
			return dataframe.DataFrame{}, fmt.Errorf("%w: %w", ErrReadFile, statErr)
		}
		return dataframe.DataFrame{}, fmt.Errorf("%w: xlsx open file: %w", ErrParseFile, err)
	}

	// 2. 获取工作表, 未配置名称时取第一个
	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: excel文件中没有工作表", ErrParseFile)
	}
	sheet := xlFile.Sheets[0]
	if name := dcfg.Source.SheetName; name != "" {
		s, ok := xlFile.Sheet[name]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("%w: 工作表 %q 不存在", ErrParseFile, name)
		}
		sheet = s
	}

	// 3. 转换为Gota DataFrame
	records, err := convertSheetToRecords(sheet, dcfg.Source.HeaderRow)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	convertExcelSerials(records, dcfg.DateColumn, "2006-01-02")
	convertExcelSerials(records, dcfg.TimeColumn, "15:04:05")

	return recordsToDataFrame(records, dcfg.Source)
}

// convertSheetToRecords 将xlsx.Sheet转换为表头+数据行
func convertSheetToRecords(sheet *xlsx.Sheet, headerRow int) ([][]string, error) {
	if len(sheet.Rows) <= headerRow {
		return nil, fmt.Errorf("%w: 工作表 %q 没有表头行", ErrParseFile, sheet.Name)
	}

	// 获取列名
	var headers []string
	for _, cell := range sheet.Rows[headerRow].Cells {
		headers = append(headers, cell.Value)
	}
	// 去掉行尾的空表头
	for len(headers) > 0 && strings.TrimSpace(headers[len(headers)-1]) == "" {
		headers = headers[:len(headers)-1]
	}

	records := make([][]string, 0, len(sheet.Rows)-headerRow)
	records = append(records, headers)

	// 填充数据(从表头下一行开始)
	for _, row := range sheet.Rows[headerRow+1:] {
		if row == nil {
			continue
		}
		record := make([]string, len(headers))
		for i, cell := range row.Cells {
			if i < len(headers) { // 确保不超出列数范围
				record[i] = cell.Value
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// convertExcelSerials 把指定列中的Excel序列值转换为文本时间
func convertExcelSerials(records [][]string, colName, layout string) {
	if len(records) == 0 || colName == "" {
		return
	}
	col := -1
	for j, name := range records[0] {
		if name == colName {
			col = j
			break
		}
	}
	if col < 0 {
		return
	}
	for i := 1; i < len(records); i++ {
		records[i][col] = excelToTime(records[i][col], layout)
	}
}

// excel时间类型转time.Time类型
func excelToTime(v, layout string) string {
	// 1. 非数值直接返回原值
	if !numberRe.MatchString(v) {
		return v
	}
	excelDays, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}

	// 2. 以1899-12-30为基准, 已包含Excel 1900年闰年错误的修正
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	days := math.Floor(excelDays)
	seconds := math.Round((excelDays - days) * 86400)

	result := base.AddDate(0, 0, int(days)).Add(time.Duration(seconds) * time.Second)
	return result.Format(layout)
}
