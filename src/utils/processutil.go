package utils

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// ErrWriteFile 输出文件无法写入
var ErrWriteFile = errors.New("write output file")

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// 辅助函数：判断DataFrame是否有某列
func HasColumn(df dataframe.DataFrame, name string) bool {
	return Contains(df.Names(), name)
}

// WriteCSV 以逗号分隔写出带表头的CSV
func WriteCSV(w io.Writer, df dataframe.DataFrame) error {
	if err := df.WriteCSV(w, dataframe.WriteHeader(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFile, err)
	}
	return nil
}

// SaveToCSV 写出CSV, 先写入同目录的临时文件再重命名, 失败时不会留下不完整的输出
func SaveToCSV(df dataframe.DataFrame, filePath string) error {
	return SaveStaged(filePath, func(w io.Writer) error { return WriteCSV(w, df) })
}

// WriteExcel 将DataFrame写入xlsx的Sheet1, 缺失值写为空单元格
func WriteExcel(w io.Writer, df dataframe.DataFrame) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"

	// 写入列名
	colNames := df.Names()
	header := make([]interface{}, len(colNames))
	for i, name := range colNames {
		header[i] = name
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFile, err)
	}

	cols := make([]series.Series, len(colNames))
	for i, name := range colNames {
		cols[i] = df.Col(name)
	}

	// 写入数据
	for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
		row := make([]interface{}, len(cols))
		for colIdx, col := range cols {
			row[colIdx] = cellValue(col, rowIdx)
		}
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWriteFile, err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteFile, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: 保存Excel文件失败: %v", ErrWriteFile, err)
	}
	return nil
}

// SaveToExcel 写出xlsx, 与 SaveToCSV 一样先写临时文件
func SaveToExcel(df dataframe.DataFrame, filePath string) error {
	return SaveStaged(filePath, func(w io.Writer) error { return WriteExcel(w, df) })
}

// SaveStaged 通过临时文件写出单个文件
func SaveStaged(filePath string, write func(w io.Writer) error) error {
	st := &Staging{}
	defer st.Discard()
	if err := st.Stage(filePath, write); err != nil {
		return err
	}
	return st.Commit()
}

func cellValue(col series.Series, i int) interface{} {
	el := col.Elem(i)
	if el.IsNA() {
		return nil
	}
	switch col.Type() {
	case series.Float:
		v := el.Float()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case series.Int:
		v, err := el.Int()
		if err != nil {
			return nil
		}
		return v
	case series.Bool:
		v, err := el.Bool()
		if err != nil {
			return nil
		}
		return v
	default:
		return el.String()
	}
}
