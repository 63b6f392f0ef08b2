package processor

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler 将每列缩放为均值0、样本标准差1
// 缺失值不参与拟合, 缩放后仍为缺失
type StandardScaler struct {
	Columns []string

	Mean map[string]float64
	Std  map[string]float64
}

func (s *StandardScaler) Name() string { return "standardize" }

func (s *StandardScaler) Detail() string {
	parts := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		parts = append(parts, fmt.Sprintf("%s(mean=%.6g std=%.6g)", c, s.Mean[c], s.Std[c]))
	}
	return "标准化: " + strings.Join(parts, ", ")
}

func (s *StandardScaler) ColCalculation(df *dataframe.DataFrame) error {
	s.Mean = make(map[string]float64, len(s.Columns))
	s.Std = make(map[string]float64, len(s.Columns))

	// 先全部拟合, 出错时不修改表
	scaled := make([]series.Series, 0, len(s.Columns))
	for _, name := range s.Columns {
		vals, err := numericValues(*df, name)
		if err != nil {
			return err
		}
		obs := present(vals)
		if len(obs) < 2 {
			return fmt.Errorf("%w: column %q has %d present values", ErrZeroVariance, name, len(obs))
		}

		mean, std := stat.MeanStdDev(obs, nil)
		if std == 0 || math.IsNaN(std) {
			return fmt.Errorf("%w: column %q", ErrZeroVariance, name)
		}
		s.Mean[name], s.Std[name] = mean, std

		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = (v - mean) / std
		}
		scaled = append(scaled, series.New(out, series.Float, name))
	}

	for _, col := range scaled {
		if err := mutate(df, col); err != nil {
			return err
		}
	}
	return nil
}

// MinMaxScaler 将每列线性缩放到[0,1]
type MinMaxScaler struct {
	Columns []string

	Min map[string]float64
	Max map[string]float64
}

func (s *MinMaxScaler) Name() string { return "minmax" }

func (s *MinMaxScaler) Detail() string {
	parts := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		parts = append(parts, fmt.Sprintf("%s(min=%.6g max=%.6g)", c, s.Min[c], s.Max[c]))
	}
	return "归一化: " + strings.Join(parts, ", ")
}

func (s *MinMaxScaler) ColCalculation(df *dataframe.DataFrame) error {
	s.Min = make(map[string]float64, len(s.Columns))
	s.Max = make(map[string]float64, len(s.Columns))

	scaled := make([]series.Series, 0, len(s.Columns))
	for _, name := range s.Columns {
		vals, err := numericValues(*df, name)
		if err != nil {
			return err
		}
		obs := present(vals)
		if len(obs) == 0 {
			return fmt.Errorf("%w: column %q has no present values", ErrZeroRange, name)
		}

		lo, hi := floats.Min(obs), floats.Max(obs)
		if hi == lo {
			return fmt.Errorf("%w: column %q is constant %g", ErrZeroRange, name, lo)
		}
		s.Min[name], s.Max[name] = lo, hi

		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = (v - lo) / (hi - lo)
		}
		scaled = append(scaled, series.New(out, series.Float, name))
	}

	for _, col := range scaled {
		if err := mutate(df, col); err != nil {
			return err
		}
	}
	return nil
}
