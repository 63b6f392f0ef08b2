package processor

import "errors"

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrNotNumeric     = errors.New("column is not numeric")
	// ErrUndefinedMean 列中没有任何有效值, 均值无定义
	ErrUndefinedMean = errors.New("undefined mean")
	// ErrZeroVariance 标准化时方差为0或有效值少于2个
	ErrZeroVariance = errors.New("zero variance")
	// ErrZeroRange 归一化时最大值等于最小值或没有有效值
	ErrZeroRange      = errors.New("zero range")
	ErrTimestampParse = errors.New("unparseable timestamp")
)
