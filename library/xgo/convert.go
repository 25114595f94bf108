package xgo

import (
	"strconv"

	"golang.org/x/exp/constraints"
)

func StrToInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func StrToInt32(s string) int32 {
	v, _ := strconv.ParseInt(s, 10, 32)
	return int32(v)
}

func Int64ToStr(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Abs 返回绝对值, 最小负数无法取反时返回0
func Abs[T constraints.Signed](v T) T {
	if v >= 0 {
		return v
	}
	if -v < 0 {
		return 0
	}
	return -v
}
