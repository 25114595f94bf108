package xgo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbs(t *testing.T) {
	assert.Equal(t, int64(7), Abs(int64(-7)))
	assert.Equal(t, int64(7), Abs(int64(7)))
	assert.Equal(t, int64(0), Abs(int64(math.MinInt64)))
	assert.Equal(t, int32(0), Abs(int32(math.MinInt32)))
}

func TestStrConv(t *testing.T) {
	assert.Equal(t, int64(1001), StrToInt64("1001"))
	assert.Equal(t, int64(0), StrToInt64("x"))
	assert.Equal(t, int32(12), StrToInt32("12"))
	assert.Equal(t, "-5", Int64ToStr(-5))
}
