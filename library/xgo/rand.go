package xgo

import (
	"math/rand"
	"sync"
	"time"

	"golang.org/x/exp/constraints"
)

var (
	srandMu sync.Mutex
	srand   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func IsHit(v int) bool {
	return RandInt(0, 100) < v
}

// RandFloat [min, max)
func RandFloat[T constraints.Float](min T, max T) T {
	if max <= min {
		return min
	}
	srandMu.Lock()
	f := srand.Float64()
	srandMu.Unlock()
	return T(f)*(max-min) + min
}

// RandInt [min, max)
func RandInt[T constraints.Integer](min T, max T) T {
	if max <= min {
		return min
	}
	srandMu.Lock()
	n := srand.Int63n(int64(max - min))
	srandMu.Unlock()
	return T(n) + min
}
