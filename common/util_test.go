package common_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ecodine/ecodine/common"
)

func TestParallelMapLimitBoundsConcurrency(t *testing.T) {
	items := make([]int, 40)
	for i := range items {
		items[i] = i
	}
	var inFlight, peak atomic.Int32
	results, errs := common.ParallelMapLimit(items, 3, func(i int) (int, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		if i == 7 {
			return 0, errors.New("seven")
		}
		return i * i, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Len(t, results, len(items))
	for i := range items {
		if i == 7 {
			assert.EqualError(t, errs[i], "seven")
			continue
		}
		assert.NoError(t, errs[i])
		assert.Equal(t, i*i, results[i], "results keep item order")
	}
}

func TestParallelMapDefaultLimit(t *testing.T) {
	items := make([]int, 3*common.MaxParallelCalls)
	var inFlight, peak atomic.Int32
	_, errs := common.ParallelMap(items, func(int) (struct{}, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(common.MaxParallelCalls))
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestParallelMapLimitEmptyAndZeroLimit(t *testing.T) {
	results, errs := common.ParallelMapLimit([]int{}, 4, func(i int) (int, error) { return i, nil })
	assert.Empty(t, results)
	assert.Empty(t, errs)

	results, _ = common.ParallelMapLimit([]int{1, 2, 3}, 0, func(i int) (int, error) { return i + 1, nil })
	assert.Equal(t, []int{2, 3, 4}, results)
}
