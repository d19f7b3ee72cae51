package utils

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionMap(t *testing.T) {
	{ // Bucket sizes
		getHisto := func(K, Np int) (histo map[int]int) {
			pm := NewPartitionMap(Np, K)
			histo = make(map[int]int)
			for np := 0; np < pm.ParallelDegree; np++ {
				histo[pm.GetBucketDimension(np)]++
			}
			return
		}
		getTotal := func(histo map[int]int) (total int) {
			for key, count := range histo {
				total += key * count
			}
			return
		}
		// Degree is clamped to the number of items
		assert.Equal(t, map[int]int{1: 2}, getHisto(2, 32))
		assert.Equal(t, map[int]int{1: 32}, getHisto(32, 32))
		assert.Equal(t, map[int]int{8: 32}, getHisto(256, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, getHisto(287, 32))
		assert.Equal(t, 287, getTotal(getHisto(287, 32)))
		for n := 64; n < 2000; n++ {
			var (
				keys   [2]float64
				keyNum int
			)
			histo := getHisto(n, 32)
			for key := range histo {
				keys[keyNum] = float64(key)
				keyNum++
			}
			if keyNum == 2 {
				assert.Equal(t, 1., math.Abs(keys[0]-keys[1])) // Maximum imbalance of 1
			}
			assert.Equal(t, n, getTotal(histo))
		}
	}
	{ // Buckets tile the index range in order
		for maxIndex := 10; maxIndex < 300; maxIndex++ {
			pm := NewPartitionMap(7, maxIndex)
			var next int
			for bn := 0; bn < pm.ParallelDegree; bn++ {
				kMin, kMax := pm.GetBucketRange(bn)
				assert.Equal(t, next, kMin)
				assert.True(t, kMax > kMin)
				next = kMax
			}
			assert.Equal(t, maxIndex, next)
		}
	}
	{ // Defaults
		pm := NewPartitionMap(0, 1)
		assert.Equal(t, 1, pm.ParallelDegree)
		pm = NewPartitionMap(4, 0)
		assert.Equal(t, 1, pm.ParallelDegree)
		assert.Equal(t, 0, pm.GetBucketDimension(0))
	}
}

func TestParallelFor(t *testing.T) {
	pm := NewPartitionMap(4, 103)
	var (
		visited = make([]int32, 103)
		total   int64
	)
	require.NoError(t, pm.ParallelFor(func(bucket, kMin, kMax int) error {
		for k := kMin; k < kMax; k++ {
			atomic.AddInt32(&visited[k], 1)
			atomic.AddInt64(&total, int64(k))
		}
		return nil
	}))
	for k, v := range visited {
		assert.Equal(t, int32(1), v, "item %d", k)
	}
	assert.Equal(t, int64(103*102/2), total)

	errFirst, errSecond := errors.New("first"), errors.New("second")
	err := pm.ParallelFor(func(bucket, kMin, kMax int) error {
		switch bucket {
		case 1:
			return errFirst
		case 3:
			return errSecond
		}
		return nil
	})
	assert.ErrorIs(t, err, errFirst)
}
