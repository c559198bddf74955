package tracer

import (
	"math"
	"time"
)

// BlockStat records the rows traced by a launch worker and the time it took.
type BlockStat struct {
	BlockH    uint32
	BlockTime time.Duration
}

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split frame into blocks of rows, one per worker, using the block
	// statistics collected from the previous launch.
	//
	// This function returns the block height assignment for each worker.
	// The assignments always add up to frameH.
	Schedule(numWorkers int, frameH uint32, lastBlocks []BlockStat) []uint32
}

// The naive scheduler splits rows evenly between workers.
type naiveScheduler struct{}

// Create a new naive scheduler instance.
func NaiveScheduler() BlockScheduler {
	return naiveScheduler{}
}

func (naiveScheduler) Schedule(numWorkers int, frameH uint32, _ []BlockStat) []uint32 {
	return evenSplit(numWorkers, frameH)
}

// The perfect scheduler assumes that the volume of tracing work between two
// subsequent frames is approximately the same.
type perfectScheduler struct{}

// Create a new perfect scheduler instance.
func PerfectScheduler() BlockScheduler {
	return perfectScheduler{}
}

// When previous launch information is available the scheduler uses the
// following formula for estimating the workload for worker w and frame i+1:
// w_i, f_i+1 = (blockH,w_i / time,w_i) / Σ(blockH_i / time,i)
func (perfectScheduler) Schedule(numWorkers int, frameH uint32, lastBlocks []BlockStat) []uint32 {
	// Without usable feedback (first launch, worker count or frame height
	// changed) fall back to an even split.
	if len(lastBlocks) != numWorkers || frameH < uint32(numWorkers) {
		return evenSplit(numWorkers, frameH)
	}
	var total float64 = 0.0
	var lastH uint32 = 0
	for _, stat := range lastBlocks {
		if stat.BlockH == 0 || stat.BlockTime <= 0 {
			return evenSplit(numWorkers, frameH)
		}
		total += float64(stat.BlockH) / float64(stat.BlockTime)
		lastH += stat.BlockH
	}
	if lastH != frameH {
		return evenSplit(numWorkers, frameH)
	}

	scaler := float64(frameH) / total
	blockAssignment := make([]uint32, numWorkers)
	var scheduledRows uint32 = 0
	for idx, stat := range lastBlocks {
		blockAssignment[idx] = uint32(math.Max(1.0, math.Floor(float64(stat.BlockH)/float64(stat.BlockTime)*scaler)))
		scheduledRows += blockAssignment[idx]
	}

	// Rows that don't add up are appended to the first worker; excess rows
	// are taken from the largest block.
	if scheduledRows < frameH {
		blockAssignment[0] += frameH - scheduledRows
	}
	for ; scheduledRows > frameH; scheduledRows-- {
		largest := 0
		for idx, rows := range blockAssignment {
			if rows > blockAssignment[largest] {
				largest = idx
			}
		}
		blockAssignment[largest]--
	}

	return blockAssignment
}

func evenSplit(numWorkers int, frameH uint32) []uint32 {
	if numWorkers < 1 {
		numWorkers = 1
	}
	blockAssignment := make([]uint32, numWorkers)
	rows := frameH / uint32(numWorkers)
	extra := frameH % uint32(numWorkers)
	for idx := range blockAssignment {
		blockAssignment[idx] = rows
		if uint32(idx) < extra {
			blockAssignment[idx]++
		}
	}
	return blockAssignment
}
