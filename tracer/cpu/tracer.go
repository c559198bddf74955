package cpu

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/guanlun/psan1-rendering-engine/log"
	"github.com/guanlun/psan1-rendering-engine/scene"
	"github.com/guanlun/psan1-rendering-engine/tracer"
)

// Tracer is a software implementation of tracer.Tracer. Each launch splits
// the frame into row blocks that are traced by a pool of worker goroutines;
// Launch returns once all blocks are done.
type Tracer struct {
	logger log.Logger

	// The tracer id.
	id string

	// Launch workers and the scheduler assigning rows to them.
	numWorkers int
	scheduler  tracer.BlockScheduler

	// Setup config; nil until Setup succeeds.
	cfg *tracer.Config

	// Programs bound by entry point or by material program name.
	rayGen     map[tracer.EntryPoint]rayGenProgram
	closestHit map[string]closestHitProgram
	anyHit     map[string]anyHitProgram

	// The uploaded scene and the acceleration structure built over its group.
	scene *tracer.SceneData
	accel *accel

	// Statistics for last launch.
	stats *tracer.Stats
}

// Create a new cpu tracer using numWorkers launch workers. If numWorkers is
// not positive, one worker per cpu is used.
func New(id string, numWorkers int) *Tracer {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Tracer{
		logger:     log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:         id,
		numWorkers: numWorkers,
		scheduler:  tracer.PerfectScheduler(),
		rayGen: map[tracer.EntryPoint]rayGenProgram{
			tracer.EntryDOF:             dofCamera,
			tracer.EntryAdaptivePinhole: adaptivePinholeCamera,
			tracer.EntryPinhole:         pinholeCamera,
		},
		closestHit: map[string]closestHitProgram{
			scene.ClosestHitRadiance: closestHitRadiance,
		},
		anyHit: map[string]anyHitProgram{
			scene.AnyHitShadow: anyHitShadow,
		},
		stats: &tracer.Stats{},
	}
}

// Get tracer id.
func (tr *Tracer) Id() string {
	return tr.id
}

// Declare entry points and ray types. Every declared entry point must have a
// ray generation program.
func (tr *Tracer) Setup(cfg tracer.Config) error {
	for entry := tracer.EntryPoint(0); int(entry) < cfg.NumEntryPoints; entry++ {
		if _, exists := tr.rayGen[entry]; !exists {
			return fmt.Errorf("%w: entry point %s", tracer.ErrMissingProgram, entry)
		}
	}
	if cfg.NumRayTypes != tracer.NumRayTypes {
		return fmt.Errorf("cpu tracer: expected %d ray types; got %d", tracer.NumRayTypes, cfg.NumRayTypes)
	}
	if cfg.StackSize <= 0 {
		return fmt.Errorf("cpu tracer: invalid stack size %d", cfg.StackSize)
	}

	tr.cfg = &cfg
	tr.logger.Debugf("setup %d entry points, %d ray types, stack size %d", cfg.NumEntryPoints, cfg.NumRayTypes, cfg.StackSize)
	return nil
}

// Upload scene data. Materials must bind known hit programs and the light
// buffer must not be empty.
func (tr *Tracer) SetScene(sc *tracer.SceneData) error {
	if tr.cfg == nil {
		return tracer.ErrNotInitialized
	}
	if sc == nil || sc.Group == nil {
		return tracer.ErrSceneNotDefined
	}
	if len(sc.Lights) == 0 {
		return tracer.ErrNoLights
	}

	for _, mat := range sc.Materials {
		if _, exists := tr.closestHit[mat.ClosestHitProgram]; !exists {
			return fmt.Errorf("%w: closest hit %q for material %s", tracer.ErrMissingProgram, mat.ClosestHitProgram, mat.Name)
		}
		if _, exists := tr.anyHit[mat.AnyHitProgram]; !exists {
			return fmt.Errorf("%w: any hit %q for material %s", tracer.ErrMissingProgram, mat.AnyHitProgram, mat.Name)
		}
	}
	for index, obj := range sc.Group.Children() {
		if obj.Material() < 0 || obj.Material() >= len(sc.Materials) {
			return fmt.Errorf("cpu tracer: group child %d references unknown material %d", index, obj.Material())
		}
	}

	tr.scene = sc
	tr.accel = nil
	sc.Group.MarkDirty()

	tr.logger.Debugf("uploaded scene: %d objects, %d materials, %d lights", sc.Group.Len(), len(sc.Materials), len(sc.Lights))
	return nil
}

// Trace a frame. The acceleration structure is rebuilt first if the group
// has been marked dirty.
func (tr *Tracer) Launch(entry tracer.EntryPoint, w, h uint32, params *tracer.Params, buffers *tracer.Buffers, out *tracer.Output) error {
	if tr.cfg == nil {
		return tracer.ErrNotInitialized
	}
	if tr.scene == nil {
		return tracer.ErrSceneNotDefined
	}
	if int(entry) >= tr.cfg.NumEntryPoints {
		return fmt.Errorf("%w: %s", tracer.ErrInvalidEntryPoint, entry)
	}
	if !buffers.Matches(w, h) || !out.Matches(w, h) {
		return fmt.Errorf(
			"%w: launch %dx%d, accumulation %dx%d, output %dx%d",
			tracer.ErrBufferSizeMismatch, w, h, buffers.Width, buffers.Height, out.Width, out.Height,
		)
	}

	stats := &tracer.Stats{FrameW: w, FrameH: h}

	start := time.Now()
	rebuilt, err := tr.scene.Group.RebuildIfDirty(func(children []scene.Object) error {
		tr.accel = buildAccel(children)
		return nil
	})
	if err != nil {
		return err
	}
	stats.Rebuilt = rebuilt
	stats.RebuildTime = time.Since(start)
	stats.BvhNodes = len(tr.accel.nodes)

	start = time.Now()
	program := tr.rayGen[entry]
	blockAssignment := tr.scheduler.Schedule(tr.numWorkers, h, tr.stats.Blocks)
	stats.Blocks = make([]tracer.BlockStat, len(blockAssignment))
	rays := make([]uint64, len(blockAssignment))

	var wg sync.WaitGroup
	var blockY uint32 = 0
	for index, blockH := range blockAssignment {
		if blockH == 0 {
			continue
		}

		wg.Add(1)
		go func(index int, blockY, blockH uint32) {
			defer wg.Done()
			blockStart := time.Now()
			ctx := &launchContext{
				tr:      tr,
				w:       w,
				h:       h,
				params:  params,
				buffers: buffers,
				out:     out,
			}
			for y := blockY; y < blockY+blockH; y++ {
				for x := uint32(0); x < w; x++ {
					program(ctx, x, y)
				}
			}
			rays[index] = ctx.rays
			stats.Blocks[index] = tracer.BlockStat{BlockH: blockH, BlockTime: time.Since(blockStart)}
		}(index, blockY, blockH)
		blockY += blockH
	}
	wg.Wait()

	for _, count := range rays {
		stats.Rays += count
	}
	stats.LaunchTime = time.Since(start)

	tr.stats = stats
	return nil
}

// Retrieve last launch statistics.
func (tr *Tracer) Stats() *tracer.Stats {
	return tr.stats
}

// Shutdown and cleanup tracer.
func (tr *Tracer) Close() {
	tr.scene = nil
	tr.accel = nil
	tr.cfg = nil
}
