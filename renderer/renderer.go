package renderer

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/guanlun/psan1-rendering-engine/asset/importer"
	"github.com/guanlun/psan1-rendering-engine/log"
	"github.com/guanlun/psan1-rendering-engine/physics"
	"github.com/guanlun/psan1-rendering-engine/scene"
	"github.com/guanlun/psan1-rendering-engine/tracer"
)

type Renderer interface {
	// Advance the simulation, sync the scene graph and trace a frame.
	Trace(camera scene.CameraData) error

	// Resize the output and accumulation buffers.
	Resize(w, h uint32) error

	// Handle a key press. Returns false if the key is not bound.
	KeyPressed(key byte) bool

	// Restore the initial pose of every dynamic object.
	ResetObjects()

	// Enable or disable physics stepping.
	SetSimulationEnabled(enabled bool)
	SimulationEnabled() bool

	// Get the traced frame.
	Output() *tracer.Output

	// Get the rendered scene.
	Scene() *scene.Scene

	// Get the launch parameters.
	Params() tracer.Params

	// Get last frame statistics.
	Stats() FrameStats

	// Shutdown renderer and the attached tracer.
	Close()
}

// The frame loop driving a single tracer.
type frameRenderer struct {
	logger log.Logger

	options Options

	tracer tracer.Tracer
	world  *physics.World
	scene  *scene.Scene
	group  *scene.Group

	params  tracer.Params
	buffers *tracer.Buffers
	output  *tracer.Output
	rng     *rand.Rand

	// Progressive accumulation state.
	frameNumber   uint32
	cameraChanged bool

	simulationEnabled bool

	stats FrameStats
}

// Create a renderer: set up the tracer, load materials, import the scene,
// register all collider bodies with a new physics world and upload the scene.
func New(tr tracer.Tracer, imp importer.Importer, loadTexture TextureLoader, opts Options) (Renderer, error) {
	if !tracer.ValidFrameSize(opts.FrameW, opts.FrameH) {
		return nil, ErrInvalidFrameSize
	}
	if loadTexture == nil {
		loadTexture = LoadTexture
	}

	r := &frameRenderer{
		logger:            log.New("renderer"),
		options:           opts,
		tracer:            tr,
		rng:               rand.New(rand.NewSource(opts.Seed)),
		simulationEnabled: opts.SimulationEnabled,
	}

	err := r.init(imp, loadTexture)
	if err != nil {
		r.Close()
		return nil, err
	}

	r.logger.Noticef("scene ready: %s", r.scene.Stats())
	return r, nil
}

func (r *frameRenderer) init(imp importer.Importer, loadTexture TextureLoader) error {
	opts := r.options

	err := r.tracer.Setup(tracer.DefaultConfig())
	if err != nil {
		return fmt.Errorf("renderer: tracer setup failed: %w", err)
	}

	r.params = tracer.DefaultParams()
	r.output = tracer.NewOutput(opts.FrameW, opts.FrameH)
	r.buffers = tracer.NewBuffers(opts.FrameW, opts.FrameH, r.rng)

	materials := scene.DefaultMaterials()
	for _, mat := range materials {
		mat.Texture, err = loadTexture(opts.AssetDir, mat.KdMap)
		if err != nil {
			return fmt.Errorf("renderer: could not load texture %q for material %s: %w", mat.KdMap, mat.Name, err)
		}
	}

	objects, err := imp.Import(opts.ScenePath, opts.AssetDir)
	if err != nil {
		return fmt.Errorf("renderer: scene import failed: %w", err)
	}

	r.scene, err = scene.NewScene(scene.DefaultCamera(), materials, objects)
	if err != nil {
		return err
	}

	r.world, err = physics.NewWorld(opts.Physics)
	if err != nil {
		return fmt.Errorf("renderer: could not create physics world: %w", err)
	}
	for _, obj := range r.scene.DynamicObjects() {
		if err = r.world.AddRigidBody(obj.Collider().RigidBody()); err != nil {
			return fmt.Errorf("renderer: could not register collider for %s: %w", obj.Name(), err)
		}
	}
	for _, obj := range r.scene.DynamicObjects() {
		if !r.world.Contains(obj.Collider().RigidBody()) {
			return fmt.Errorf("%w: %s", ErrUnregisteredCollider, obj.Name())
		}
	}

	r.group = scene.NewGroup(r.scene.Objects)
	if len(r.scene.AreaLights) == 0 {
		return ErrNoAreaLights
	}

	return r.tracer.SetScene(&tracer.SceneData{
		Group:     r.group,
		Materials: r.scene.Materials,
		Lights:    r.scene.AreaLights,
	})
}

// Trace a frame.
func (r *frameRenderer) Trace(camera scene.CameraData) error {
	frameStart := time.Now()
	stats := FrameStats{}

	if r.simulationEnabled {
		stats.Substeps = r.world.Advance(r.options.StepDt, r.options.MaxSubsteps)
	}
	stats.SimulatedTime = r.world.SimulatedTime()
	stats.PhysicsTime = time.Since(frameStart)

	// Colliders are synced even while paused and the group is invalidated
	// every frame, whether or not anything moved.
	start := time.Now()
	stats.SyncedColliders = r.scene.SyncColliders()
	r.group.MarkDirty()
	stats.SyncTime = time.Since(start)

	if camera.Changed {
		r.cameraChanged = true
	}
	if r.cameraChanged {
		r.frameNumber = 0
		r.cameraChanged = false
	}

	r.params.Eye = camera.Eye
	r.params.U = camera.U
	r.params.V = camera.V
	r.params.W = camera.W
	r.params.FrameNumber = r.frameNumber
	r.frameNumber++
	r.params.FocalScale = scene.FocalScale(camera.W, r.params.DistanceOffset, r.params.SceneEpsilon)

	w, h := r.output.Width, r.output.Height
	err := r.tracer.Launch(r.options.EntryPoint, w, h, &r.params, r.buffers, r.output)
	if err != nil {
		return fmt.Errorf("renderer: launch failed for frame %d: %w", r.params.FrameNumber, err)
	}

	trStats := r.tracer.Stats()
	stats.Tracer = TracerStat{
		Id:          r.tracer.Id(),
		FrameW:      w,
		FrameH:      h,
		Rays:        trStats.Rays,
		Rebuilt:     trStats.Rebuilt,
		BvhNodes:    trStats.BvhNodes,
		RebuildTime: trStats.RebuildTime,
		LaunchTime:  trStats.LaunchTime,
	}
	stats.FrameNumber = r.params.FrameNumber
	stats.Rebuilds = r.group.Rebuilds()
	stats.RenderTime = time.Since(frameStart)
	r.stats = stats

	r.logger.Debugf("frame %d: %d substeps, %d colliders synced, rebuilt: %t", stats.FrameNumber, stats.Substeps, stats.SyncedColliders, stats.Tracer.Rebuilt)
	return nil
}

// Resize the output and the four accumulation buffers together. Resizing to
// the current dimensions is a no-op. Empty frames and frames whose pixels
// cannot be indexed with a uint32 are rejected and leave the buffers intact.
func (r *frameRenderer) Resize(w, h uint32) error {
	if !tracer.ValidFrameSize(w, h) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidFrameSize, w, h)
	}

	r.output.Resize(w, h)
	if !r.buffers.Resize(w, h) {
		return nil
	}
	r.buffers.FillSeeds(r.rng)

	if r.options.ResetOnResize {
		r.cameraChanged = true
	}
	r.logger.Infof("resized frame to %dx%d", w, h)
	return nil
}

// Restore the initial pose of every dynamic object and clear its velocity.
func (r *frameRenderer) ResetObjects() {
	for _, obj := range r.scene.DynamicObjects() {
		obj.Collider().RigidBody().ResetPose()
	}
	r.world.Advance(0.1, 1)
	r.logger.Info("reset dynamic objects")
}

func (r *frameRenderer) SetSimulationEnabled(enabled bool) {
	r.simulationEnabled = enabled
	r.logger.Infof("simulation enabled: %t", enabled)
}

func (r *frameRenderer) SimulationEnabled() bool {
	return r.simulationEnabled
}

func (r *frameRenderer) Output() *tracer.Output {
	return r.output
}

func (r *frameRenderer) Scene() *scene.Scene {
	return r.scene
}

func (r *frameRenderer) Params() tracer.Params {
	return r.params
}

func (r *frameRenderer) Stats() FrameStats {
	return r.stats
}

// Shutdown renderer and the attached tracer.
func (r *frameRenderer) Close() {
	if r.tracer != nil {
		r.tracer.Close()
	}
}
