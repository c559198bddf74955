package renderer

import (
	"errors"
	"math"
	"testing"

	"github.com/guanlun/psan1-rendering-engine/asset/texture"
	"github.com/guanlun/psan1-rendering-engine/physics"
	"github.com/guanlun/psan1-rendering-engine/scene"
	"github.com/guanlun/psan1-rendering-engine/tracer"
	"github.com/guanlun/psan1-rendering-engine/types"
)

type launchRecord struct {
	entry        tracer.EntryPoint
	w, h         uint32
	params       tracer.Params
	bufW, bufH   uint32
	dirtyAtStart bool
}

// A tracer that records launches instead of tracing.
type fakeTracer struct {
	setupCfg  *tracer.Config
	setupErr  error
	sceneData *tracer.SceneData
	launches  []launchRecord
	closed    bool
	stats     tracer.Stats
}

func (tr *fakeTracer) Id() string { return "fake" }

func (tr *fakeTracer) Setup(cfg tracer.Config) error {
	if tr.setupErr != nil {
		return tr.setupErr
	}
	tr.setupCfg = &cfg
	return nil
}

func (tr *fakeTracer) SetScene(sc *tracer.SceneData) error {
	if len(sc.Lights) == 0 {
		return tracer.ErrNoLights
	}
	tr.sceneData = sc
	return nil
}

func (tr *fakeTracer) Launch(entry tracer.EntryPoint, w, h uint32, params *tracer.Params, buffers *tracer.Buffers, out *tracer.Output) error {
	if !buffers.Matches(w, h) || !out.Matches(w, h) {
		return tracer.ErrBufferSizeMismatch
	}
	rec := launchRecord{
		entry:        entry,
		w:            w,
		h:            h,
		params:       *params,
		bufW:         buffers.Width,
		bufH:         buffers.Height,
		dirtyAtStart: tr.sceneData.Group.Dirty(),
	}
	rebuilt, _ := tr.sceneData.Group.RebuildIfDirty(func([]scene.Object) error { return nil })
	tr.stats = tracer.Stats{FrameW: w, FrameH: h, Rebuilt: rebuilt}
	tr.launches = append(tr.launches, rec)
	return nil
}

func (tr *fakeTracer) Stats() *tracer.Stats { return &tr.stats }
func (tr *fakeTracer) Close()               { tr.closed = true }

func (tr *fakeTracer) lastLaunch() launchRecord {
	return tr.launches[len(tr.launches)-1]
}

// An importer returning a fixed object list.
type fakeImporter struct {
	objects []scene.Object
	err     error
}

func (imp *fakeImporter) Import(scenePath, assetDir string) ([]scene.Object, error) {
	return imp.objects, imp.err
}

func fakeTextureLoader(assetDir, name string) (*texture.Texture, error) {
	return &texture.Texture{Format: texture.Rgba8, Width: 1, Height: 1, Data: []byte{255, 255, 255, 255}}, nil
}

func TestBootstrap(t *testing.T) {
	r, tr := mockRenderer(t, mockObjects(t, true), DefaultOptions())
	defer r.Close()

	if tr.setupCfg == nil || tr.setupCfg.NumEntryPoints != 3 || tr.setupCfg.NumRayTypes != 2 || tr.setupCfg.StackSize != 2400 {
		t.Fatalf("expected tracer setup with 3 entry points, 2 ray types and stack size 2400; got %+v", tr.setupCfg)
	}

	p := r.Params()
	if p.SceneEpsilon != 1e-3 || p.MaxDepth != 10 || p.ApertureRadius != 0.1 || p.DistanceOffset != -1.5 {
		t.Fatalf("unexpected default params: %s", p)
	}
	if p.BadColor != (types.Vec3{0, 1, 1}) || p.AmbientLightColor != (types.Vec3{0.4, 0.4, 0.4}) {
		t.Fatal("unexpected default colours")
	}

	out := r.Output()
	if out.Width != 512 || out.Height != 384 {
		t.Fatalf("expected default output to be 512x384; got %dx%d", out.Width, out.Height)
	}

	sc := r.Scene()
	if len(sc.Materials) != 3 {
		t.Fatalf("expected 3 materials; got %d", len(sc.Materials))
	}
	for _, mat := range sc.Materials {
		if mat.Texture == nil {
			t.Fatalf("expected material %s to have a texture", mat.Name)
		}
	}

	if tr.sceneData == nil || tr.sceneData.Group.Len() != 4 || len(tr.sceneData.Lights) != 1 {
		t.Fatal("expected the group of 4 objects and 1 light to be uploaded")
	}

	for _, obj := range sc.DynamicObjects() {
		if obj.Collider().RigidBody().World() == nil {
			t.Fatalf("expected collider of %s to be registered", obj.Name())
		}
	}

	if cam := sc.Camera; cam.Eye != (types.Vec3{30, 15, 7.5}) || cam.LookAt != (types.Vec3{7, 0, 7}) || cam.VFov != 45 {
		t.Fatalf("unexpected initial camera: %+v", cam)
	}
}

func TestBootstrapErrors(t *testing.T) {
	opts := DefaultOptions()

	// No emissive objects
	_, tr := mockRendererErr(t, mockObjects(t, false), opts, ErrNoAreaLights)
	if !tr.closed {
		t.Fatal("expected tracer to be closed after a failed bootstrap")
	}

	// Missing ray generation program
	tr = &fakeTracer{setupErr: tracer.ErrMissingProgram}
	_, err := New(tr, &fakeImporter{objects: mockObjects(t, true)}, fakeTextureLoader, opts)
	if !errors.Is(err, tracer.ErrMissingProgram) {
		t.Fatalf("expected to get ErrMissingProgram; got %v", err)
	}

	// Texture failure
	expErr := errors.New("no such file")
	_, err = New(&fakeTracer{}, &fakeImporter{objects: mockObjects(t, true)}, func(string, string) (*texture.Texture, error) {
		return nil, expErr
	}, opts)
	if !errors.Is(err, expErr) {
		t.Fatalf("expected texture error; got %v", err)
	}

	// Import failure
	_, err = New(&fakeTracer{}, &fakeImporter{err: expErr}, fakeTextureLoader, opts)
	if !errors.Is(err, expErr) {
		t.Fatalf("expected import error; got %v", err)
	}

	// Body already registered elsewhere
	objects := mockObjects(t, true)
	other, _ := physics.NewWorld(physics.DefaultConfig())
	other.AddRigidBody(objects[1].(*scene.DynamicObject).Collider().RigidBody())
	_, err = New(&fakeTracer{}, &fakeImporter{objects: objects}, fakeTextureLoader, opts)
	if !errors.Is(err, physics.ErrBodyAlreadyAdded) {
		t.Fatalf("expected ErrBodyAlreadyAdded; got %v", err)
	}

	opts.FrameW = 0
	if _, err = New(&fakeTracer{}, &fakeImporter{}, fakeTextureLoader, opts); err != ErrInvalidFrameSize {
		t.Fatalf("expected ErrInvalidFrameSize; got %v", err)
	}
}

func TestFrameCounter(t *testing.T) {
	r, tr := mockRenderer(t, mockObjects(t, true), DefaultOptions())
	cam := mockCamera()

	type spec struct {
		changed  bool
		key      byte
		expFrame uint32
	}
	specs := []spec{
		{false, 0, 0},
		{false, 0, 1},
		{false, 0, 2},
		{true, 0, 0},
		{false, 0, 1},
		{false, 'z', 0},
		{false, 0, 1},
		{false, 'q', 2},
		{false, ' ', 3},
		{false, '.', 0},
	}

	for index, s := range specs {
		if s.key != 0 {
			r.KeyPressed(s.key)
		}
		cam.Changed = s.changed
		if err := r.Trace(cam); err != nil {
			t.Fatal(err)
		}
		if got := tr.lastLaunch().params.FrameNumber; got != s.expFrame {
			t.Fatalf("[spec %d] expected frame number %d; got %d", index, s.expFrame, got)
		}
		if r.Stats().FrameNumber != s.expFrame {
			t.Fatalf("[spec %d] expected stats frame number %d; got %d", index, s.expFrame, r.Stats().FrameNumber)
		}
	}
}

func TestCameraParamsWrittenEveryFrame(t *testing.T) {
	r, tr := mockRenderer(t, mockObjects(t, true), DefaultOptions())

	for i := 0; i < 3; i++ {
		cam := mockCamera()
		cam.Eye = cam.Eye.Add(types.Vec3{float32(i), 0, 0})
		if err := r.Trace(cam); err != nil {
			t.Fatal(err)
		}

		p := tr.lastLaunch().params
		if p.Eye != cam.Eye || p.U != cam.U || p.V != cam.V || p.W != cam.W {
			t.Fatalf("[frame %d] expected launch params to carry the camera basis", i)
		}
		if math.Abs(float64(p.FocalScale-0.25)) > 1e-6 {
			t.Fatalf("[frame %d] expected focal scale 0.25; got %f", i, p.FocalScale)
		}
		if rec := tr.lastLaunch(); rec.entry != tracer.EntryDOF || rec.w != 512 || rec.h != 384 {
			t.Fatalf("[frame %d] expected a 512x384 dof launch; got %s %dx%d", i, rec.entry, rec.w, rec.h)
		}
	}
}

func TestDirtyEveryFrame(t *testing.T) {
	type spec struct {
		simulation bool
		dynamic    bool
		expDirty   bool
	}
	specs := []spec{
		{true, true, true},
		{false, true, true},
		{true, false, true},
		{false, false, true},
	}

	for index, s := range specs {
		opts := DefaultOptions()
		opts.SimulationEnabled = s.simulation

		objects := mockObjects(t, true)
		if !s.dynamic {
			objects = objects[2:]
		}
		r, tr := mockRenderer(t, objects, opts)

		// The first launch always builds the index.
		for frame := 0; frame < 5; frame++ {
			if err := r.Trace(mockCamera()); err != nil {
				t.Fatal(err)
			}
			if frame == 0 {
				continue
			}
			if got := tr.lastLaunch().dirtyAtStart; got != s.expDirty {
				t.Fatalf("[spec %d] [frame %d] expected group dirty at launch to be %t; got %t", index, frame, s.expDirty, got)
			}
		}
	}
}

func TestCollidersSyncedWhilePaused(t *testing.T) {
	opts := DefaultOptions()
	opts.SimulationEnabled = false
	r, _ := mockRenderer(t, mockObjects(t, true), opts)

	ball, _ := r.Scene().Object("ball")
	for frame := 0; frame < 3; frame++ {
		if err := r.Trace(mockCamera()); err != nil {
			t.Fatal(err)
		}
	}

	stats := r.Stats()
	if stats.Substeps != 0 || stats.SimulatedTime != 0 {
		t.Fatalf("expected paused simulation to not advance; got %d substeps", stats.Substeps)
	}
	if stats.SyncedColliders != 2 {
		t.Fatalf("expected 2 synced colliders; got %d", stats.SyncedColliders)
	}
	if ball.Transform().Version() != 3 {
		t.Fatalf("expected ball transform to be written every frame; got %d writes", ball.Transform().Version())
	}
}

func TestSimulationMovesDynamicObjects(t *testing.T) {
	r, _ := mockRenderer(t, mockObjects(t, true), DefaultOptions())
	ball, _ := r.Scene().Object("ball")
	startY := ball.Transform().Matrix()[13]

	for frame := 0; frame < 20; frame++ {
		if err := r.Trace(mockCamera()); err != nil {
			t.Fatal(err)
		}
	}
	if y := ball.Transform().Matrix()[13]; y >= startY {
		t.Fatalf("expected ball to fall from %f; got %f", startY, y)
	}

	// Reset restores the initial pose once synced.
	r.ResetObjects()
	r.SetSimulationEnabled(false)
	r.Trace(mockCamera())
	if y := ball.Transform().Matrix()[13]; math.Abs(float64(y-startY)) > 0.2 {
		t.Fatalf("expected ball to be reset close to %f; got %f", startY, y)
	}
}

func TestResize(t *testing.T) {
	type spec struct {
		resetOnResize bool
		w, h          uint32
		expFrame      uint32
	}
	specs := []spec{
		{false, 512, 384, 2},
		{false, 640, 480, 2},
		{true, 640, 480, 0},
		{true, 512, 384, 2},
	}

	for index, s := range specs {
		opts := DefaultOptions()
		opts.ResetOnResize = s.resetOnResize
		r, tr := mockRenderer(t, mockObjects(t, true), opts)
		r.Trace(mockCamera())
		r.Trace(mockCamera())

		if err := r.Resize(s.w, s.h); err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if err := r.Trace(mockCamera()); err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}

		rec := tr.lastLaunch()
		if rec.w != s.w || rec.h != s.h || rec.bufW != s.w || rec.bufH != s.h {
			t.Fatalf("[spec %d] expected %dx%d launch and buffers; got %dx%d / %dx%d", index, s.w, s.h, rec.w, rec.h, rec.bufW, rec.bufH)
		}
		if rec.params.FrameNumber != s.expFrame {
			t.Fatalf("[spec %d] expected frame number %d; got %d", index, s.expFrame, rec.params.FrameNumber)
		}
	}
}

func TestResizeSameSizeKeepsBuffers(t *testing.T) {
	r, _ := mockRenderer(t, mockObjects(t, true), DefaultOptions())
	fr := r.(*frameRenderer)

	fr.buffers.Sum[0] = types.Vec4{1, 1, 1, 1}
	sum, seeds := &fr.buffers.Sum[0], fr.buffers.Seeds[0]

	if err := r.Resize(512, 384); err != nil {
		t.Fatal(err)
	}
	if &fr.buffers.Sum[0] != sum || fr.buffers.Seeds[0] != seeds || fr.buffers.Sum[0] != (types.Vec4{1, 1, 1, 1}) {
		t.Fatal("expected same-size resize to keep buffer identity and contents")
	}

	if err := r.Resize(16, 8); err != nil {
		t.Fatal(err)
	}
	if !fr.buffers.Matches(16, 8) || !fr.output.Matches(16, 8) {
		t.Fatal("expected all buffers to be resized to 16x8")
	}
}

func TestResizeRejectsInvalidFrames(t *testing.T) {
	type spec struct {
		w, h uint32
	}
	specs := []spec{
		{0, 384},
		{512, 0},
		{65536, 65537},
		{math.MaxUint32, 2},
	}

	r, tr := mockRenderer(t, mockObjects(t, true), DefaultOptions())
	fr := r.(*frameRenderer)
	for index, s := range specs {
		if err := r.Resize(s.w, s.h); !errors.Is(err, ErrInvalidFrameSize) {
			t.Fatalf("[spec %d] expected ErrInvalidFrameSize; got %v", index, err)
		}
		if !fr.buffers.Matches(512, 384) || !fr.output.Matches(512, 384) {
			t.Fatalf("[spec %d] expected rejected resize to keep the 512x384 buffers", index)
		}
	}

	if err := r.Trace(mockCamera()); err != nil {
		t.Fatal(err)
	}
	if rec := tr.lastLaunch(); rec.w != 512 || rec.h != 384 {
		t.Fatalf("expected a 512x384 launch; got %dx%d", rec.w, rec.h)
	}

	opts := DefaultOptions()
	opts.FrameW, opts.FrameH = 65536, 65537
	if _, err := New(&fakeTracer{}, &fakeImporter{}, fakeTextureLoader, opts); err != ErrInvalidFrameSize {
		t.Fatalf("expected ErrInvalidFrameSize; got %v", err)
	}
}

func TestKeyPressed(t *testing.T) {
	type spec struct {
		key         byte
		expHandled  bool
		expAperture float32
		expOffset   float32
		expChanged  bool
	}
	specs := []spec{
		{'z', true, 0.11, -1.5, true},
		{'x', true, 0.09, -1.5, true},
		{',', true, 0.1, -1.6, true},
		{'.', true, 0.1, -1.4, true},
		{'q', false, 0.1, -1.5, false},
		{' ', true, 0.1, -1.5, false},
		{'r', true, 0.1, -1.5, false},
	}

	for index, s := range specs {
		r, _ := mockRenderer(t, mockObjects(t, true), DefaultOptions())
		fr := r.(*frameRenderer)

		if handled := r.KeyPressed(s.key); handled != s.expHandled {
			t.Fatalf("[spec %d] expected handled to be %t; got %t", index, s.expHandled, handled)
		}
		p := r.Params()
		if math.Abs(float64(p.ApertureRadius-s.expAperture)) > 1e-6 {
			t.Fatalf("[spec %d] expected aperture %f; got %f", index, s.expAperture, p.ApertureRadius)
		}
		if math.Abs(float64(p.DistanceOffset-s.expOffset)) > 1e-6 {
			t.Fatalf("[spec %d] expected distance offset %f; got %f", index, s.expOffset, p.DistanceOffset)
		}
		if fr.cameraChanged != s.expChanged {
			t.Fatalf("[spec %d] expected camera changed to be %t; got %t", index, s.expChanged, fr.cameraChanged)
		}
	}
}

func TestApertureIsUnclamped(t *testing.T) {
	r, _ := mockRenderer(t, mockObjects(t, true), DefaultOptions())
	for i := 0; i < 15; i++ {
		r.KeyPressed('x')
	}
	if p := r.Params(); p.ApertureRadius >= 0 {
		t.Fatalf("expected aperture to go negative; got %f", p.ApertureRadius)
	}
}

func TestSimulationToggle(t *testing.T) {
	r, _ := mockRenderer(t, mockObjects(t, true), DefaultOptions())
	if !r.SimulationEnabled() {
		t.Fatal("expected simulation to be enabled by default")
	}
	r.KeyPressed(' ')
	if r.SimulationEnabled() {
		t.Fatal("expected space to pause the simulation")
	}
	r.KeyPressed(' ')
	if !r.SimulationEnabled() {
		t.Fatal("expected space to resume the simulation")
	}
}

func mockCamera() scene.CameraData {
	return scene.CameraData{
		Eye: types.Vec3{0, 2, 10},
		U:   types.Vec3{1, 0, 0},
		V:   types.Vec3{0, 1, 0},
		W:   types.Vec3{0, 0, -2},
	}
}

// Build a static floor, a dynamic ball, a dynamic box and optionally a lamp.
func mockObjects(t *testing.T, withLight bool) []scene.Object {
	ballBody, err := physics.NewRigidBody(physics.BodyConfig{Mass: 7, Shape: physics.SphereShape, Radius: 0.5, Position: types.Vec3{0, 5, 0}})
	if err != nil {
		t.Fatal(err)
	}
	boxBody, err := physics.NewRigidBody(physics.BodyConfig{Shape: physics.BoxShape, HalfExtents: types.Vec3{10, 0.5, 10}, Position: types.Vec3{0, -0.5, 0}})
	if err != nil {
		t.Fatal(err)
	}

	objects := []scene.Object{
		scene.NewDynamicObject(scene.ObjectDesc{
			Name:     "ground",
			Geometry: scene.Geometry{Type: scene.BoxGeometry, HalfExtents: types.Vec3{10, 0.5, 10}},
			Position: types.Vec3{0, -0.5, 0},
		}, boxBody),
		scene.NewDynamicObject(scene.ObjectDesc{
			Name:     "ball",
			Geometry: scene.Geometry{Type: scene.SphereGeometry, Radius: 0.5},
			Material: 2,
			Position: types.Vec3{0, 5, 0},
		}, ballBody),
		scene.NewStaticObject(scene.ObjectDesc{
			Name:     "wall",
			Geometry: scene.Geometry{Type: scene.BoxGeometry, HalfExtents: types.Vec3{0.5, 5, 10}},
			Material: 1,
			Position: types.Vec3{-10, 5, 0},
		}),
	}
	if withLight {
		objects = append(objects, scene.NewStaticObject(scene.ObjectDesc{
			Name:     "lamp",
			Geometry: scene.Geometry{Type: scene.BoxGeometry, HalfExtents: types.Vec3{1, 0.1, 1}},
			Position: types.Vec3{0, 10, 0},
			Emissive: true,
			Radiance: types.Vec3{1, 1, 1},
		}))
	}
	return objects
}

func mockRenderer(t *testing.T, objects []scene.Object, opts Options) (Renderer, *fakeTracer) {
	tr := &fakeTracer{}
	r, err := New(tr, &fakeImporter{objects: objects}, fakeTextureLoader, opts)
	if err != nil {
		t.Fatal(err)
	}
	return r, tr
}

func mockRendererErr(t *testing.T, objects []scene.Object, opts Options, expErr error) (Renderer, *fakeTracer) {
	tr := &fakeTracer{}
	r, err := New(tr, &fakeImporter{objects: objects}, fakeTextureLoader, opts)
	if !errors.Is(err, expErr) {
		t.Fatalf("expected error %v; got %v", expErr, err)
	}
	return r, tr
}
