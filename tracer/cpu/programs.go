package cpu

import (
	"math"

	"github.com/guanlun/psan1-rendering-engine/scene"
	"github.com/guanlun/psan1-rendering-engine/tracer"
	"github.com/guanlun/psan1-rendering-engine/types"
)

const (
	// Adaptive sampling stops refining a pixel once it has at least this
	// many samples and the relative luminance error drops below the threshold.
	adaptiveMinSamples = 4
	adaptiveThreshold  = 0.05
)

// launchContext holds the state shared by all programs during a launch.
type launchContext struct {
	tr *Tracer

	w, h    uint32
	params  *tracer.Params
	buffers *tracer.Buffers
	out     *tracer.Output

	rays uint64
}

// A ray generation program renders the pixel at (x, y).
type rayGenProgram func(ctx *launchContext, x, y uint32)

// A hit program shades the closest hit of a radiance ray or reports whether
// a shadow ray is blocked.
type closestHitProgram func(ctx *launchContext, r ray, h hit, depth int32, importance float32, seed *uint32) types.Vec3
type anyHitProgram func(ctx *launchContext, r ray) bool

// Get the normalized device coordinates of a pixel sample. The first frame
// uses the fixed jitter; later frames jitter randomly inside the pixel.
func pixelNDC(ctx *launchContext, x, y uint32, seed *uint32) (float32, float32) {
	jx, jy := 0.5+ctx.params.Jitter[0], 0.5+ctx.params.Jitter[1]
	if ctx.params.FrameNumber > 0 {
		jx, jy = rnd(seed), rnd(seed)
	}
	return (float32(x)+jx)/float32(ctx.w)*2 - 1, (float32(y)+jy)/float32(ctx.h)*2 - 1
}

func pinholeRay(p *tracer.Params, dx, dy float32) ray {
	return ray{
		origin: p.Eye,
		dir:    p.U.Mul(dx).Add(p.V.Mul(dy)).Add(p.W).Normalize(),
		tMin:   p.SceneEpsilon,
		tMax:   math.MaxFloat32,
	}
}

// Pinhole camera.
func pinholeCamera(ctx *launchContext, x, y uint32) {
	index := y*ctx.w + x
	seed := ctx.buffers.Seeds[index]

	dx, dy := pixelNDC(ctx, x, y, &seed)
	color := ctx.traceRadiance(pinholeRay(ctx.params, dx, dy), 0, 1, &seed)
	ctx.accumulate(index, color)

	ctx.buffers.Seeds[index] = seed
}

// Thin lens camera. Rays start on a disk of ApertureRadius around the eye
// and converge on the focal plane located at W * FocalScale.
func dofCamera(ctx *launchContext, x, y uint32) {
	index := y*ctx.w + x
	seed := ctx.buffers.Seeds[index]
	p := ctx.params

	dx, dy := pixelNDC(ctx, x, y, &seed)
	focalPoint := p.Eye.Add(p.U.Mul(dx).Add(p.V.Mul(dy)).Add(p.W).Mul(p.FocalScale))

	radius := p.ApertureRadius * float32(math.Sqrt(float64(rnd(&seed))))
	theta := 2 * math.Pi * float64(rnd(&seed))
	lens := p.U.Normalize().Mul(radius * float32(math.Cos(theta))).
		Add(p.V.Normalize().Mul(radius * float32(math.Sin(theta))))
	origin := p.Eye.Add(lens)

	r := ray{
		origin: origin,
		dir:    focalPoint.Sub(origin).Normalize(),
		tMin:   p.SceneEpsilon,
		tMax:   math.MaxFloat32,
	}
	color := ctx.traceRadiance(r, 0, 1, &seed)
	ctx.accumulate(index, color)

	ctx.buffers.Seeds[index] = seed
}

// Pinhole camera that stops sampling pixels whose estimate has converged.
func adaptivePinholeCamera(ctx *launchContext, x, y uint32) {
	index := y*ctx.w + x
	if ctx.params.FrameNumber > 0 && converged(ctx.buffers, index) {
		return
	}
	pinholeCamera(ctx, x, y)
}

// Check the coefficient of variation of the pixel luminance.
func converged(b *tracer.Buffers, index uint32) bool {
	n := b.NumSamples[index]
	if n < adaptiveMinSamples {
		return false
	}

	mean := float64(b.Sum[index][3]) / float64(n)
	meanSq := float64(b.Sum2[index][3]) / float64(n)
	variance := math.Max(0, meanSq-mean*mean)
	if mean <= 1e-8 {
		return variance < 1e-6
	}
	return math.Sqrt(variance)/mean < adaptiveThreshold
}

// Add a sample to the accumulation buffers and write the running mean to
// the output. Frame 0 discards previous samples.
func (ctx *launchContext) accumulate(index uint32, color types.Vec3) {
	b := ctx.buffers
	if !finite(color) {
		color = ctx.params.BadColor
	}

	lum := luminance(color)
	sample := color.Vec4(lum)
	sample2 := color.MulVec(color).Vec4(lum * lum)
	if ctx.params.FrameNumber == 0 {
		b.Sum[index] = sample
		b.Sum2[index] = sample2
		b.NumSamples[index] = 1
	} else {
		b.Sum[index] = b.Sum[index].Add(sample)
		b.Sum2[index] = b.Sum2[index].Add(sample2)
		b.NumSamples[index]++
	}

	mean := b.Sum[index].Mul(1 / float32(b.NumSamples[index]))
	mean[3] = 1
	ctx.out.Pixels[index] = mean
}

// Trace a radiance ray.
func (ctx *launchContext) traceRadiance(r ray, depth int32, importance float32, seed *uint32) types.Vec3 {
	ctx.rays++
	h, ok := ctx.tr.accel.intersect(r, false)
	if !ok {
		return missProgram(ctx, r)
	}

	mat := ctx.tr.scene.Materials[h.instance.object.Material()]
	program := ctx.tr.closestHit[mat.ClosestHitProgram]
	return program(ctx, r, h, depth, importance, seed)
}

// Trace a shadow ray.
func (ctx *launchContext) traceShadow(r ray, mat *scene.Material) bool {
	ctx.rays++
	return ctx.tr.anyHit[mat.AnyHitProgram](ctx, r)
}

// Background gradient between the dark and light colours along Up.
func missProgram(ctx *launchContext, r ray) types.Vec3 {
	p := ctx.params
	t := r.dir.Dot(p.Up)
	if t < 0 {
		t = 0
	}
	return p.BgDarkColor.Mul(1 - t).Add(p.BgLightColor.Mul(t))
}

// Phong shading with area light shadows and recursive reflections.
func closestHitRadiance(ctx *launchContext, r ray, h hit, depth int32, importance float32, seed *uint32) types.Vec3 {
	obj := h.instance.object
	if obj.Emissive() {
		return obj.Radiance()
	}

	p := ctx.params
	mat := ctx.tr.scene.Materials[obj.Material()]
	n := h.normal
	if n.Dot(r.dir) > 0 {
		n = n.Mul(-1)
	}

	kd := mat.Diffuse(h.u, h.v)
	color := mat.Ka.MulVec(p.AmbientLightColor).MulVec(kd)

	for _, light := range ctx.tr.scene.Lights {
		lightPos := light.Corner.Add(light.V1.Mul(rnd(seed))).Add(light.V2.Mul(rnd(seed)))
		toLight := lightPos.Sub(h.point)
		dist := toLight.Len()
		l := toLight.Mul(1 / dist)

		nDotL := n.Dot(l)
		if nDotL <= 0 || light.Normal().Dot(l) >= 0 {
			continue
		}

		shadowRay := ray{origin: h.point, dir: l, tMin: p.SceneEpsilon, tMax: dist - p.SceneEpsilon}
		if ctx.traceShadow(shadowRay, mat) {
			continue
		}

		halfway := l.Sub(r.dir).Normalize()
		spec := float32(math.Pow(math.Max(0, float64(n.Dot(halfway))), float64(mat.Ns)))
		color = color.Add(light.Emission.MulVec(kd.Mul(nDotL).Add(mat.Ks.Mul(spec))))
	}

	if mat.Kr == (types.Vec3{}) {
		return color
	}

	newImportance := importance * luminance(mat.Kr)
	if newImportance > mat.ImportanceCutoff && depth < p.MaxDepth && depth < mat.ReflectionMaxDepth {
		reflected := ray{
			origin: h.point,
			dir:    r.dir.Sub(n.Mul(2 * n.Dot(r.dir))).Normalize(),
			tMin:   p.SceneEpsilon,
			tMax:   math.MaxFloat32,
		}
		return color.Add(mat.Kr.MulVec(ctx.traceRadiance(reflected, depth+1, newImportance, seed)))
	}
	return color.Add(mat.Kr.MulVec(mat.CutoffColor))
}

// Shadow rays are blocked by any non-emissive object.
func anyHitShadow(ctx *launchContext, r ray) bool {
	_, blocked := ctx.tr.accel.intersect(r, true)
	return blocked
}

func luminance(c types.Vec3) float32 {
	return 0.3*c[0] + 0.59*c[1] + 0.11*c[2]
}

func finite(c types.Vec3) bool {
	for _, v := range c {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}
