package tracer

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/guanlun/psan1-rendering-engine/types"
)

// Get the number of pixels in a w x h frame.
func PixelCount(w, h uint32) int {
	return int(w) * int(h)
}

// Returns true if the frame is not empty and every pixel can be addressed
// with a uint32 index.
func ValidFrameSize(w, h uint32) bool {
	return w > 0 && h > 0 && uint64(w)*uint64(h) <= math.MaxUint32
}

// Buffers holds the per-pixel accumulation state of a progressive render.
// All four buffers always share the same dimensions.
type Buffers struct {
	Width  uint32
	Height uint32

	// Running sums of samples and squared samples.
	Sum  []types.Vec4
	Sum2 []types.Vec4

	// Number of samples accumulated per pixel.
	NumSamples []uint32

	// Per-pixel random number generator state.
	Seeds []uint32
}

// Allocate accumulation buffers and fill the seed buffer from rng.
func NewBuffers(w, h uint32, rng *rand.Rand) *Buffers {
	b := &Buffers{}
	b.Resize(w, h)
	b.FillSeeds(rng)
	return b
}

// Resize all buffers to w x h. If the dimensions are unchanged the existing
// buffers and their contents are kept and false is returned. Contents of
// resized buffers are zeroed.
func (b *Buffers) Resize(w, h uint32) bool {
	if b.Sum != nil && b.Width == w && b.Height == h {
		return false
	}

	n := PixelCount(w, h)
	b.Width = w
	b.Height = h
	b.Sum = make([]types.Vec4, n)
	b.Sum2 = make([]types.Vec4, n)
	b.NumSamples = make([]uint32, n)
	b.Seeds = make([]uint32, n)
	return true
}

// Fill the seed buffer with random values.
func (b *Buffers) FillSeeds(rng *rand.Rand) {
	for i := range b.Seeds {
		b.Seeds[i] = rng.Uint32()
	}
}

// Returns true if the buffers match the given dimensions.
func (b *Buffers) Matches(w, h uint32) bool {
	return b.Width == w && b.Height == h &&
		len(b.Sum) == PixelCount(w, h) && len(b.Sum2) == len(b.Sum) &&
		len(b.NumSamples) == len(b.Sum) && len(b.Seeds) == len(b.Sum)
}

// Output is the frame buffer written by a launch. Pixels are stored row by
// row starting at the bottom of the image.
type Output struct {
	Width  uint32
	Height uint32

	Pixels []types.Vec4
}

// Allocate an output buffer.
func NewOutput(w, h uint32) *Output {
	o := &Output{}
	o.Resize(w, h)
	return o
}

// Resize the output buffer. Returns false if the dimensions are unchanged.
func (o *Output) Resize(w, h uint32) bool {
	if o.Pixels != nil && o.Width == w && o.Height == h {
		return false
	}
	o.Width = w
	o.Height = h
	o.Pixels = make([]types.Vec4, PixelCount(w, h))
	return true
}

// Returns true if the buffer matches the given dimensions.
func (o *Output) Matches(w, h uint32) bool {
	return o.Width == w && o.Height == h && len(o.Pixels) == PixelCount(w, h)
}

// Convert the output to an 8-bit image applying gamma correction.
func (o *Output) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(o.Width), int(o.Height)))
	for y := uint32(0); y < o.Height; y++ {
		row := (o.Height - 1 - y) * o.Width
		for x := uint32(0); x < o.Width; x++ {
			p := o.Pixels[row+x]
			img.SetRGBA(int(x), int(y), color.RGBA{
				R: toByte(p[0]),
				G: toByte(p[1]),
				B: toByte(p[2]),
				A: 255,
			})
		}
	}
	return img
}

func toByte(v float32) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	v = float32(math.Pow(float64(v), 1.0/2.2))
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
