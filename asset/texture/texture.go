package texture

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/guanlun/psan1-rendering-engine/asset"
	"github.com/guanlun/psan1-rendering-engine/types"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// A texture image and its metadata. 8-bit formats store one byte per
// channel; 32F formats store little-endian float32 values.
type Texture struct {
	Format Format

	Width  uint32
	Height uint32

	Data []byte
}

// Create a new texture from a Resource.
func New(res *asset.Resource) (*Texture, error) {
	img, _, err := image.Decode(res)
	if err != nil {
		return nil, fmt.Errorf("texture: could not decode %s: %s", res.Path(), err.Error())
	}

	bounds := img.Bounds()
	tex := &Texture{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
	if tex.Width == 0 || tex.Height == 0 {
		return nil, fmt.Errorf("texture: %s has zero dimensions", res.Path())
	}

	// Select tex format
	switch img.ColorModel() {
	case color.GrayModel:
		tex.Format = Luminance8
	case color.Gray16Model:
		tex.Format = Luminance32F
	case color.RGBA64Model, color.NRGBA64Model:
		tex.Format = Rgba32F
	default:
		tex.Format = Rgba8
	}

	tex.Data = make([]byte, int(tex.Width*tex.Height)*tex.Format.BytesPerTexel())
	offset := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			switch tex.Format {
			case Luminance8:
				tex.Data[offset] = uint8(r >> 8)
			case Luminance32F:
				putFloat(tex.Data[offset:], float32(r)/0xffff)
			case Rgba8:
				tex.Data[offset] = uint8(r >> 8)
				tex.Data[offset+1] = uint8(g >> 8)
				tex.Data[offset+2] = uint8(b >> 8)
				tex.Data[offset+3] = uint8(a >> 8)
			case Rgba32F:
				putFloat(tex.Data[offset:], float32(r)/0xffff)
				putFloat(tex.Data[offset+4:], float32(g)/0xffff)
				putFloat(tex.Data[offset+8:], float32(b)/0xffff)
				putFloat(tex.Data[offset+12:], float32(a)/0xffff)
			}
			offset += tex.Format.BytesPerTexel()
		}
	}

	return tex, nil
}

// Sample the texture at (u, v) using nearest filtering and wrap addressing.
func (t *Texture) Sample(u, v float32) types.Vec3 {
	x := wrap(u, t.Width)
	y := wrap(v, t.Height)
	offset := int(y*t.Width+x) * t.Format.BytesPerTexel()

	switch t.Format {
	case Luminance8:
		l := float32(t.Data[offset]) / 255
		return types.Vec3{l, l, l}
	case Luminance32F:
		l := getFloat(t.Data[offset:])
		return types.Vec3{l, l, l}
	case Rgba32F:
		return types.Vec3{getFloat(t.Data[offset:]), getFloat(t.Data[offset+4:]), getFloat(t.Data[offset+8:])}
	default:
		return types.Vec3{
			float32(t.Data[offset]) / 255,
			float32(t.Data[offset+1]) / 255,
			float32(t.Data[offset+2]) / 255,
		}
	}
}

func wrap(coord float32, size uint32) uint32 {
	f := coord - float32(math.Floor(float64(coord)))
	texel := uint32(f * float32(size))
	if texel >= size {
		texel = size - 1
	}
	return texel
}

func putFloat(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func getFloat(src []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src))
}
