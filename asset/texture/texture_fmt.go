package texture

type Format uint32

const (
	Luminance8 Format = iota
	Luminance32F
	Rgba8
	Rgba32F
)

// Get the storage size of a single texel.
func (f Format) BytesPerTexel() int {
	switch f {
	case Luminance8:
		return 1
	case Luminance32F:
		return 4
	case Rgba32F:
		return 16
	default:
		return 4
	}
}
