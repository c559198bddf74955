package renderer

import (
	"github.com/guanlun/psan1-rendering-engine/asset"
	"github.com/guanlun/psan1-rendering-engine/asset/texture"
)

// TextureLoader loads a material texture by name from an asset directory.
type TextureLoader func(assetDir, name string) (*texture.Texture, error)

// Load a texture from a local or remote asset directory.
func LoadTexture(assetDir, name string) (*texture.Texture, error) {
	res, err := asset.NewResourceIn(assetDir, name)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return texture.New(res)
}
