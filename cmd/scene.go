package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/guanlun/psan1-rendering-engine/asset/importer"
	"github.com/guanlun/psan1-rendering-engine/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

const (
	demoSceneFile   = "bowling.json"
	demoTextureSize = 64
	demoTextureTile = 8
)

// Write the bowling demo manifest and placeholder material textures to a
// directory.
func WriteDemoScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing output directory argument")
	}
	dir := ctx.Args().First()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, demoSceneFile))
	if err != nil {
		return err
	}
	err = importer.BowlingScene().Write(f)
	f.Close()
	if err != nil {
		return err
	}

	for index, mat := range scene.DefaultMaterials() {
		img := checkerboard(demoTextureSize, demoTextureTile, uint8(96+index*48))
		if err = writePNG(filepath.Join(dir, mat.KdMap), img); err != nil {
			return err
		}
	}

	logger.Noticef("wrote demo scene to %s", filepath.Join(dir, demoSceneFile))
	return nil
}

// Display imported scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	objects, err := importer.New().Import(ctx.Args().First(), ctx.String("assets"))
	if err != nil {
		return err
	}

	materials := scene.DefaultMaterials()
	sc, err := scene.NewScene(scene.DefaultCamera(), materials, objects)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Object", "Kind", "Geometry", "Material", "Position", "Light"})
	for _, obj := range sc.Objects {
		kind := "static"
		if _, isDynamic := obj.(*scene.DynamicObject); isDynamic {
			kind = "dynamic"
		}

		geom := obj.Geometry()
		geomDesc := fmt.Sprintf("box %v", geom.HalfExtents)
		if geom.Type == scene.SphereGeometry {
			geomDesc = fmt.Sprintf("sphere r=%.2f", geom.Radius)
		}

		m := obj.Transform().Matrix()
		table.Append([]string{
			obj.Name(),
			kind,
			geomDesc,
			materials[obj.Material()].Name,
			fmt.Sprintf("(%.2f, %.2f, %.2f)", m[12], m[13], m[14]),
			fmt.Sprintf("%t", obj.Emissive()),
		})
	}
	table.SetFooter([]string{"", "", "", "", "AREA LIGHTS", fmt.Sprintf("%d", len(sc.AreaLights))})
	table.Render()

	logger.Noticef("scene information: %s\n%s", sc.Stats(), buf.String())
	return nil
}

func checkerboard(size, tile int, shade uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := shade
			if (x/tile+y/tile)%2 == 1 {
				c = shade / 2
			}
			img.SetGray(x, y, color.Gray{Y: c})
		}
	}
	return img
}

func writePNG(imgFile string, img image.Image) error {
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
