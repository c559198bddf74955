package main

import (
	"os"

	"github.com/guanlun/psan1-rendering-engine/cmd"
	"github.com/guanlun/psan1-rendering-engine/log"
	"github.com/guanlun/psan1-rendering-engine/tracer"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "psan1"
	app.Usage = "ray trace physically simulated scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "simulate and render a scene",
			Description: `
Import a scene manifest, register its dynamic objects with the physics world
and trace a sequence of progressively accumulated frames while the simulation
advances. The last frame is written to a png file.

When a preview address is specified, frames are streamed to websocket clients
which may send key presses back to the renderer.`,
			ArgsUsage: "scene.json",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 384,
					Usage: "frame height",
				},
				cli.StringFlag{
					Name:  "entry, e",
					Value: tracer.EntryDOF.String(),
					Usage: "ray generation program (dof, adaptive_pinhole, pinhole)",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "seed for the per-pixel random state",
				},
				cli.IntFlag{
					Name:  "frames, n",
					Value: 16,
					Usage: "number of frames to render; 0 renders until interrupted (requires --preview)",
				},
				cli.IntFlag{
					Name:  "workers",
					Value: 0,
					Usage: "number of tracing goroutines; 0 uses one per cpu",
				},
				cli.BoolTFlag{
					Name:  "simulation",
					Usage: "step the physics simulation between frames",
				},
				cli.BoolFlag{
					Name:  "reset-on-resize",
					Usage: "restart accumulation when the frame is resized",
				},
				cli.Float64Flag{
					Name:  "orbit",
					Value: 0,
					Usage: "orbit the camera by this angle (radians) after each frame",
				},
				cli.StringFlag{
					Name:  "assets, a",
					Value: "",
					Usage: "directory or URL containing the scene and its textures",
				},
				cli.StringFlag{
					Name:  "preview",
					Value: "",
					Usage: "stream frames to websocket clients on this address",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the last rendered frame",
				},
			},
			Action: cmd.RenderFrames,
		},
		{
			Name:  "scene",
			Usage: "manage scene manifests",
			Subcommands: []cli.Command{
				{
					Name:      "demo",
					Usage:     "write the bowling demo scene and its textures",
					ArgsUsage: "output_dir",
					Action:    cmd.WriteDemoScene,
				},
				{
					Name:      "info",
					Usage:     "display scene information",
					ArgsUsage: "scene.json",
					Flags: []cli.Flag{
						cli.StringFlag{
							Name:  "assets, a",
							Value: "",
							Usage: "directory or URL containing the scene",
						},
					},
					Action: cmd.ShowSceneInfo,
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("psan1").Error(err)
		os.Exit(1)
	}
}
