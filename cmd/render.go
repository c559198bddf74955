package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"time"

	"github.com/guanlun/psan1-rendering-engine/asset/importer"
	"github.com/guanlun/psan1-rendering-engine/preview"
	"github.com/guanlun/psan1-rendering-engine/renderer"
	"github.com/guanlun/psan1-rendering-engine/tracer"
	"github.com/guanlun/psan1-rendering-engine/tracer/cpu"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

const (
	// Exit status for renderer setup and launch failures.
	fatalErrorStatus = 2
)

// Render frames of a scene while stepping its simulation.
func RenderFrames(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	opts, err := renderOptions(ctx)
	if err != nil {
		return fatal(err)
	}
	opts.ScenePath = ctx.Args().First()

	r, err := renderer.New(cpu.New("cpu", ctx.Int("workers")), importer.New(), nil, opts)
	if err != nil {
		return fatal(err)
	}
	defer r.Close()

	var server *preview.Server
	if addr := ctx.String("preview"); addr != "" {
		server = preview.NewServer()
		if err = server.Listen(addr); err != nil {
			return fatal(err)
		}
		defer server.Close()
	}

	numFrames := ctx.Int("frames")
	if numFrames <= 0 && server == nil {
		return errors.New("frames must be positive unless a preview address is specified")
	}

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	defer signal.Stop(interrupted)

	camera := r.Scene().Camera
	orbitStep := float32(ctx.Float64("orbit"))

	start := time.Now()
	frame := 0
renderLoop:
	for ; numFrames <= 0 || frame < numFrames; frame++ {
		select {
		case <-interrupted:
			logger.Notice("interrupted")
			break renderLoop
		default:
		}

		if server != nil {
			drainInput(server, r)
		}

		out := r.Output()
		camData := camera.Basis(float32(out.Width) / float32(out.Height))
		camData.Changed = orbitStep != 0 && frame > 0
		camera = camera.Orbit(orbitStep)

		if err = r.Trace(camData); err != nil {
			return fatal(err)
		}

		if server != nil {
			if err = server.Publish(r.Stats(), out.Image()); err != nil {
				return err
			}
		}
	}
	logger.Noticef("rendered %d frames in %d ms", frame, time.Since(start).Nanoseconds()/1e6)

	displayFrameStats(r.Stats())

	return writeFrame(r.Output(), ctx.String("out"))
}

func renderOptions(ctx *cli.Context) (renderer.Options, error) {
	opts := renderer.DefaultOptions()
	opts.FrameW = uint32(ctx.Int("width"))
	opts.FrameH = uint32(ctx.Int("height"))
	opts.Seed = ctx.Int64("seed")
	opts.AssetDir = ctx.String("assets")
	opts.SimulationEnabled = ctx.BoolT("simulation")
	opts.ResetOnResize = ctx.Bool("reset-on-resize")

	var err error
	opts.EntryPoint, err = tracer.ParseEntryPoint(ctx.String("entry"))
	if err != nil {
		return opts, err
	}
	return opts, nil
}

// Wrap an error so the cli exits with fatalErrorStatus.
func fatal(err error) error {
	return cli.NewExitError(err.Error(), fatalErrorStatus)
}

// Forward queued preview key presses and resize requests to the renderer.
func drainInput(server *preview.Server, r renderer.Renderer) {
	for {
		select {
		case key := <-server.Keys():
			if !r.KeyPressed(key) {
				logger.Infof("ignoring unbound key %q", key)
			}
		case req := <-server.Resizes():
			if err := r.Resize(req.Width, req.Height); err != nil {
				logger.Warningf("ignoring resize request: %s", err.Error())
			}
		default:
			return
		}
	}
}

func writeFrame(out *tracer.Output, imgFile string) error {
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	err = png.Encode(f, out.Image())
	if err != nil {
		return fmt.Errorf("error encoding png file: %w", err)
	}
	logger.Noticef("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1e6)
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Frame", "Size", "Rays", "Substeps", "Colliders", "Rebuilds", "Physics", "Sync", "Launch", "Render time"})
	stat := stats.Tracer
	table.Append([]string{
		stat.Id,
		fmt.Sprintf("%d", stats.FrameNumber),
		fmt.Sprintf("%dx%d", stat.FrameW, stat.FrameH),
		fmt.Sprintf("%d", stat.Rays),
		fmt.Sprintf("%d", stats.Substeps),
		fmt.Sprintf("%d", stats.SyncedColliders),
		fmt.Sprintf("%d", stats.Rebuilds),
		stats.PhysicsTime.String(),
		stats.SyncTime.String(),
		stat.LaunchTime.String(),
		stats.RenderTime.String(),
	})
	table.SetFooter([]string{"", "", "", "", "", "", "", "", "", "SIMULATED", fmt.Sprintf("%.2fs", stats.SimulatedTime)})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
