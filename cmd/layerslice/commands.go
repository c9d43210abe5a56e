package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/layerslice/internal/config"
	"github.com/Faultbox/layerslice/internal/logger"
	"github.com/Faultbox/layerslice/internal/preview"
	"github.com/Faultbox/layerslice/internal/primitive"
	"github.com/Faultbox/layerslice/internal/sink"
	"github.com/Faultbox/layerslice/pkg/formats"
	"github.com/Faultbox/layerslice/pkg/mesh"
	"github.com/Faultbox/layerslice/pkg/slicer"
)

// setup parses args into a config and initializes logging. The returned
// FlagSet holds the positional arguments.
func setup(name string, args []string, console bool) (*config.Config, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	return setupWith(fs, flags, args, console)
}

func setupWith(fs *flag.FlagSet, flags *config.Flags, args []string, console bool) (*config.Config, *flag.FlagSet, error) {
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, nil, err
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, console); err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, fs, nil
}

func loadMesh(path string) (*mesh.Mesh, error) {
	stl, err := formats.ParseSTLFile(path)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("loaded mesh",
		zap.String("file", path),
		zap.String("name", stl.Name),
		zap.Bool("binary", stl.Binary),
		zap.Int("vertices", len(stl.Mesh.Vertices)),
		zap.Int("triangles", len(stl.Mesh.Triangles)),
	)
	return stl.Mesh, nil
}

func cmdSlice(args []string, stdout io.Writer) error {
	cfg, fs, err := setup("slice", args, true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if fs.NArg() != 1 {
		return usageError(fs, "slice [options] <mesh.stl>")
	}
	m, err := loadMesh(fs.Arg(0))
	if err != nil {
		return err
	}

	sinkOpts, err := cfg.SinkOptions()
	if err != nil {
		return err
	}
	out, err := sink.NewFileSink(sinkOpts, logger.Log)
	if err != nil {
		return err
	}
	opts, err := cfg.SliceOptions(logger.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := slicer.Slice(ctx, m, out, opts)
	if slicer.IsInputError(err) {
		return err
	}
	fmt.Fprintf(stdout, "Layers:  %d written, %d failed\n", report.Written, len(report.Failed))
	fmt.Fprintf(stdout, "Output:  %s\n", cfg.Output.Dir)
	return err
}

func cmdInfo(args []string, stdout io.Writer) error {
	cfg, fs, err := setup("info", args, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if fs.NArg() != 1 {
		return usageError(fs, "info [-step s] <mesh.stl>")
	}
	stl, err := formats.ParseSTLFile(fs.Arg(0))
	if err != nil {
		return err
	}
	m := stl.Mesh
	planes, bb, err := slicer.Plan(m, float32(cfg.Slice.Step))
	if err != nil {
		return err
	}

	kind := "ascii"
	if stl.Binary {
		kind = "binary"
	}
	ext := bb.Extent()
	fmt.Fprintf(stdout, "Mesh:      %s (%s STL, %q)\n", fs.Arg(0), kind, stl.Name)
	fmt.Fprintf(stdout, "Vertices:  %d\n", len(m.Vertices))
	fmt.Fprintf(stdout, "Triangles: %d\n", len(m.Triangles))
	fmt.Fprintf(stdout, "Bounds:    (%g, %g, %g) - (%g, %g, %g)\n",
		bb.Min.X, bb.Min.Y, bb.Min.Z, bb.Max.X, bb.Max.Y, bb.Max.Z)
	fmt.Fprintf(stdout, "Extent:    %g x %g x %g\n", ext.X, ext.Y, ext.Z)
	fmt.Fprintf(stdout, "Layer:     %d x %d px\n", bb.Width(), bb.Height())
	fmt.Fprintf(stdout, "Planes:    %d at step %g\n", len(planes), cfg.Slice.Step)

	busiest := 0
	for _, p := range planes {
		busiest = max(busiest, len(p.Triangles))
	}
	fmt.Fprintf(stdout, "Busiest:   %d triangles in one plane\n", busiest)
	return nil
}

func cmdPreview(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	start := fs.Int("layer", 0, "First layer to show")
	static := fs.Bool("static", false, "Print the layer instead of starting the browser")
	cols := fs.Int("cols", 80, "Width in terminal cells for -static")
	rows := fs.Int("rows", 24, "Height in terminal cells for -static")

	// The browser owns the terminal, so logs only go to a file.
	cfg, fs, err := setupWith(fs, flags, args, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if fs.NArg() != 1 {
		return usageError(fs, "preview [-step s] [-layer n] [-static] <mesh.stl>")
	}
	m, err := loadMesh(fs.Arg(0))
	if err != nil {
		return err
	}
	opts, err := cfg.SliceOptions(logger.Log)
	if err != nil {
		return err
	}

	mem := sink.NewMemory()
	if _, err := slicer.Slice(context.Background(), m, mem, opts); err != nil {
		// Show whatever was produced.
		logger.Log.Warn("slicing incomplete", zap.Error(err))
	}
	layers := mem.Layers()
	if len(layers) == 0 {
		return fmt.Errorf("no layers produced")
	}

	if *static {
		i := max(0, min(*start, len(layers)-1))
		fmt.Fprintln(stdout, preview.Static(layers[i], len(layers), *cols, *rows))
		return nil
	}
	return preview.Run(layers, *start)
}

func cmdGen(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	cells := fs.Int("cells", primitive.DefaultCells, "Marching cubes resolution")
	output := fs.String("o", "", "Output STL file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || *output == "" {
		return usageError(fs, "gen [-cells n] -o out.stl box x y z | cylinder h r | tube h R r")
	}

	kind := fs.Arg(0)
	dims := make([]float64, 0, fs.NArg()-1)
	for _, s := range fs.Args()[1:] {
		d, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("dimension %q: %w", s, err)
		}
		dims = append(dims, d)
	}

	m, err := primitive.Generate(kind, dims, *cells)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s %s", kind, strings.Join(fs.Args()[1:], " "))
	if err := formats.SaveSTL(*output, name, m); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s: %d triangles, %d vertices\n",
		filepath.Clean(*output), len(m.Triangles), len(m.Vertices))
	return nil
}

func cmdConfig(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	save := fs.String("save", "", "Write the config to this path (\"user\" for the user config dir)")

	cfg, _, err := setupWith(fs, flags, args, false)
	if err != nil {
		return err
	}

	switch *save {
	case "":
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	case "user":
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Saved %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	default:
		if err := cfg.SaveTo(*save); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Saved %s\n", *save)
	}
	return nil
}
