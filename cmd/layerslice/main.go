// layerslice cuts triangle meshes into stacks of raster layers.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// errUsage marks argument errors that already printed their usage line.
var errUsage = errors.New("invalid arguments")

func run(command string, args []string, stdout io.Writer) error {
	switch command {
	case "slice":
		return cmdSlice(args, stdout)
	case "info":
		return cmdInfo(args, stdout)
	case "preview", "view":
		return cmdPreview(args, stdout)
	case "gen":
		return cmdGen(args, stdout)
	case "config":
		return cmdConfig(args, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `layerslice - mesh to raster layer slicer

Usage:
  layerslice <command> [options]

Commands:
  slice [options] <mesh.stl>                 Write one image per layer
  info [-step s] <mesh.stl>                  Show mesh bounds and layer plan
  preview [-layer n] [-static] <mesh.stl>    Browse layers in the terminal
  gen [-cells n] -o out.stl <kind> <dims..>  Write a primitive mesh
                                             (box x y z | cylinder h r | tube h R r)
  config [-save path]                        Print or save the effective config

Slice options:
  -config f   config file (default ./layerslice.yaml, then the user config dir)
  -step s     distance between cutting planes
  -workers n  worker pool size
  -out dir    output directory
  -format f   png, bmp or tiff
  -key k      name files by index or height
  -debug      debug logging

Examples:
  layerslice gen -o cube.stl box 20 20 20
  layerslice info -step 0.5 cube.stl
  layerslice slice -step 0.5 -out layers cube.stl
  layerslice preview -step 0.5 cube.stl`)
}

// usageError prints a usage line and returns errUsage.
func usageError(fs *flag.FlagSet, usage string) error {
	fmt.Fprintf(fs.Output(), "Usage: layerslice %s\n", usage)
	return errUsage
}
