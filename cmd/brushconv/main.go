// brushconv converts between face-vertex polygon meshes and CSG brushes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/chazu/brushconv/internal/config"
	"github.com/chazu/brushconv/internal/logger"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "to-brush", "brush":
		err = cmdToBrush(args)
	case "to-faces", "faces":
		err = cmdToFaces(args)
	case "info":
		err = cmdInfo(args)
	case "validate", "check":
		err = cmdValidate(args)
	case "eval":
		err = cmdEval(args)
	case "bbox":
		err = cmdBBox(args)
	case "init-config":
		err = cmdInitConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	logger.Sync()

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`brushconv - face mesh / CSG brush converter

Usage:
  brushconv <command> [options] <args>

Commands:
  to-brush <in> <out.yaml>              Convert a face mesh to a brush document
  to-faces <brush.yaml> <out>           Expand a brush into a face mesh (yaml, gltf, glb, stl)
  info <file>                           Show mesh or brush statistics
  validate <file>                       Check structural invariants
  eval <script.lisp> [out]              Run a mesh script; prints YAML without out
  bbox <in> <out.(stl|gltf|glb)>        Write the bounding box of a mesh as a solid
  init-config [path]                    Save the effective settings (default: user config dir)

Inputs:
  .yaml/.yml   facemesh or brush documents
  .gltf/.glb   triangle meshes
  .lisp/.brush mesh scripts

Options (all commands):
  -config path   config file (default ./brushconv.yaml or the user config dir)
  -weld eps      weld epsilon for deriving shared vertices
  -strict        fail on non-manifold edges
  -winding cw|ccw initial winding for scripts
  -format f      output format when the output has no extension
  -binary        write binary glTF
  -timeout d     script evaluation timeout
  -debug         debug logging
  -log path      also log to a rotating file

Examples:
  brushconv to-brush room.glb room.brush.yaml
  brushconv to-faces room.brush.yaml room.stl
  brushconv eval -winding cw examples/cube.lisp cube.yaml`)
}

// session is the loaded configuration and logger shared by one command.
type session struct {
	cfg *config.Config
	log *zap.Logger
}

// setup parses the shared flags for a subcommand, loads the configuration
// and initializes logging. It returns the positional arguments.
func setup(name string, args []string, minArgs int, usage string) (*session, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var flags config.Flags
	flags.Register(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: brushconv %s [options] %s\n", name, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() < minArgs {
		fs.Usage()
		return nil, nil, fmt.Errorf("%s: expected %s", name, usage)
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, nil, err
	}
	return &session{cfg: cfg, log: logger.Named(name)}, fs.Args(), nil
}
