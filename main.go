package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/subdiv/pkg/engine"
	"github.com/chazu/subdiv/pkg/kernel/sdfx"
	"github.com/chazu/subdiv/pkg/logging"
	"github.com/chazu/subdiv/pkg/tessellate"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	configFile = flag.String("config", "", "")

	iterations = flag.Int("iterations", 0, "")
	cells      = flag.Int("cells", 0, "")
	weld       = flag.Float64("weld", 0, "")
	workers    = flag.Int("workers", 0, "")

	outdir    = flag.String("outdir", "", "")
	writeSTL  = flag.Bool("stl", true, "")
	writeJSON = flag.Bool("json", false, "")
	faceted   = flag.Bool("faceted", false, "")
	dump      = flag.Bool("dump", false, "")

	logfile  = flag.String("logfile", "", "")
	logLevel = flag.String("loglevel", "", "")
)

const helpMessage = `
subdiv evaluates mesh scripts, applies Loop subdivision and writes the results.

Usage: subdiv [options] script.lisp [script.lisp ...]

  Each script builds a triangle mesh from explicit vertices and triangles or
  from SDF solids, and may request a subdivision level with (subdivide n).

	-config         =string   TOML configuration file; flags override it.

	-iterations     =number   Extra subdivision passes on top of each script's request.
	-cells          =number   Marching cubes resolution for solids (default 32).
	-weld           =number   Grid size used to weld coincident positions.
	-workers        =number   Scripts processed at once (default 4).

	-outdir         =string   Output directory (default ".").
	-stl            (flag)    Write <script>.stl (default true).
	-json           (flag)    Write <script>.json with render buffers and stats.
	-faceted        (flag)    Use flat-shaded, unshared vertices in the JSON buffers.
	-dump           (flag)    Write <script>.dump.txt listing every entity.

	-logfile        =string   Rotating log file instead of stderr.
	-loglevel       =string   debug, info, warning, error or critical.
	-h, -help       (flag)    Show help message
`

// fileSummary is what one script produced.
type fileSummary struct {
	script   string
	result   EvalResult
	stlBytes uint64
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = func() {
		fmt.Print(helpMessage)
	}
	flag.Parse()

	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyFlags(&cfg)

	if err := cfg.Logging.SetLogger(); err != nil {
		fmt.Fprintf(os.Stderr, "could not set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Shutdown()

	summaries, err := run(context.Background(), cfg, flag.Args())
	for _, s := range summaries {
		if s.script != "" {
			printSummary(s)
		}
	}
	if err != nil {
		logging.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		logging.Shutdown()
		os.Exit(1)
	}
}

// applyFlags copies explicitly set flags over the configuration.
func applyFlags(cfg *tomlConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "iterations":
			cfg.Subdivide.Iterations = *iterations
		case "workers":
			cfg.Subdivide.Workers = *workers
		case "cells":
			cfg.Kernel.Cells = *cells
		case "weld":
			cfg.Kernel.Weld = *weld
		case "outdir":
			cfg.Output.Dir = *outdir
		case "stl":
			cfg.Output.STL = *writeSTL
		case "json":
			cfg.Output.JSON = *writeJSON
		case "faceted":
			cfg.Output.Faceted = *faceted
		case "dump":
			cfg.Output.Dump = *dump
		case "logfile":
			cfg.Logging.Logfile = *logfile
		case "loglevel":
			cfg.Logging.Level = *logLevel
		}
	})
}

// run processes every script concurrently. Each goroutine owns its own
// engine and meshes; only the kernel, which holds no per-solid state, is
// shared.
func run(ctx context.Context, cfg tomlConfig, scripts []string) ([]fileSummary, error) {
	if cfg.Subdivide.Iterations < 0 {
		return nil, fmt.Errorf("iterations must be non-negative, got %d", cfg.Subdivide.Iterations)
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	k := sdfx.NewWithCells(cfg.Kernel.Cells, cfg.Kernel.Weld)
	logging.Debugf("processing %d scripts with %d marching cubes cells", len(scripts), k.Cells())
	summaries := make([]fileSummary, len(scripts))

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Subdivide.Workers > 0 {
		g.SetLimit(cfg.Subdivide.Workers)
	}
	for i, script := range scripts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := processScript(k, cfg, script)
			summaries[i] = s
			return err
		})
	}
	return summaries, g.Wait()
}

func processScript(k *sdfx.SdfxKernel, cfg tomlConfig, script string) (fileSummary, error) {
	tlog := logging.NewTimeLog()
	summary := fileSummary{script: script}

	source, err := os.ReadFile(script)
	if err != nil {
		return summary, err
	}

	base := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))
	app := NewApp(k, engine.WithWeldTolerance(cfg.Kernel.Weld))
	summary.result = app.Evaluate(base, string(source), cfg.Subdivide.Iterations)

	res := summary.result
	for _, w := range res.Warnings {
		logging.Warningf("%s: %s", script, w.Message)
	}
	if len(res.Errors) > 0 {
		var msgs []string
		for _, e := range res.Errors {
			if e.Line > 0 {
				msgs = append(msgs, fmt.Sprintf("line %d: %s", e.Line, e.Message))
			} else {
				msgs = append(msgs, e.Message)
			}
		}
		return summary, fmt.Errorf("%s: %s", script, strings.Join(msgs, "; "))
	}

	out := filepath.Join(cfg.Output.Dir, base)
	if cfg.Output.STL && !res.Subdivided.IsEmpty() {
		path := out + ".stl"
		if err := sdfx.SaveSTL(path, res.Subdivided); err != nil {
			return summary, err
		}
		if info, err := os.Stat(path); err == nil {
			summary.stlBytes = uint64(info.Size())
		}
	}
	if cfg.Output.JSON {
		if cfg.Output.Faceted && res.Mesh != nil {
			res.Mesh = meshData(tessellate.Faceted(res.Subdivided, base))
		}
		data, err := json.Marshal(res)
		if err != nil {
			return summary, fmt.Errorf("%s: encoding result: %w", script, err)
		}
		if err := os.WriteFile(out+".json", data, 0o644); err != nil {
			return summary, err
		}
	}
	if cfg.Output.Dump {
		if err := writeDump(out+".dump.txt", res); err != nil {
			return summary, err
		}
	}

	tlog.Infof("%s: %d passes, %s triangles", script, res.Iterations, humanize.Comma(int64(res.Output.Triangles)))
	return summary, nil
}

func writeDump(path string, res EvalResult) (err error) {
	if res.Subdivided == nil {
		return errors.New("no mesh to dump")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return res.Subdivided.Dump(f)
}

func printSummary(s fileSummary) {
	r := s.result
	if len(r.Errors) > 0 {
		fmt.Printf("%s: failed\n", s.script)
		return
	}
	fmt.Printf("%s: %d passes, %s -> %s triangles, %s vertices",
		s.script, r.Iterations,
		humanize.Comma(int64(r.Input.Triangles)),
		humanize.Comma(int64(r.Output.Triangles)),
		humanize.Comma(int64(r.Output.Vertices)))
	if s.stlBytes > 0 {
		fmt.Printf(", %s STL", humanize.Bytes(s.stlBytes))
	}
	if r.Output.IsClosed() {
		fmt.Printf(", closed (euler %d)", r.Output.Euler)
	}
	fmt.Println()
}
