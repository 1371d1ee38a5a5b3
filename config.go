package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/chazu/subdiv/pkg/kernel/sdfx"
	"github.com/chazu/subdiv/pkg/logging"
)

// tomlConfig is the optional configuration file. Command line flags that
// are set explicitly override it.
//
//	[subdivide]
//	iterations = 1
//
//	[kernel]
//	cells = 32
//	weld = 1e-9
//
//	[output]
//	dir = "out"
//	stl = true
//	json = false
//	faceted = false
//	dump = false
//
//	[logging]
//	logfile = "/var/log/subdiv.log"
//	level = "info"
//	max_log_size = 500
//	max_log_age = 30
type tomlConfig struct {
	Subdivide subdivideConfig
	Kernel    kernelConfig
	Output    outputConfig
	Logging   logging.Config
}

type subdivideConfig struct {
	// Iterations are added to whatever (subdivide n) each script requests.
	Iterations int
	// Workers bounds how many input files are processed at once.
	Workers int
}

type kernelConfig struct {
	Cells int
	Weld  float64
}

// outputConfig selects what is written per script. Faceted swaps the smooth
// JSON buffers for flat-shaded ones.
type outputConfig struct {
	Dir     string
	STL     bool `toml:"stl"`
	JSON    bool `toml:"json"`
	Faceted bool `toml:"faceted"`
	Dump    bool `toml:"dump"`
}

func defaultConfig() tomlConfig {
	return tomlConfig{
		Subdivide: subdivideConfig{Workers: 4},
		Kernel:    kernelConfig{Cells: sdfx.DefaultMeshCells},
		Output:    outputConfig{Dir: ".", STL: true},
	}
}

// loadConfig reads filename over the defaults. An empty filename returns
// the defaults.
func loadConfig(filename string) (tomlConfig, error) {
	tc := defaultConfig()
	if filename == "" {
		return tc, nil
	}
	md, err := toml.DecodeFile(filename, &tc)
	if err != nil {
		return tc, fmt.Errorf("could not decode TOML config %s: %w", filename, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logging.Warningf("ignoring unknown config keys in %s: %v", filename, undecoded)
	}
	if tc.Subdivide.Iterations < 0 {
		return tc, fmt.Errorf("config %s: subdivide.iterations must be non-negative", filename)
	}
	return tc, nil
}
