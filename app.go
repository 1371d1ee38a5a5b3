package main

import (
	"fmt"

	"github.com/chazu/subdiv/pkg/engine"
	"github.com/chazu/subdiv/pkg/kernel"
	"github.com/chazu/subdiv/pkg/logging"
	"github.com/chazu/subdiv/pkg/mesh"
	"github.com/chazu/subdiv/pkg/subdiv"
	"github.com/chazu/subdiv/pkg/tessellate"
)

// maxWarnings caps how many validation warnings are reported per result.
const maxWarnings = 20

// App runs the script -> mesh -> subdivision -> buffers pipeline.
type App struct {
	engine *engine.Engine
}

// MeshData is the JSON-serializable mesh format handed to renderers.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of one evaluation.
type EvalResult struct {
	Mesh       *MeshData       `json:"mesh,omitempty"`
	Input      mesh.Stats      `json:"input"`
	Output     mesh.Stats      `json:"output"`
	Iterations int             `json:"iterations"`
	Errors     []EvalErrorData `json:"errors"`
	Warnings   []EvalErrorData `json:"warnings"`

	// Subdivided is the final adjacency mesh, kept for exporters.
	Subdivided *mesh.Mesh `json:"-"`
}

// NewApp creates an App whose scripts build solids with k.
func NewApp(k kernel.Kernel, opts ...engine.Option) *App {
	return &App{engine: engine.NewEngine(k, opts...)}
}

// Evaluate runs source, then subdivides the resulting mesh by the level the
// script requested plus extraIterations. name labels the output buffers.
func (a *App) Evaluate(name, source string, extraIterations int) EvalResult {
	result := EvalResult{
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a mesh.
	res, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		logging.Errorf("%s: evaluate fatal error: %v", name, err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	result.Input = res.Mesh.Stats()
	if res.Skipped > 0 {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Message: fmt.Sprintf("dropped %d degenerate triangles while welding", res.Skipped),
		})
	}

	// Step 2: Subdivide.
	result.Iterations = res.Iterations + extraIterations
	m, err := subdiv.Subdivide(res.Mesh, result.Iterations)
	if err != nil {
		logging.Errorf("%s: subdivide error: %v", name, err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "subdivision failed: " + err.Error(),
		})
		return result
	}
	result.Output = m.Stats()
	result.Subdivided = m

	// Step 3: Check adjacency invariants on the result.
	a.report(&result, mesh.Validate(m))
	if len(result.Errors) > 0 {
		return result
	}

	// Step 4: Flatten into render buffers.
	result.Mesh = meshData(tessellate.Flatten(m, name))
	return result
}

func meshData(b *tessellate.Buffers) *MeshData {
	return &MeshData{
		Vertices: b.Vertices,
		Normals:  b.Normals,
		Indices:  b.Indices,
		Name:     b.Name,
	}
}

// report sorts validation findings into errors and warnings.
func (a *App) report(result *EvalResult, findings []mesh.ValidationError) {
	var warnings int
	for _, f := range findings {
		if f.Severity == mesh.SeverityError {
			result.Errors = append(result.Errors, EvalErrorData{Message: "invalid mesh: " + f.Error()})
			continue
		}
		warnings++
		if warnings <= maxWarnings {
			result.Warnings = append(result.Warnings, EvalErrorData{Message: f.Error()})
		}
	}
	if warnings > maxWarnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Message: fmt.Sprintf("%d more warnings not shown", warnings-maxWarnings),
		})
	}
}
