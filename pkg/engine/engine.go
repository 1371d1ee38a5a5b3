// Package engine provides the Lisp evaluation engine for mesh scripts.
// It wraps zygomys in a sandboxed environment and produces a triangle
// mesh plus a requested subdivision level from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chazu/subdiv/pkg/kernel"
	"github.com/chazu/subdiv/pkg/mesh"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Result is the output of a successful evaluation.
type Result struct {
	// Mesh holds every triangle the script added.
	Mesh *mesh.Mesh
	// Iterations is the subdivision level requested with (subdivide n).
	Iterations int
	// Skipped counts degenerate triangles dropped while welding solids.
	Skipped int
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeldTolerance sets the grid size used to weld coincident positions.
func WithWeldTolerance(tol float64) Option {
	return func(e *Engine) {
		e.weld = tol
	}
}

// sandboxMu serializes zygomys sandbox setup across engines; creating an
// environment touches package globals. It is never held while user code runs.
var sandboxMu sync.Mutex

// Engine wraps the zygomys interpreter for mesh scripts.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment and a fresh mesh for determinism.
type Engine struct {
	kernel kernel.Kernel
	weld   float64

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine. k backs the solid builtins; it may be nil,
// in which case only explicit vertex/triangle scripts evaluate.
func NewEngine(k kernel.Kernel, opts ...Option) *Engine {
	e := &Engine{kernel: k}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate takes Lisp source code and produces a new mesh.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval failure: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.evaluate(source)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Result, []EvalError, error) {
	st := newScriptState(e.kernel, e.weld)

	// Empty source is a valid program that produces an empty mesh.
	if strings.TrimSpace(source) == "" {
		return st.result(), nil, nil
	}

	env := newSandbox(st)
	defer env.Stop()

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	return st.result(), nil, nil
}

// newSandbox creates a zygomys environment with the mesh builtins bound to st.
func newSandbox(st *scriptState) *zygo.Zlisp {
	sandboxMu.Lock()
	defer sandboxMu.Unlock()

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	registerBuiltins(env, st)
	return env
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// zygomys formats parse errors as "Error on line N: <details>\n".
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
