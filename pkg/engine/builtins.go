package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/subdiv/pkg/kernel"
	"github.com/chazu/subdiv/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// cylinderSegments is passed to Kernel.Cylinder; SDF kernels ignore it.
const cylinderSegments = 32

var errNoKernel = errors.New("no geometry kernel configured")

// ---------------------------------------------------------------------------
// Script state
// ---------------------------------------------------------------------------

// scriptState is the mesh under construction for one evaluation.
type scriptState struct {
	kernel     kernel.Kernel
	builder    *mesh.Builder
	iterations int
}

func newScriptState(k kernel.Kernel, weld float64) *scriptState {
	return &scriptState{
		kernel:  k,
		builder: mesh.NewBuilder(mesh.New(), weld),
	}
}

func (st *scriptState) result() *Result {
	return &Result{
		Mesh:       st.builder.Mesh(),
		Iterations: st.iterations,
		Skipped:    st.builder.Skipped(),
	}
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a position or direction.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpVertex wraps a welded mesh vertex.
type sexpVertex struct {
	v *mesh.Vertex
}

func (v *sexpVertex) SexpString(ps *zygo.PrintState) string {
	p := v.v.Position
	return fmt.Sprintf("(vertex %s %g %g %g)", v.v.ID, p.X, p.Y, p.Z)
}
func (v *sexpVertex) Type() *zygo.RegisteredType { return nil }

// sexpTriangle wraps a triangle added to the mesh.
type sexpTriangle struct {
	t *mesh.Triangle
}

func (t *sexpTriangle) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(triangle %s)", t.t.ID)
}
func (t *sexpTriangle) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a kernel solid that has not been tessellated yet.
type sexpSolid struct {
	s    kernel.Solid
	desc string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return "(" + s.desc + ")"
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Trailing keyword with no value.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a position from a sexpVec3 or a sexpVertex.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	switch v := s.(type) {
	case *sexpVec3:
		return v.vec, nil
	case *sexpVertex:
		return v.v.Position, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// vecArgs accepts either one vec3 or three numbers.
func vecArgs(args []zygo.Sexp) (v3.Vec, error) {
	switch len(args) {
	case 1:
		return toVec3(args[0])
	case 3:
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return v3.Vec{}, fmt.Errorf("%c: %w", "xyz"[i], err)
			}
			xyz[i] = f
		}
		return v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
	}
	return v3.Vec{}, fmt.Errorf("expected a vec3 or 3 numbers, got %d arguments", len(args))
}

// toVertex resolves a corner argument: a vertex handle is used as is, a
// vec3 is welded through the builder.
func (st *scriptState) toVertex(s zygo.Sexp) (*mesh.Vertex, error) {
	switch v := s.(type) {
	case *sexpVertex:
		return v.v, nil
	case *sexpVec3:
		return st.builder.Vertex(v.vec), nil
	}
	return nil, fmt.Errorf("expected vertex or vec3, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts a kernel solid.
func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the mesh script builtins into a zygomys
// environment. The builtins write into st during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, st *scriptState) {
	registerMeshBuiltins(env, st)
	registerSolidBuiltins(env, st)

	// -----------------------------------------------------------------------
	// (subdivide 2)
	// -----------------------------------------------------------------------
	env.AddFunction("subdivide", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("subdivide requires exactly 1 argument, got %d", len(args))
		}
		n, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("subdivide: %w", err)
		}
		if n < 0 {
			return zygo.SexpNull, fmt.Errorf("subdivide: iterations must be non-negative, got %d", n)
		}
		st.iterations = n
		return &zygo.SexpInt{Val: int64(n)}, nil
	})
}

func registerMeshBuiltins(env *zygo.Zlisp, st *scriptState) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		v, err := vecArgs(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (vertex 0 0 1) or (vertex (vec3 0 0 1))
	// -----------------------------------------------------------------------
	env.AddFunction("vertex", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		p, err := vecArgs(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vertex: %w", err)
		}
		return &sexpVertex{v: st.builder.Vertex(p)}, nil
	})

	// -----------------------------------------------------------------------
	// (triangle a b c) with vertices or vec3 corners
	// -----------------------------------------------------------------------
	env.AddFunction("triangle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("triangle requires exactly 3 corners, got %d", len(args))
		}
		t, err := st.addFace(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("triangle: %w", err)
		}
		return &sexpTriangle{t: t}, nil
	})

	// -----------------------------------------------------------------------
	// (quad a b c d) adds (a b c) and (a c d)
	// -----------------------------------------------------------------------
	env.AddFunction("quad", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("quad requires exactly 4 corners, got %d", len(args))
		}
		first, err := st.addFace([]zygo.Sexp{args[0], args[1], args[2]})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("quad: %w", err)
		}
		second, err := st.addFace([]zygo.Sexp{args[0], args[2], args[3]})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("quad: %w", err)
		}
		return zygo.MakeList([]zygo.Sexp{&sexpTriangle{t: first}, &sexpTriangle{t: second}}), nil
	})
}

// addFace resolves three corners and adds the triangle.
func (st *scriptState) addFace(corners []zygo.Sexp) (*mesh.Triangle, error) {
	var vs [3]*mesh.Vertex
	for i, c := range corners {
		v, err := st.toVertex(c)
		if err != nil {
			return nil, fmt.Errorf("corner %d: %w", i, err)
		}
		vs[i] = v
	}
	for i := 0; i < 3; i++ {
		if vs[i] == vs[(i+1)%3] {
			return nil, fmt.Errorf("corners %d and %d are the same vertex %s", i, (i+1)%3, vs[i].ID)
		}
	}
	return st.builder.Mesh().AddTriangle(vs[0], vs[1], vs[2]), nil
}

func registerSolidBuiltins(env *zygo.Zlisp, st *scriptState) {

	// withKernel guards builtins that need a geometry kernel.
	withKernel := func(fn zygo.ZlispUserFunction) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if st.kernel == nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, errNoKernel)
			}
			return fn(env, name, args)
		}
	}

	// -----------------------------------------------------------------------
	// (box 2 2 2) or (box :size (vec3 2 2 2))
	// -----------------------------------------------------------------------
	env.AddFunction("box", withKernel(func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		sizeArgs := pa.positional
		if v, ok := pa.kw["size"]; ok {
			sizeArgs = []zygo.Sexp{v}
		}
		size, err := vecArgs(sizeArgs)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
		}
		if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
			return zygo.SexpNull, fmt.Errorf("box: size must be positive, got %g x %g x %g", size.X, size.Y, size.Z)
		}
		return &sexpSolid{
			s:    st.kernel.Box(size.X, size.Y, size.Z),
			desc: fmt.Sprintf("box %gx%gx%g", size.X, size.Y, size.Z),
		}, nil
	}))

	// -----------------------------------------------------------------------
	// (sphere 5) or (sphere :radius 5)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", withKernel(func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r, err := floatArg(parseArgs(args), "radius", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		if r <= 0 {
			return zygo.SexpNull, fmt.Errorf("sphere: radius must be positive, got %g", r)
		}
		return &sexpSolid{s: st.kernel.Sphere(r), desc: fmt.Sprintf("sphere %g", r)}, nil
	}))

	// -----------------------------------------------------------------------
	// (cylinder :height 10 :radius 2) or (cylinder 10 2)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", withKernel(func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		h, err := floatArg(pa, "height", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		r, err := floatArg(pa, "radius", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		if h <= 0 || r <= 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder: height and radius must be positive, got %g and %g", h, r)
		}
		return &sexpSolid{
			s:    st.kernel.Cylinder(h, r, cylinderSegments),
			desc: fmt.Sprintf("cylinder %g %g", h, r),
		}, nil
	}))

	// -----------------------------------------------------------------------
	// (union a b ...) (difference a b) (intersection a b ...)
	// -----------------------------------------------------------------------
	booleans := map[string]func(a, b kernel.Solid) kernel.Solid{
		"union":        func(a, b kernel.Solid) kernel.Solid { return st.kernel.Union(a, b) },
		"difference":   func(a, b kernel.Solid) kernel.Solid { return st.kernel.Difference(a, b) },
		"intersection": func(a, b kernel.Solid) kernel.Solid { return st.kernel.Intersection(a, b) },
	}
	for opName, op := range booleans {
		op := op
		env.AddFunction(opName, withKernel(func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", name, len(args))
			}
			acc, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: operand 0: %w", name, err)
			}
			s := acc.s
			descs := []string{acc.desc}
			for i := 1; i < len(args); i++ {
				next, err := toSolid(args[i])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", name, i, err)
				}
				s = op(s, next.s)
				descs = append(descs, next.desc)
			}
			return &sexpSolid{s: s, desc: name + " (" + strings.Join(descs, ") (") + ")"}, nil
		}))
	}

	// -----------------------------------------------------------------------
	// (translate s (vec3 1 0 0)) and (rotate s (vec3 0 0 90)), degrees
	// -----------------------------------------------------------------------
	transforms := map[string]func(s kernel.Solid, v v3.Vec) kernel.Solid{
		"translate": func(s kernel.Solid, v v3.Vec) kernel.Solid { return st.kernel.Translate(s, v.X, v.Y, v.Z) },
		"rotate":    func(s kernel.Solid, v v3.Vec) kernel.Solid { return st.kernel.Rotate(s, v.X, v.Y, v.Z) },
	}
	for opName, op := range transforms {
		op := op
		env.AddFunction(opName, withKernel(func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a solid and a vec3", name)
			}
			s, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			v, err := vecArgs(args[1:])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return &sexpSolid{
				s:    op(s.s, v),
				desc: fmt.Sprintf("%s (%s) %g %g %g", name, s.desc, v.X, v.Y, v.Z),
			}, nil
		}))
	}

	// -----------------------------------------------------------------------
	// (solid s) tessellates s into the mesh; returns the triangles added
	// -----------------------------------------------------------------------
	env.AddFunction("solid", withKernel(func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires exactly 1 argument, got %d", len(args))
		}
		s, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: %w", err)
		}
		before := st.builder.Mesh().TriangleCount()
		if err := st.kernel.Emit(s.s, st.builder); err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: %w", err)
		}
		added := st.builder.Mesh().TriangleCount() - before
		return &zygo.SexpInt{Val: int64(added)}, nil
	}))
}

// floatArg reads keyword kw, falling back to positional argument pos.
func floatArg(pa kwArgs, kw string, pos int) (float64, error) {
	v, ok := pa.kw[kw]
	if !ok {
		if pos >= len(pa.positional) {
			return 0, fmt.Errorf("missing %s", kw)
		}
		v = pa.positional[pos]
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", kw, err)
	}
	return f, nil
}
