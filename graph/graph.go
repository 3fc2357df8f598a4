// Package graph resolves a preset's declared passes and input wiring into an
// ordered execution plan.
//
// Pass order is fixed by convention (buffer_a..buffer_d, cube_a, image) and
// buffer references read one-frame-stale data, so feedback loops need no
// cycle detection: a pass reading its own output, or any pass's
// previous-frame output, never constrains ordering. Only explicit
// current-frame references are ordering edges, and one that cannot be
// satisfied by the fixed order is a configuration error.
package graph

import (
	"errors"
	"fmt"

	"github.com/richinsley/goshaderbg/preset"
)

var (
	// ErrInvalidInputReference reports an input name outside the predefined
	// and buffer-name sets for its declared type.
	ErrInvalidInputReference = errors.New("invalid input reference")

	// ErrInvalidInputSlot reports an input channel index outside [0,3].
	ErrInvalidInputSlot = errors.New("input slot out of range")

	// ErrDanglingBufferReference reports a reference to a buffer pass that
	// has no shader text and therefore never renders.
	ErrDanglingBufferReference = errors.New("dangling buffer reference")

	// ErrCyclicCurrentFrameDependency reports a same-frame buffer reference
	// that the fixed pass order cannot satisfy (self reference or mutual
	// current-frame reads).
	ErrCyclicCurrentFrameDependency = errors.New("cyclic current-frame dependency")
)

// BindingKind tags the concrete resource a resolved input binds to.
type BindingKind int

const (
	KindBuffer BindingKind = iota
	KindTexture
	KindCubemap
	KindVolume
	KindKeyboard
)

// Binding is a resolved input slot of a pass.
type Binding struct {
	Slot int
	Kind BindingKind

	// Target names the producing pass for KindBuffer bindings. Current marks
	// a same-frame read; the default is the previous frame's output.
	Target  preset.PassID
	Current bool

	// Name keys the asset catalog for texture/cubemap/volume bindings.
	Name string

	Wrap   preset.WrapMode
	Filter preset.FilterMode
	VFlip  bool
}

// Pass is one node of the execution plan.
type Pass struct {
	ID       preset.PassID
	Source   string
	Bindings []*Binding
	Cubemap  bool
}

// Binding returns the binding for the given slot, or nil.
func (p *Pass) Binding(slot int) *Binding {
	for _, b := range p.Bindings {
		if b.Slot == slot {
			return b
		}
	}
	return nil
}

// Graph is the resolved, immutable-per-load execution plan built from a
// preset. Passes appear in execution order; the image pass is always last.
type Graph struct {
	Passes []*Pass
	Common string

	byID map[preset.PassID]*Pass
}

// Pass returns the plan node for the given pass identifier, or nil when the
// pass is absent from the plan.
func (g *Graph) Pass(id preset.PassID) *Pass {
	return g.byID[id]
}

// Producers lists the buffer-producing passes present in the plan, in
// execution order. These are the passes that own ping-pong resource slots.
func (g *Graph) Producers() []preset.PassID {
	var ids []preset.PassID
	for _, p := range g.Passes {
		if p.ID != preset.PassImage {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// bufferTarget maps a misc input name to the referenced buffer pass. Both
// pass identifiers and ShaderToy display names are accepted.
func bufferTarget(name string) (preset.PassID, bool) {
	switch name {
	case "buffer_a", "Buffer A":
		return preset.PassBufferA, true
	case "buffer_b", "Buffer B":
		return preset.PassBufferB, true
	case "buffer_c", "Buffer C":
		return preset.PassBufferC, true
	case "buffer_d", "Buffer D":
		return preset.PassBufferD, true
	case "cube_a", "Cubemap A", "Cube A":
		return preset.PassCubeA, true
	}
	return "", false
}

// inert reports whether the input type is recognized in configuration but
// never produces GPU work.
func inert(t preset.InputType) bool {
	switch t {
	case preset.InputVideo, preset.InputMusic, preset.InputMusicStream,
		preset.InputWebcam, preset.InputMicrophone:
		return true
	}
	return false
}

// Build turns a preset into an execution plan or a structural error. Passes
// with empty shader text are excluded; the image pass is always present
// (preset normalization substitutes the built-in shader when absent).
func Build(p *preset.Preset) (*Graph, error) {
	g := &Graph{
		Common: p.CommonCode(),
		byID:   make(map[preset.PassID]*Pass),
	}

	order := make(map[preset.PassID]int)
	for _, id := range preset.ExecutionOrder {
		decl := p.Pass(id)
		if decl == nil || decl.Shader == "" {
			continue
		}
		order[id] = len(g.Passes)
		node := &Pass{
			ID:      id,
			Source:  decl.Shader,
			Cubemap: id == preset.PassCubeA,
		}
		g.Passes = append(g.Passes, node)
		g.byID[id] = node
	}

	for _, node := range g.Passes {
		decl := p.Pass(node.ID)
		for slot, in := range decl.Inputs() {
			if in == nil {
				continue
			}
			b, err := ResolveBinding(slot, in)
			if err != nil {
				return nil, fmt.Errorf("pass %s: %w", node.ID, err)
			}
			if b == nil {
				continue
			}
			if b.Kind == KindBuffer {
				targetOrder, present := order[b.Target]
				if !present {
					return nil, fmt.Errorf("pass %s input %d references %s: %w",
						node.ID, slot, b.Target, ErrDanglingBufferReference)
				}
				if b.Current && targetOrder >= order[node.ID] {
					return nil, fmt.Errorf("pass %s input %d reads current frame of %s: %w",
						node.ID, slot, b.Target, ErrCyclicCurrentFrameDependency)
				}
			}
			node.Bindings = append(node.Bindings, b)
		}
	}

	return g, nil
}

// ResolveBinding resolves one input slot. It returns nil without error for
// inert input types (video, music, webcam, ...). The slot index must be in
// [0,3]; unused slots are absent rather than default-bound.
func ResolveBinding(slot int, in *preset.Input) (*Binding, error) {
	if slot < 0 || slot > 3 {
		return nil, fmt.Errorf("slot %d: %w", slot, ErrInvalidInputSlot)
	}
	if inert(in.Type) {
		return nil, nil
	}

	b := &Binding{
		Slot:   slot,
		Name:   in.Name,
		Wrap:   in.Wrap,
		Filter: in.Filter,
		VFlip:  in.VFlip,
	}

	switch in.Type {
	case preset.InputMisc:
		target, ok := bufferTarget(in.Name)
		if !ok {
			return nil, fmt.Errorf("slot %d: misc input %q: %w", slot, in.Name, ErrInvalidInputReference)
		}
		b.Kind = KindBuffer
		b.Target = target
		b.Current = in.Frame == preset.FrameCurrent
	case preset.InputTexture:
		if in.Name == "" {
			return nil, fmt.Errorf("slot %d: texture input with no name: %w", slot, ErrInvalidInputReference)
		}
		b.Kind = KindTexture
	case preset.InputCubemap:
		if in.Name == "" {
			return nil, fmt.Errorf("slot %d: cubemap input with no name: %w", slot, ErrInvalidInputReference)
		}
		b.Kind = KindCubemap
	case preset.InputVolume:
		if in.Name == "" {
			return nil, fmt.Errorf("slot %d: volume input with no name: %w", slot, ErrInvalidInputReference)
		}
		b.Kind = KindVolume
	case preset.InputKeyboard:
		b.Kind = KindKeyboard
	default:
		return nil, fmt.Errorf("slot %d: input type %q: %w", slot, in.Type, ErrInvalidInputReference)
	}

	return b, nil
}
