// Package rendertest provides an in-memory render.Context that records every
// resource it creates, for tests that exercise GPU-facing code without a GPU.
package rendertest

import (
	"errors"

	"github.com/vmora/cesium/internal/engine/render"
)

// ErrInjected is returned by a Recorder call configured to fail.
var ErrInjected = errors.New("rendertest: injected failure")

// Resource is the common part of every recorded handle.
type Resource struct {
	ID        int
	Destroyed int // number of Destroy calls
}

// Destroy counts the call.
func (r *Resource) Destroy() { r.Destroyed++ }

// VertexBuffer is a recorded vertex buffer.
type VertexBuffer struct {
	Resource
	Data []float32
}

// SizeInBytes implements render.VertexBuffer.
func (b *VertexBuffer) SizeInBytes() int { return len(b.Data) * 4 }

// IndexBuffer is a recorded index buffer.
type IndexBuffer struct {
	Resource
	Indices    []uint32
	IndexWidth render.IndexWidth
}

// Width implements render.IndexBuffer.
func (b *IndexBuffer) Width() render.IndexWidth { return b.IndexWidth }

// Count implements render.IndexBuffer.
func (b *IndexBuffer) Count() int { return len(b.Indices) }

// VertexArray is a recorded vertex array.
type VertexArray struct {
	Resource
	Attributes []render.VertexAttribute
	Indices    render.IndexBuffer
}

// IndexBuffer implements render.VertexArray.
func (va *VertexArray) IndexBuffer() render.IndexBuffer { return va.Indices }

// ShaderProgram is a recorded shader program.
type ShaderProgram struct {
	Resource
	VertexSrc, FragmentSrc string
	Locations              map[string]uint32
}

// RenderState is a recorded render state.
type RenderState struct {
	ID  int
	Cfg render.RenderStateConfig
}

// Config implements render.RenderState.
func (s *RenderState) Config() render.RenderStateConfig { return s.Cfg }

// Recorder implements render.Context in memory.
type Recorder struct {
	VertexBuffers  []*VertexBuffer
	IndexBuffers   []*IndexBuffer
	VertexArrays   []*VertexArray
	ShaderPrograms []*ShaderProgram
	RenderStates   []*RenderState

	// Fail* make the next matching call return ErrInjected.
	FailVertexBuffer  bool
	FailIndexBuffer   bool
	FailVertexArray   bool
	FailShaderProgram bool
	FailRenderState   bool

	nextID int
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

func (r *Recorder) id() int {
	r.nextID++
	return r.nextID
}

// CreateVertexBuffer implements render.Context.
func (r *Recorder) CreateVertexBuffer(data []float32) (render.VertexBuffer, error) {
	if r.FailVertexBuffer {
		r.FailVertexBuffer = false
		return nil, ErrInjected
	}
	b := &VertexBuffer{Resource: Resource{ID: r.id()}, Data: append([]float32(nil), data...)}
	r.VertexBuffers = append(r.VertexBuffers, b)
	return b, nil
}

// CreateIndexBuffer implements render.Context.
func (r *Recorder) CreateIndexBuffer(indices []uint32, width render.IndexWidth) (render.IndexBuffer, error) {
	if r.FailIndexBuffer {
		r.FailIndexBuffer = false
		return nil, ErrInjected
	}
	b := &IndexBuffer{Resource: Resource{ID: r.id()}, Indices: append([]uint32(nil), indices...), IndexWidth: width}
	r.IndexBuffers = append(r.IndexBuffers, b)
	return b, nil
}

// CreateVertexArray implements render.Context.
func (r *Recorder) CreateVertexArray(attributes []render.VertexAttribute, indices render.IndexBuffer) (render.VertexArray, error) {
	if r.FailVertexArray {
		r.FailVertexArray = false
		return nil, ErrInjected
	}
	va := &VertexArray{Resource: Resource{ID: r.id()}, Attributes: attributes, Indices: indices}
	r.VertexArrays = append(r.VertexArrays, va)
	return va, nil
}

// CreateShaderProgram implements render.Context.
func (r *Recorder) CreateShaderProgram(vertexSrc, fragmentSrc string, locations map[string]uint32) (render.ShaderProgram, error) {
	if r.FailShaderProgram {
		r.FailShaderProgram = false
		return nil, ErrInjected
	}
	sp := &ShaderProgram{Resource: Resource{ID: r.id()}, VertexSrc: vertexSrc, FragmentSrc: fragmentSrc, Locations: locations}
	r.ShaderPrograms = append(r.ShaderPrograms, sp)
	return sp, nil
}

// CreateRenderState implements render.Context.
func (r *Recorder) CreateRenderState(cfg render.RenderStateConfig) (render.RenderState, error) {
	if r.FailRenderState {
		r.FailRenderState = false
		return nil, ErrInjected
	}
	rs := &RenderState{ID: r.id(), Cfg: cfg}
	r.RenderStates = append(r.RenderStates, rs)
	return rs, nil
}

// Live returns the number of created resources not yet destroyed.
func (r *Recorder) Live() int {
	n := 0
	for _, b := range r.VertexBuffers {
		if b.Destroyed == 0 {
			n++
		}
	}
	for _, b := range r.IndexBuffers {
		if b.Destroyed == 0 {
			n++
		}
	}
	for _, va := range r.VertexArrays {
		if va.Destroyed == 0 {
			n++
		}
	}
	for _, sp := range r.ShaderPrograms {
		if sp.Destroyed == 0 {
			n++
		}
	}
	return n
}

// DoubleDestroyed reports whether any resource was destroyed more than once.
func (r *Recorder) DoubleDestroyed() bool {
	var all []*Resource
	for _, b := range r.VertexBuffers {
		all = append(all, &b.Resource)
	}
	for _, b := range r.IndexBuffers {
		all = append(all, &b.Resource)
	}
	for _, va := range r.VertexArrays {
		all = append(all, &va.Resource)
	}
	for _, sp := range r.ShaderPrograms {
		all = append(all, &sp.Resource)
	}
	for _, res := range all {
		if res.Destroyed > 1 {
			return true
		}
	}
	return false
}

var _ render.Context = (*Recorder)(nil)
