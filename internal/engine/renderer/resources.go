package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/vmora/cesium/internal/engine/render"
	"github.com/vmora/cesium/internal/engine/shader"
)

var (
	ErrEmptyBuffer     = errors.New("renderer: empty buffer")
	ErrForeignResource = errors.New("renderer: resource was not created by this renderer")
	ErrIndexOutOfWidth = errors.New("renderer: index does not fit index width")
	ErrNoIndexBuffer   = errors.New("renderer: vertex array needs an index buffer")
)

type vertexBuffer struct {
	id   uint32
	size int
}

func (b *vertexBuffer) SizeInBytes() int { return b.size }

func (b *vertexBuffer) Destroy() {
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}

type indexBuffer struct {
	id    uint32
	width render.IndexWidth
	count int
}

func (b *indexBuffer) Width() render.IndexWidth { return b.width }
func (b *indexBuffer) Count() int { return b.count }

func (b *indexBuffer) Destroy() {
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}

type vertexArray struct {
	id      uint32
	indices *indexBuffer
}

func (va *vertexArray) IndexBuffer() render.IndexBuffer { return va.indices }

func (va *vertexArray) Destroy() {
	if va.id != 0 {
		gl.DeleteVertexArrays(1, &va.id)
		va.id = 0
	}
}

type renderState struct {
	cfg render.RenderStateConfig
}

func (s *renderState) Config() render.RenderStateConfig { return s.cfg }

// CreateVertexBuffer uploads data as a static vertex buffer.
func (r *Renderer) CreateVertexBuffer(data []float32) (render.VertexBuffer, error) {
	if len(data) == 0 {
		return nil, ErrEmptyBuffer
	}

	b := &vertexBuffer{size: len(data) * 4}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
	gl.BufferData(gl.ARRAY_BUFFER, b.size, gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.log.Debug("vertex buffer created", zap.Uint32("vbo", b.id), zap.Int("bytes", b.size))
	return b, nil
}

// CreateIndexBuffer uploads indices narrowed to width. The buffer is bound
// to a vertex array by CreateVertexArray.
func (r *Renderer) CreateIndexBuffer(indices []uint32, width render.IndexWidth) (render.IndexBuffer, error) {
	if len(indices) == 0 {
		return nil, ErrEmptyBuffer
	}

	b := &indexBuffer{width: width, count: len(indices)}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.id)

	switch width {
	case render.Uint16:
		narrow := make([]uint16, len(indices))
		for i, idx := range indices {
			if idx > 0xFFFF {
				gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
				b.Destroy()
				return nil, fmt.Errorf("%w: %d at %d", ErrIndexOutOfWidth, idx, i)
			}
			narrow[i] = uint16(idx)
		}
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(narrow)*2, gl.Ptr(narrow), gl.STATIC_DRAW)
	default:
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)

	r.log.Debug("index buffer created",
		zap.Uint32("ebo", b.id),
		zap.Int("count", b.count),
		zap.Int("width", int(width)),
	)
	return b, nil
}

// CreateVertexArray records attribute bindings and the index buffer in a VAO.
func (r *Renderer) CreateVertexArray(attributes []render.VertexAttribute, indices render.IndexBuffer) (render.VertexArray, error) {
	ib, ok := indices.(*indexBuffer)
	if !ok || ib == nil {
		return nil, ErrNoIndexBuffer
	}
	for i, a := range attributes {
		if _, ok := a.Buffer.(*vertexBuffer); !ok {
			return nil, fmt.Errorf("attribute %d: %w", i, ErrForeignResource)
		}
	}

	va := &vertexArray{indices: ib}
	gl.GenVertexArrays(1, &va.id)
	gl.BindVertexArray(va.id)

	for _, a := range attributes {
		vb := a.Buffer.(*vertexBuffer)
		gl.BindBuffer(gl.ARRAY_BUFFER, vb.id)
		gl.VertexAttribPointer(a.Location, int32(a.Components), gl.FLOAT, false,
			int32(a.StrideBytes), gl.PtrOffset(a.OffsetBytes))
		gl.EnableVertexAttribArray(a.Location)
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ib.id)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.log.Debug("vertex array created", zap.Uint32("vao", va.id), zap.Int("attributes", len(attributes)))
	return va, nil
}

// CreateShaderProgram compiles and links a program with fixed attribute
// locations.
func (r *Renderer) CreateShaderProgram(vertexSrc, fragmentSrc string, attributeLocations map[string]uint32) (render.ShaderProgram, error) {
	p, err := shader.NewProgram(vertexSrc, fragmentSrc, attributeLocations)
	if err != nil {
		return nil, err
	}
	r.log.Debug("shader program created", zap.Uint32("program", p.ID))
	return p, nil
}

// CreateRenderState wraps cfg. State objects are plain values; they are
// applied when a command runs.
func (r *Renderer) CreateRenderState(cfg render.RenderStateConfig) (render.RenderState, error) {
	return &renderState{cfg: cfg}, nil
}
