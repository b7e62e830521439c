// Package render describes point store attributes to the render layer.
//
// plotcore does not render; an external collaborator uploads the attribute
// buffers and draws them once per frame. This package gives that
// collaborator an unambiguous description of what it is uploading: a
// struct-of-arrays vertex layout in gputypes terms, and a packer that turns
// an attribute bundle into upload-ready byte slices. Device, pipeline, and
// shader handling stay entirely on the collaborator's side.
package render

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/plotcore/store"
)

// Buffer indices in the struct-of-arrays layout.
const (
	BufferPosition = 0
	BufferSize     = 1
	BufferColor    = 2
)

// PointLayout returns the vertex buffer layout of packed point attributes:
// one buffer per attribute, vertex-stepped, shader locations 0..2.
func PointLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: 8, // two float32
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
		{
			ArrayStride: 4,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32, Offset: 0, ShaderLocation: 1},
			},
		},
		{
			ArrayStride: 16, // four float32, rgba
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},
			},
		},
	}
}

// Buffers packs an attribute bundle into byte slices matching PointLayout,
// indexed by the Buffer constants. Floats are little-endian, the byte order
// GPU uploads expect.
func Buffers(a store.Attributes) [3][]byte {
	var out [3][]byte

	pos := make([]byte, 8*len(a.X))
	for i := range a.X {
		binary.LittleEndian.PutUint32(pos[8*i:], math.Float32bits(a.X[i]))
		binary.LittleEndian.PutUint32(pos[8*i+4:], math.Float32bits(a.Y[i]))
	}
	out[BufferPosition] = pos

	size := make([]byte, 4*len(a.Size))
	for i, s := range a.Size {
		binary.LittleEndian.PutUint32(size[4*i:], math.Float32bits(s))
	}
	out[BufferSize] = size

	// rgba bytes widen to normalized float32, the color encoding the draw
	// pipelines consume.
	color := make([]byte, 4*len(a.Color))
	for i, c := range a.Color {
		binary.LittleEndian.PutUint32(color[4*i:], math.Float32bits(float32(c)/255))
	}
	out[BufferColor] = color

	return out
}
