// Package openglhelper wraps the small set of raw OpenGL calls the
// chunked world subsystem's GPU path needs: persistently-mapped buffer
// storage, vertex array objects, and indirect multi-draw command
// buffers. Everything above this package (pool, render) stays
// GL-agnostic; only this package and the cmd/ entrypoints that wire it
// import go-gl/gl directly.
package openglhelper

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/dantero/voxelcore/internal/pool"
	"github.com/dantero/voxelcore/internal/world"
)

// DrawElementsIndirectCommand mirrors GL_DRAW_INDIRECT_BUFFER's layout
// for glMultiDrawElementsIndirect.
type DrawElementsIndirectCommand struct {
	Count         uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	BaseInstance  uint32
}

// DrawElementsIndirectCommandSize is the byte size of one command.
const DrawElementsIndirectCommandSize = int(unsafe.Sizeof(DrawElementsIndirectCommand{}))

// BufferObject wraps a raw OpenGL buffer name with the bookkeeping the
// persistent-mapping path needs.
type BufferObject struct {
	ID        uint32
	Type      uint32
	Size      int
	IsMapped  bool
	MappedPtr unsafe.Pointer
}

// NewPersistentBuffer allocates immutable storage of sizeInBytes on
// bufferType and maps it for the lifetime of the buffer with
// GL_MAP_PERSISTENT_BIT|GL_MAP_COHERENT_BIT, so the chunk thread worker
// can write vertices without a driver-side copy or explicit sync.
func NewPersistentBuffer(bufferType uint32, sizeInBytes int) (*BufferObject, error) {
	var id uint32
	gl.GenBuffers(1, &id)

	bo := &BufferObject{ID: id, Type: bufferType, Size: sizeInBytes}
	flags := uint32(gl.MAP_PERSISTENT_BIT | gl.MAP_COHERENT_BIT | gl.MAP_WRITE_BIT | gl.MAP_READ_BIT)

	bo.Bind()
	gl.BufferStorage(bufferType, sizeInBytes, nil, flags)
	bo.MappedPtr = gl.MapBufferRange(bufferType, 0, sizeInBytes, flags)
	if bo.MappedPtr == nil {
		gl.DeleteBuffers(1, &id)
		return nil, fmt.Errorf("openglhelper: failed to map %d-byte persistent buffer", sizeInBytes)
	}
	bo.IsMapped = true
	return bo, nil
}

// Bind binds the buffer to its type target.
func (bo *BufferObject) Bind() { gl.BindBuffer(bo.Type, bo.ID) }

// Delete unmaps (if mapped) and deletes the buffer.
func (bo *BufferObject) Delete() {
	if bo.IsMapped {
		bo.Bind()
		gl.UnmapBuffer(bo.Type)
		bo.IsMapped = false
	}
	gl.DeleteBuffers(1, &bo.ID)
}

// VertexPoolBuffer is a persistently-mapped vertex buffer sized exactly
// for a pool.Pool's backing slice, plus the slice itself reinterpreted
// over the mapped memory so the pool and mesher write straight into
// GPU-visible storage.
type VertexPoolBuffer struct {
	Buffer  *BufferObject
	Backing []pool.Vertex
}

// NewVertexPoolBuffer creates the GL_ARRAY_BUFFER backing a vertex
// pool of capacity*NumSubChunks slots, each maxVertsPerSubChunk
// vertices wide.
func NewVertexPoolBuffer(capacity, maxVertsPerSubChunk int) (*VertexPoolBuffer, error) {
	n := capacity * world.NumSubChunks
	count := n * maxVertsPerSubChunk
	sizeBytes := count * int(unsafe.Sizeof(pool.Vertex{}))

	buf, err := NewPersistentBuffer(gl.ARRAY_BUFFER, sizeBytes)
	if err != nil {
		return nil, err
	}

	backing := unsafe.Slice((*pool.Vertex)(buf.MappedPtr), count)
	return &VertexPoolBuffer{Buffer: buf, Backing: backing}, nil
}

// NewVAO creates a vertex array object.
func NewVAO() uint32 {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return id
}

// NewIndirectBuffer creates a buffer sized for maxCommands indirect
// draw commands, updated with BufferSubData once per frame.
func NewIndirectBuffer(maxCommands int) *BufferObject {
	var id uint32
	gl.GenBuffers(1, &id)
	bo := &BufferObject{ID: id, Type: gl.DRAW_INDIRECT_BUFFER, Size: maxCommands * DrawElementsIndirectCommandSize}
	bo.Bind()
	gl.BufferData(gl.DRAW_INDIRECT_BUFFER, bo.Size, nil, gl.DYNAMIC_DRAW)
	return bo
}

// UploadIndirectCommands overwrites bo's contents with commands.
func (bo *BufferObject) UploadIndirectCommands(commands []DrawElementsIndirectCommand) {
	if len(commands) == 0 {
		return
	}
	bo.Bind()
	gl.BufferSubData(gl.DRAW_INDIRECT_BUFFER, 0, len(commands)*DrawElementsIndirectCommandSize, gl.Ptr(commands))
}

// MultiDrawArraysIndirect issues one indirect multi-draw call for
// commandCount commands already uploaded to the bound indirect buffer.
// The vertex pool's slots hold raw vertex data (not indexed geometry),
// so this uses the non-indexed indirect entry point.
func MultiDrawArraysIndirect(mode uint32, commandCount int) {
	gl.MultiDrawArraysIndirect(mode, nil, int32(commandCount), 0)
}

// ChunkInstance packs one draw's per-instance attributes: the sub-chunk's
// chunk coordinate and biome id, §4.8 step 5's "two parallel instanced
// arrays (chunk coord i32x2 per draw, biome id i32 per draw)" combined
// into a single SSBO record so one BaseInstance-indexed lookup in the
// shader resolves both.
type ChunkInstance struct {
	CoordX, CoordZ int32
	BiomeID        int32
	_pad           int32 // rounds the array stride to 16 bytes for std430
}

// ChunkInstanceSize is the byte size of one ChunkInstance record.
const ChunkInstanceSize = int(unsafe.Sizeof(ChunkInstance{}))

// NewChunkInstanceSSBO creates a GL_SHADER_STORAGE_BUFFER sized for
// maxCommands per-draw chunk-coord/biome-id entries, the same shape as
// Leterax's chunkPosSSBO generalized from one vec4 position per chunk
// to this spec's (chunk_coords, biome_id) pair; indexed in-shader by
// gl_BaseInstance, the same way chunkPosSSBO is indexed there.
func NewChunkInstanceSSBO(maxCommands int) *BufferObject {
	var id uint32
	gl.GenBuffers(1, &id)
	bo := &BufferObject{ID: id, Type: gl.SHADER_STORAGE_BUFFER, Size: maxCommands * ChunkInstanceSize}
	bo.Bind()
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, bo.Size, nil, gl.DYNAMIC_DRAW)
	return bo
}

// UploadChunkInstances overwrites bo's contents with one ChunkInstance
// per draw command, in the same order as the indirect command buffer
// uploaded alongside it, so a shader's gl_BaseInstance indexes both
// consistently.
func (bo *BufferObject) UploadChunkInstances(instances []ChunkInstance) {
	if len(instances) == 0 {
		return
	}
	bo.Bind()
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(instances)*ChunkInstanceSize, gl.Ptr(instances))
}

// BindBase binds bo to an indexed shader storage binding point, per
// glBindBufferBase — the call that makes a shader's binding-qualified
// buffer block resolve against this buffer.
func (bo *BufferObject) BindBase(binding uint32) {
	gl.BindBufferBase(bo.Type, binding, bo.ID)
}
