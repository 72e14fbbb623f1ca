// Package network implements the wire frames that move chunk snapshots
// and block mutations between a server and its clients: a chunk-stream
// frame for the initial world send, and SetBlock/RemoveBlock frames for
// steady-state mutation. Both directions are little-endian, matching
// the on-disk chunk codec in internal/world.
package network

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/dantero/voxelcore/internal/world"
)

// ChunkStreamEntry is one chunk's worth of payload within a
// chunk-stream frame.
type ChunkStreamEntry struct {
	Chunk *world.Chunk
	State world.ChunkState
}

// WriteChunkStream writes the server -> client initial world send:
//
//	u16  num_chunks
//	repeat num_chunks times:
//	    u32  entry_size                  // bytes in the world.Serialize blob
//	    world.Serialize blob:
//	        u32  compressed_size
//	        RLE payload                  // compressed_size bytes
//	        i32  chunk_x
//	        i32  chunk_z
//	    u8   chunk_state
//
// Each entry therefore carries two size words: entry_size, which lets a
// reader slice exactly one entry out of the stream before handing it to
// world.Deserialize, and world.Serialize's own compressed_size. The RLE
// payload does not directly follow the first size word.
func WriteChunkStream(w io.Writer, entries []ChunkStreamEntry) error {
	if len(entries) > 0xFFFF {
		return fmt.Errorf("network: %d chunks exceeds u16 num_chunks", len(entries))
	}
	var hdr [2]byte
	binary.LittleEndian.PutUint16(hdr[:], uint16(len(entries)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	for _, e := range entries {
		var buf countingWriter
		if err := world.Serialize(&buf, e.Chunk); err != nil {
			return err
		}

		var sizeBuf [4]byte
		binary.LittleEndian.PutUint32(sizeBuf[:], uint32(buf.n))
		if _, err := w.Write(sizeBuf[:]); err != nil {
			return err
		}
		if _, err := w.Write(buf.data); err != nil {
			return err
		}
		if _, err := w.Write([]byte{byte(e.State)}); err != nil {
			return err
		}
	}
	return nil
}

// ReadChunkStream reads a frame written by WriteChunkStream, rehydrating
// each chunk's cached flags via flagsOf (see world.Deserialize).
func ReadChunkStream(r io.Reader, flagsOf func(id world.BlockID) (transparent, lightSource, blendable bool)) ([]ChunkStreamEntry, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	numChunks := binary.LittleEndian.Uint16(hdr[:])

	entries := make([]ChunkStreamEntry, 0, numChunks)
	for i := uint16(0); i < numChunks; i++ {
		var sizeBuf [4]byte
		if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
			return nil, err
		}
		size := binary.LittleEndian.Uint32(sizeBuf[:])

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}

		chunk, err := world.Deserialize(bytes.NewReader(payload), flagsOf)
		if err != nil {
			return nil, err
		}

		var stateBuf [1]byte
		if _, err := io.ReadFull(r, stateBuf[:]); err != nil {
			return nil, err
		}

		entries = append(entries, ChunkStreamEntry{Chunk: chunk, State: world.ChunkState(stateBuf[0])})
	}
	return entries, nil
}

// SetBlockFrame is the server/client SetBlock mutation frame:
// vec3<f32> world_pos, u32 block_id + flags.
type SetBlockFrame struct {
	X, Y, Z float32
	Block   world.Block
}

// WriteSetBlock writes a SetBlock frame: position as three f32, then
// the block id and its three boolean flags packed into the low bits of
// a u32.
func WriteSetBlock(w io.Writer, f SetBlockFrame) error {
	var buf [16]byte
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(f.X))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(f.Y))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(f.Z))
	binary.LittleEndian.PutUint32(buf[12:16], packBlockIDAndFlags(f.Block))
	_, err := w.Write(buf[:])
	return err
}

// ReadSetBlock reads a SetBlock frame written by WriteSetBlock.
func ReadSetBlock(r io.Reader) (SetBlockFrame, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return SetBlockFrame{}, err
	}
	id, flags := unpackBlockIDAndFlags(binary.LittleEndian.Uint32(buf[12:16]))
	return SetBlockFrame{
		X: math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
		Block: world.Block{
			ID:            id,
			Transparent:   flags&1 != 0,
			IsLightSource: flags&2 != 0,
			IsBlendable:   flags&4 != 0,
		},
	}, nil
}

// RemoveBlockFrame is the RemoveBlock mutation frame: vec3<f32> world_pos.
type RemoveBlockFrame struct {
	X, Y, Z float32
}

// WriteRemoveBlock writes a RemoveBlock frame.
func WriteRemoveBlock(w io.Writer, f RemoveBlockFrame) error {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(f.X))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(f.Y))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(f.Z))
	_, err := w.Write(buf[:])
	return err
}

// ReadRemoveBlock reads a RemoveBlock frame written by WriteRemoveBlock.
func ReadRemoveBlock(r io.Reader) (RemoveBlockFrame, error) {
	var buf [12]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return RemoveBlockFrame{}, err
	}
	return RemoveBlockFrame{
		X: math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
	}, nil
}

func packBlockIDAndFlags(b world.Block) uint32 {
	v := uint32(b.ID) << 3
	if b.Transparent {
		v |= 1
	}
	if b.IsLightSource {
		v |= 2
	}
	if b.IsBlendable {
		v |= 4
	}
	return v
}

func unpackBlockIDAndFlags(v uint32) (world.BlockID, uint8) {
	return world.BlockID(v >> 3), uint8(v & 0x7)
}

// countingWriter buffers everything written to it, tracking the byte
// count separately for clarity at the call site.
type countingWriter struct {
	data []byte
	n    int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.data = append(c.data, p...)
	c.n += len(p)
	return len(p), nil
}
