package world

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ErrCorruptChunkFile is returned by Deserialize when the RLE payload's
// declared size doesn't match what was actually consumed — the
// CorruptChunkFile error kind. Callers discard the chunk and regenerate
// it from the seed, logging a warning.
var ErrCorruptChunkFile = fmt.Errorf("world: corrupt chunk file (RLE size mismatch)")

// Serialize writes a chunk's block array as the little-endian RLE
// payload described in §4.2: a u32 byte count, then repeated
// (u16 block_id, u16 run_length) pairs covering all 16*256*16 blocks in
// BlockIndex order, followed by the chunk's (x, z) coordinate.
//
// Only the block id survives the round trip; light levels and cached
// flags are derived again on load (from the lighting engine and the
// registry respectively), matching §4.2's "deserialize rehydrates cached
// flag bits from the registry".
func Serialize(w io.Writer, c *Chunk) error {
	runs := make([]byte, 0, 4096)

	var writeErr error
	c.withBlocks(func(blocks *[blockCount]Block) {
		i := 0
		for i < len(blocks) {
			id := blocks[i].ID
			runLen := uint16(1)
			for i+int(runLen) < len(blocks) && blocks[i+int(runLen)].ID == id && runLen < 0xFFFF {
				runLen++
			}
			var pair [4]byte
			binary.LittleEndian.PutUint16(pair[0:2], uint16(id))
			binary.LittleEndian.PutUint16(pair[2:4], runLen)
			runs = append(runs, pair[:]...)
			i += int(runLen)
		}
	})

	if writeErr != nil {
		return writeErr
	}

	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(runs)))
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(runs); err != nil {
		return err
	}

	var coordBuf [8]byte
	binary.LittleEndian.PutUint32(coordBuf[0:4], uint32(c.Coords.X))
	binary.LittleEndian.PutUint32(coordBuf[4:8], uint32(c.Coords.Z))
	_, err := w.Write(coordBuf[:])
	return err
}

// Deserialize reads the §4.2 RLE payload from r, allocates a chunk in
// state Loading at the coordinate recorded in the payload, and rehydrates
// every block's cached flags from the registry lookup fn. Returns
// ErrCorruptChunkFile if the declared compressed_size doesn't line up
// with exactly blockCount blocks once expanded.
func Deserialize(r io.Reader, flagsOf func(id BlockID) (transparent, lightSource, blendable bool)) (*Chunk, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(sizeBuf[:])
	if size%4 != 0 {
		return nil, ErrCorruptChunkFile
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	var coordBuf [8]byte
	if _, err := io.ReadFull(r, coordBuf[:]); err != nil {
		return nil, err
	}
	coord := ChunkCoord{
		X: int32(binary.LittleEndian.Uint32(coordBuf[0:4])),
		Z: int32(binary.LittleEndian.Uint32(coordBuf[4:8])),
	}

	c := NewChunk(coord)
	var writeErr error
	filled := 0
	c.withBlocksMut(func(blocks *[blockCount]Block) {
		for off := 0; off+4 <= len(payload); off += 4 {
			id := BlockID(binary.LittleEndian.Uint16(payload[off : off+2]))
			runLen := int(binary.LittleEndian.Uint16(payload[off+2 : off+4]))
			if filled+runLen > blockCount {
				writeErr = ErrCorruptChunkFile
				return
			}
			transparent, lightSource, blendable := flagsOf(id)
			b := Block{ID: id, Transparent: transparent, IsLightSource: lightSource, IsBlendable: blendable}
			for k := 0; k < runLen; k++ {
				blocks[filled+k] = b
			}
			filled += runLen
		}
	})
	if writeErr != nil {
		return nil, writeErr
	}
	if filled != blockCount {
		return nil, ErrCorruptChunkFile
	}

	return c, nil
}

// SaveWorldSeed writes seed as a 4-byte little-endian value — the
// contents of <world>/world.bin.
func SaveWorldSeed(w io.Writer, seed int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(seed))
	_, err := w.Write(buf[:])
	return err
}

// LoadWorldSeed reads a 4-byte little-endian seed written by
// SaveWorldSeed.
func LoadWorldSeed(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}
