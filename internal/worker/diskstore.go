package worker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dantero/voxelcore/internal/config"
	"github.com/dantero/voxelcore/internal/registry"
	"github.com/dantero/voxelcore/internal/world"
)

// chunkFilePath returns the on-disk path for coord's saved chunk, one
// file per chunk at <world>/chunks/<x>_<z>.bin.
func chunkFilePath(coord world.ChunkCoord) string {
	return filepath.Join(config.GetChunkSavePath(), "chunks", fmt.Sprintf("%d_%d.bin", coord.X, coord.Z))
}

// chunkFileExists reports whether coord has a saved chunk on disk.
func chunkFileExists(coord world.ChunkCoord) bool {
	_, err := os.Stat(chunkFilePath(coord))
	return err == nil
}

// loadChunkFile deserializes coord's saved chunk from disk, rehydrating
// cached flags from the block registry.
func loadChunkFile(coord world.ChunkCoord) (*world.Chunk, error) {
	f, err := os.Open(chunkFilePath(coord))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return world.Deserialize(f, func(id world.BlockID) (transparent, lightSource, blendable bool) {
		def := registry.Get(id)
		return def.IsTransparent, def.IsLightSource, def.IsBlendable
	})
}

// saveChunkFile serializes chunk to disk at its coordinate's path,
// creating the save directory if it doesn't exist yet.
func saveChunkFile(chunk *world.Chunk) error {
	dir := filepath.Join(config.GetChunkSavePath(), "chunks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(chunkFilePath(chunk.Coords))
	if err != nil {
		return err
	}
	defer f.Close()

	return world.Serialize(f, chunk)
}
