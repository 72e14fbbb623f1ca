package config

import "sync"

// RenderSettings holds render and streaming configuration for the chunked
// world subsystem. Treated as "compile-time but tunable": everything here
// has a fixed default a real build would ship with, overridable at init.
type RenderSettings struct {
	mu             sync.RWMutex
	renderDistance int // chunk streaming radius, in chunks
	fpsLimit       int // 0 means uncapped, otherwise target FPS

	chunkCapacity       int // max resident chunks the world will hold at once
	maxVertsPerSubChunk int // vertex bucket size per sub-chunk slot
	chunkSavePath       string // directory holding one file per saved chunk
}

var globalRenderSettings = &RenderSettings{
	renderDistance:      25,
	fpsLimit:            180,
	chunkCapacity:       1024,
	maxVertsPerSubChunk: 4500,
	chunkSavePath:       "world",
}

// GetChunkSavePath returns the directory the chunk thread worker saves
// and loads chunk files from.
func GetChunkSavePath() string {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.chunkSavePath
}

// SetChunkSavePath sets the chunk save directory.
func SetChunkSavePath(path string) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.chunkSavePath = path
}

// GetRenderDistance returns the current render distance in chunks.
func GetRenderDistance() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.renderDistance
}

// SetRenderDistance sets the render distance in chunks.
func SetRenderDistance(distance int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()

	if distance < 5 {
		distance = 5
	}
	if distance > 50 {
		distance = 50
	}

	globalRenderSettings.renderDistance = distance
}

// GetFPSLimit returns the configured FPS cap (0 means uncapped).
func GetFPSLimit() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.fpsLimit
}

// SetFPSLimit sets the FPS cap; 0 disables the cap (uncapped).
func SetFPSLimit(limit int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	if limit < 0 {
		limit = 0
	}
	if limit > 240 {
		limit = 240
	}
	globalRenderSettings.fpsLimit = limit
}

// GetChunkLoadRadius returns the radius (in chunks) the streaming
// controller keeps loaded around the player.
func GetChunkLoadRadius() int {
	return GetRenderDistance()
}

// GetChunkEvictRadius returns the radius beyond which the streaming
// controller enqueues SaveBlockData for a chunk.
func GetChunkEvictRadius() int {
	return GetRenderDistance() + 4
}

// GetChunkCapacity returns the maximum number of resident chunks the
// vertex pool is sized for; the pool preallocates ChunkCapacity * 16
// sub-chunk slots (per spec §4.3).
func GetChunkCapacity() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.chunkCapacity
}

// SetChunkCapacity sets the maximum number of resident chunks the
// sub-chunk vertex pool is sized for. Must be set before the pool is
// constructed; it has no effect afterward.
func SetChunkCapacity(capacity int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	if capacity < 1 {
		capacity = 1
	}
	globalRenderSettings.chunkCapacity = capacity
}

// GetMaxVertsPerSubChunk returns the fixed vertex bucket size per
// sub-chunk slot (§2, ≈4500).
func GetMaxVertsPerSubChunk() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.maxVertsPerSubChunk
}

// SetMaxVertsPerSubChunk sets the fixed vertex bucket size per sub-chunk
// slot. Must be set before the pool is constructed.
func SetMaxVertsPerSubChunk(n int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	if n < 6 {
		n = 6
	}
	globalRenderSettings.maxVertsPerSubChunk = n
}
