package registry

import "github.com/dantero/voxelcore/internal/world"

// BlockFormat is the static, per-id block definition consulted by chunk
// storage (to stamp cached flags), the lighting engine (transparency,
// light source, light level), and the mesher (blendable routing,
// textures, biome tint). The registry is built once at startup and
// never mutated afterward, so reads need no locking.
type BlockFormat struct {
	ID   world.BlockID
	Name string

	IsTransparent bool
	IsSolid       bool
	IsBlendable   bool
	IsLightSource bool
	LightLevel    uint8 // 0..31, only meaningful when IsLightSource

	TextureTop  string
	TextureSide string
	TextureBot  string

	// TintFaces marks which faces sample the biome tint instead of a
	// flat texture colour (e.g. grass top).
	TintFaces map[world.BlockFace]bool
	TintColor uint32 // 0xRRGGBB, 0 = no tint

	Hardness float32 // seconds to break; negative = unbreakable
}

var zeroFormat = BlockFormat{}

// registry holds the static block table, built by InitRegistry and read
// by every other component afterward. No mutex: writes only ever happen
// during InitRegistry, before any worker goroutine starts.
var (
	byID         = make(map[world.BlockID]*BlockFormat)
	byName       = make(map[string]world.BlockID)
	TextureNames []string
	TextureMap   = make(map[string]int)

	waterID world.BlockID
)

// Register adds a block definition to the registry, keyed by its id and
// name, and indexes its textures.
func Register(def *BlockFormat) {
	byID[def.ID] = def
	byName[def.Name] = def.ID

	registerTexture(def.TextureTop)
	registerTexture(def.TextureSide)
	registerTexture(def.TextureBot)
}

func registerTexture(name string) {
	if name == "" {
		return
	}
	if _, exists := TextureMap[name]; !exists {
		TextureMap[name] = len(TextureNames)
		TextureNames = append(TextureNames, name)
	}
}

// Get returns the definition for id, or the zero BlockFormat if id is
// out of range or never registered — per spec §4.1, a safe fallback
// rather than a panic or an error return.
func Get(id world.BlockID) BlockFormat {
	if def, ok := byID[id]; ok {
		return *def
	}
	return zeroFormat
}

// IDOf resolves a block name to its id, or world.NullBlockID (0) if the
// name is unknown.
func IDOf(name string) world.BlockID {
	if id, ok := byName[name]; ok {
		return id
	}
	return world.NullBlockID
}

// WaterID returns the registered id of the water block, used by the
// mesher's water-against-water face suppression rule. Returns NullBlockID
// if water was never registered (e.g. a stripped-down test registry).
func WaterID() world.BlockID {
	return waterID
}

// GetTextureLayer returns the texture atlas layer index for a block's
// face, or 0 (the fallback/error layer) if the block or texture is
// unknown.
func GetTextureLayer(id world.BlockID, face world.BlockFace) int {
	def, ok := byID[id]
	if !ok {
		return 0
	}

	var texName string
	switch face {
	case world.FaceTop:
		texName = def.TextureTop
	case world.FaceBottom:
		texName = def.TextureBot
	default:
		texName = def.TextureSide
	}

	if idx, ok := TextureMap[texName]; ok {
		return idx
	}
	return 0
}

// InitRegistry populates the block table with the fixed set of ids the
// terrain generator and mesher rely on. Texture names for grass/dirt are
// pre-registered first to pin their atlas layer order.
func InitRegistry() {
	registerTexture("grass_top.png")
	registerTexture("grass_side.png")
	registerTexture("dirt.png")

	Register(&BlockFormat{
		ID:            world.AirBlockID,
		Name:          "air",
		IsSolid:       false,
		IsTransparent: true,
	})

	Register(&BlockFormat{
		ID:          2,
		Name:        "grass",
		TextureTop:  "grass_top.png",
		TextureSide: "grass_side.png",
		TextureBot:  "dirt.png",
		IsSolid:     true,
		TintColor:   0x7DFF5C,
		TintFaces:   map[world.BlockFace]bool{world.FaceTop: true},
		Hardness:    0.6,
	})

	Register(&BlockFormat{
		ID:          3,
		Name:        "dirt",
		TextureTop:  "dirt.png",
		TextureSide: "dirt.png",
		TextureBot:  "dirt.png",
		IsSolid:     true,
		Hardness:    0.5,
	})

	Register(&BlockFormat{
		ID:          4,
		Name:        "stone",
		TextureTop:  "stone.png",
		TextureSide: "stone.png",
		TextureBot:  "stone.png",
		IsSolid:     true,
		Hardness:    1.5,
	})

	Register(&BlockFormat{
		ID:          5,
		Name:        "bedrock",
		TextureTop:  "bedrock.png",
		TextureSide: "bedrock.png",
		TextureBot:  "bedrock.png",
		IsSolid:     true,
		Hardness:    -1.0,
	})

	Register(&BlockFormat{
		ID:          6,
		Name:        "stonebrick",
		TextureTop:  "stonebrick.png",
		TextureSide: "stonebrick.png",
		TextureBot:  "stonebrick.png",
		IsSolid:     true,
		Hardness:    1.5,
	})

	Register(&BlockFormat{
		ID:          7,
		Name:        "planks_oak",
		TextureTop:  "planks_oak.png",
		TextureSide: "planks_oak.png",
		TextureBot:  "planks_oak.png",
		IsSolid:     true,
		Hardness:    2.0,
	})

	Register(&BlockFormat{
		ID:          8,
		Name:        "glowstone",
		TextureTop:  "glowstone.png",
		TextureSide: "glowstone.png",
		TextureBot:  "glowstone.png",
		IsSolid:     true,
		IsLightSource: true,
		LightLevel:    15,
		Hardness:      0.3,
	})

	waterID = 9
	Register(&BlockFormat{
		ID:            waterID,
		Name:          "water",
		TextureTop:    "water.png",
		TextureSide:   "water.png",
		TextureBot:    "water.png",
		IsSolid:       false,
		IsTransparent: true,
		IsBlendable:   true,
		Hardness:      -1.0,
	})

	Register(&BlockFormat{
		ID:            10,
		Name:          "leaves",
		TextureTop:    "leaves.png",
		TextureSide:   "leaves.png",
		TextureBot:    "leaves.png",
		IsSolid:       true,
		IsTransparent: true,
		IsBlendable:   true,
		TintColor:     0x4A8F3C,
		TintFaces:     map[world.BlockFace]bool{world.FaceTop: true, world.FaceBottom: true, world.FaceNorth: true, world.FaceSouth: true, world.FaceEast: true, world.FaceWest: true},
		Hardness:      0.2,
	})

	Register(&BlockFormat{
		ID:          11,
		Name:        "log_oak",
		TextureTop:  "log_oak_top.png",
		TextureSide: "log_oak_side.png",
		TextureBot:  "log_oak_top.png",
		IsSolid:     true,
		Hardness:    2.0,
	})
}
