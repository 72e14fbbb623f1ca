// Command voxelclient is the thin client entrypoint: a GLFW window and
// OpenGL context exist only to give the vertex pool a real GPU buffer
// and the renderer bridge something to draw into. Window/input/HUD
// beyond the bare minimum needed to host the chunk subsystem are out
// of scope; this just drives World.Update every frame and issues the
// two indirect multi-draw calls its FrameCommands describe.
package main

import (
	"flag"
	"log"
	"runtime"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"

	"github.com/dantero/voxelcore/internal/config"
	"github.com/dantero/voxelcore/internal/engine"
	"github.com/dantero/voxelcore/internal/openglhelper"
	"github.com/dantero/voxelcore/internal/registry"
	"github.com/dantero/voxelcore/internal/render"
	"github.com/dantero/voxelcore/internal/world"
)

const (
	windowWidth  = 1280
	windowHeight = 720
)

func init() { runtime.LockOSThread() }

func main() {
	seed := flag.Int64("seed", 42, "world seed")
	savePath := flag.String("save", "world", "chunk save directory")
	flag.Parse()

	registry.InitRegistry()
	config.SetChunkSavePath(*savePath)

	if err := glfw.Init(); err != nil {
		log.Fatalf("voxelclient: glfw init: %v", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(windowWidth, windowHeight, "voxelcore", nil, nil)
	if err != nil {
		log.Fatalf("voxelclient: create window: %v", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		log.Fatalf("voxelclient: gl init: %v", err)
	}

	vpb, err := openglhelper.NewVertexPoolBuffer(config.GetChunkCapacity(), config.GetMaxVertsPerSubChunk())
	if err != nil {
		log.Fatalf("voxelclient: allocate vertex pool buffer: %v", err)
	}
	defer vpb.Buffer.Delete()

	vao := openglhelper.NewVAO()
	maxDraws := config.GetChunkCapacity() * world.NumSubChunks
	indirectOpaque := openglhelper.NewIndirectBuffer(maxDraws)
	indirectBlendable := openglhelper.NewIndirectBuffer(maxDraws)
	chunkInstancesOpaque := openglhelper.NewChunkInstanceSSBO(maxDraws)
	chunkInstancesBlendable := openglhelper.NewChunkInstanceSSBO(maxDraws)
	defer indirectOpaque.Delete()
	defer indirectBlendable.Delete()
	defer chunkInstancesOpaque.Delete()
	defer chunkInstancesBlendable.Delete()
	gl.BindVertexArray(vao)

	w := engine.New(engine.Options{
		Seed:                *seed,
		VertexBacking:       vpb.Backing,
		ChunkCapacity:       config.GetChunkCapacity(),
		MaxVertsPerSubChunk: config.GetMaxVertsPerSubChunk(),
	})
	closer.Bind(w.Close)

	playerCoord := world.ChunkCoord{X: 0, Z: 0}
	for !window.ShouldClose() {
		glfw.PollEvents()
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
		}

		proj := mgl32.Perspective(mgl32.DegToRad(70), float32(windowWidth)/float32(windowHeight), 0.1, 1000)
		view := mgl32.LookAtV(mgl32.Vec3{0, 80, 0}, mgl32.Vec3{0, 80, -1}, mgl32.Vec3{0, 1, 0})
		frustum := render.NewFrustum(proj.Mul4(view))

		frame := w.Update(playerCoord, frustum)
		drawFrame(drawBuffers{
			opaqueCommands:     indirectOpaque,
			blendableCommands:  indirectBlendable,
			opaqueInstances:    chunkInstancesOpaque,
			blendableInstances: chunkInstancesBlendable,
		}, frame)

		window.SwapBuffers()
	}

	closer.Close()
}

// chunkInstanceSSBOBinding is the shader storage binding index the vertex
// shader reads per-draw chunk-coord/biome-id records from, looked up by
// gl_BaseInstance. Both the opaque and blendable passes reuse it, one
// buffer bound at a time, since the two passes never draw concurrently.
const chunkInstanceSSBOBinding = 0

// drawBuffers groups the per-frame GPU buffers drawFrame writes into:
// one indirect command buffer and one chunk-instance SSBO per pass.
type drawBuffers struct {
	opaqueCommands, blendableCommands   *openglhelper.BufferObject
	opaqueInstances, blendableInstances *openglhelper.BufferObject
}

// drawFrame uploads this frame's command lists and issues the two
// indirect multi-draw calls §4.8 describes, including the per-draw
// chunk-coord/biome-id instanced buffer (step 5) each pass's shader
// indexes via gl_BaseInstance. The weighted OIT accumulation/revealage
// pass for the blendable list is a shader-side concern (its own
// framebuffer attachments and composite pass) and isn't driven from
// here.
func drawFrame(buffers drawBuffers, frame render.FrameCommands) {
	opaqueCmds, opaqueInstances := toIndirectCommands(frame.Opaque)
	blendableCmds, blendableInstances := toIndirectCommands(frame.Blendable)

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if len(opaqueCmds) > 0 {
		buffers.opaqueInstances.UploadChunkInstances(opaqueInstances)
		buffers.opaqueInstances.BindBase(chunkInstanceSSBOBinding)
		buffers.opaqueCommands.Bind()
		buffers.opaqueCommands.UploadIndirectCommands(opaqueCmds)
		openglhelper.MultiDrawArraysIndirect(gl.TRIANGLES, len(opaqueCmds))
	}
	if len(blendableCmds) > 0 {
		gl.DepthMask(false)
		buffers.blendableInstances.UploadChunkInstances(blendableInstances)
		buffers.blendableInstances.BindBase(chunkInstanceSSBOBinding)
		buffers.blendableCommands.Bind()
		buffers.blendableCommands.UploadIndirectCommands(blendableCmds)
		openglhelper.MultiDrawArraysIndirect(gl.TRIANGLES, len(blendableCmds))
		gl.DepthMask(true)
	}
}

// toIndirectCommands builds the indirect-draw commands and the parallel
// per-draw chunk-instance records (§4.8 step 5) for cmds, indexed
// identically by BaseInstance/slice position so a shader's
// gl_BaseInstance resolves both consistently.
func toIndirectCommands(cmds []render.DrawCommand) ([]openglhelper.DrawElementsIndirectCommand, []openglhelper.ChunkInstance) {
	out := make([]openglhelper.DrawElementsIndirectCommand, len(cmds))
	instances := make([]openglhelper.ChunkInstance, len(cmds))
	for i, c := range cmds {
		out[i] = openglhelper.DrawElementsIndirectCommand{
			Count:         c.VertCount,
			InstanceCount: 1,
			FirstIndex:    c.First,
			BaseInstance:  uint32(i),
		}
		instances[i] = openglhelper.ChunkInstance{
			CoordX:  c.Coord.X,
			CoordZ:  c.Coord.Z,
			BiomeID: c.BiomeID,
		}
	}
	return out, instances
}
