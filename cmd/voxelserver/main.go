// Command voxelserver is the thin LAN server entrypoint: it wires a
// World to a TCP listener, streaming each connecting client an initial
// chunk-stream frame around the origin and then applying the SetBlock
// frames that client sends; nothing is sent back or relayed to other
// clients. It holds no window, no GL context, no input —
// everything but networking and the chunk subsystem itself is out of
// scope here.
package main

import (
	"bufio"
	"flag"
	"log"
	"net"
	"time"

	"github.com/xlab/closer"

	"github.com/dantero/voxelcore/internal/config"
	"github.com/dantero/voxelcore/internal/engine"
	"github.com/dantero/voxelcore/internal/network"
	"github.com/dantero/voxelcore/internal/pool"
	"github.com/dantero/voxelcore/internal/registry"
	"github.com/dantero/voxelcore/internal/render"
	"github.com/dantero/voxelcore/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	addr := flag.String("addr", ":25566", "TCP listen address")
	seed := flag.Int64("seed", 42, "world seed")
	savePath := flag.String("save", "world", "chunk save directory")
	flag.Parse()

	registry.InitRegistry()
	config.SetChunkSavePath(*savePath)

	w := engine.New(engine.Options{
		Seed:                *seed,
		VertexBacking:       make([]pool.Vertex, engine.DefaultVertexBackingLen()),
		ChunkCapacity:       config.GetChunkCapacity(),
		MaxVertsPerSubChunk: config.GetMaxVertsPerSubChunk(),
	})
	closer.Bind(w.Close)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("voxelserver: listen %s: %v", *addr, err)
	}
	closer.Bind(func() { ln.Close() })
	log.Printf("voxelserver: listening on %s", *addr)

	go acceptLoop(ln, w)
	go tickLoop(w)

	closer.Hold()
}

// tickLoop drives the streaming controller around the world origin —
// this server has no player entity of its own, just a fixed keep-alive
// region around spawn; real player-position-driven streaming is a
// client-side concern layered on top of SetBlock/GetBlock.
func tickLoop(w *engine.World) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	frustum := render.NewFrustum(mgl32.Ident4())
	for range ticker.C {
		w.Update(world.ChunkCoord{X: 0, Z: 0}, frustum)
	}
}

func acceptLoop(ln net.Listener, w *engine.World) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Printf("voxelserver: accept: %v", err)
			return
		}
		go serveConn(conn, w)
	}
}

func serveConn(conn net.Conn, w *engine.World) {
	defer conn.Close()
	log.Printf("voxelserver: client connected from %s", conn.RemoteAddr())

	const radius = int32(4)
	var entries []network.ChunkStreamEntry
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			if dx*dx+dz*dz > radius*radius {
				continue
			}
			coord := world.ChunkCoord{X: dx, Z: dz}
			entries = append(entries, network.ChunkStreamEntry{
				Chunk: w.StoreChunkOrGenerate(coord),
				State: world.Loaded,
			})
		}
	}

	writer := bufio.NewWriter(conn)
	if err := network.WriteChunkStream(writer, entries); err != nil {
		log.Printf("voxelserver: write chunk stream to %s: %v", conn.RemoteAddr(), err)
		return
	}
	if err := writer.Flush(); err != nil {
		log.Printf("voxelserver: flush to %s: %v", conn.RemoteAddr(), err)
		return
	}

	reader := bufio.NewReader(conn)
	for {
		frame, err := network.ReadSetBlock(reader)
		if err != nil {
			log.Printf("voxelserver: client %s disconnected: %v", conn.RemoteAddr(), err)
			return
		}
		w.SetBlock(int(frame.X), int(frame.Y), int(frame.Z), frame.Block)
	}
}
