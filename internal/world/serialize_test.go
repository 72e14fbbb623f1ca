package world

import (
	"bytes"
	"testing"
)

func flagsForTest(id BlockID) (transparent, lightSource, blendable bool) {
	switch id {
	case AirBlockID:
		return true, false, false
	case 9: // water id mirrors registry's fixed id in this package's tests
		return true, false, true
	default:
		return false, false, false
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	g := NewGenerator(42)
	original := NewChunk(ChunkCoord{X: 3, Z: -2})
	g.PopulateChunk(original)
	original.setBlockAt(5, 70, 9, Block{ID: 7})

	var buf bytes.Buffer
	if err := Serialize(&buf, original); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	restored, err := Deserialize(&buf, flagsForTest)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if restored.Coords != original.Coords {
		t.Fatalf("coords mismatch: got %v, want %v", restored.Coords, original.Coords)
	}

	var mismatches int
	original.withBlocks(func(want *[blockCount]Block) {
		restored.withBlocks(func(got *[blockCount]Block) {
			for i := range want {
				if want[i].ID != got[i].ID {
					mismatches++
				}
			}
		})
	})
	if mismatches != 0 {
		t.Fatalf("%d blocks mismatched after round trip", mismatches)
	}

	if restored.blockAt(5, 70, 9).ID != 7 {
		t.Fatalf("expected mutated block id 7 at (5,70,9), got %d", restored.blockAt(5, 70, 9).ID)
	}
}

func TestDeserializeCorruptSizeIsRejected(t *testing.T) {
	g := NewGenerator(1)
	c := NewChunk(ChunkCoord{})
	g.PopulateChunk(c)

	var buf bytes.Buffer
	if err := Serialize(&buf, c); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	corrupt := buf.Bytes()
	// Truncate the payload so it can't possibly expand to blockCount blocks.
	corrupt = corrupt[:len(corrupt)-20]

	if _, err := Deserialize(bytes.NewReader(corrupt), flagsForTest); err == nil {
		t.Fatal("expected an error deserializing truncated payload")
	}
}
