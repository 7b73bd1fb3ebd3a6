package automaton

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func idsToBytes(ids ...uint32) []byte {
	buf := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[i*4:], id)
	}
	return buf
}

func TestBuildRejectsDuplicatePatterns(t *testing.T) {
	p := idsToBytes(1, 2)
	_, err := Build([][]byte{p, append([]byte(nil), p...)})
	if err == nil {
		t.Fatal("expected error for duplicate pattern")
	}
}

func TestBuildRejectsEmptyPatternList(t *testing.T) {
	_, err := Build(nil)
	if err == nil {
		t.Fatal("expected error for empty pattern list")
	}
}

func TestIterOverlappingFindsHits(t *testing.T) {
	a, err := Build([][]byte{idsToBytes(100, 101), idsToBytes(100, 101, 102)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	data := idsToBytes(100, 101, 102)
	hits := a.IterOverlapping(data)

	found := make(map[int]bool)
	for _, h := range hits {
		found[h.Pattern] = true
	}
	if !found[0] || !found[1] {
		t.Errorf("expected both patterns to match, got hits %+v", hits)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	a, err := Build([][]byte{idsToBytes(1, 2), idsToBytes(3, 4, 5)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf bytes.Buffer
	if err := a.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	a2, err := ReadFrom(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if a2.NumPatterns() != a.NumPatterns() {
		t.Errorf("NumPatterns mismatch: got %d, want %d", a2.NumPatterns(), a.NumPatterns())
	}
}

func TestReadFromRejectsCorruptData(t *testing.T) {
	_, err := ReadFrom([]byte("not a valid automaton file"))
	if err == nil {
		t.Fatal("expected error for corrupt automaton data")
	}
}
