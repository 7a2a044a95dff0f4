package wire

import (
	"strings"
	"testing"
)

func TestCharacterStringRoundTrip(t *testing.T) {
	cs := CharacterString("path=/index.html")
	buf := NewWriteBuffer(32)
	if err := cs.Write(buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r := NewBuffer(buf.Bytes())
	got, err := ReadCharacterString(r)
	if err != nil {
		t.Fatalf("ReadCharacterString: %v", err)
	}
	if string(got) != string(cs) {
		t.Fatalf("got %q, want %q", got, cs)
	}
}

func TestCharacterStringRejectsOverlong(t *testing.T) {
	cs := CharacterString(strings.Repeat("x", 256))
	buf := NewWriteBuffer(300)
	if err := cs.Write(buf); err == nil {
		t.Fatal("expected error writing a 256-byte character-string")
	}
}

func TestChunkStringEmpty(t *testing.T) {
	chunks := ChunkString("")
	if len(chunks) != 1 || len(chunks[0]) != 0 {
		t.Fatalf("ChunkString(\"\") = %v, want one empty chunk", chunks)
	}
}

func TestChunkStringSplitsAt255(t *testing.T) {
	s := strings.Repeat("a", 300)
	chunks := ChunkString(s)
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if len(chunks[0]) != 255 || len(chunks[1]) != 45 {
		t.Fatalf("chunk lengths = %d, %d; want 255, 45", len(chunks[0]), len(chunks[1]))
	}

	var rebuilt strings.Builder
	for _, c := range chunks {
		rebuilt.Write(c)
	}
	if rebuilt.String() != s {
		t.Fatal("rejoined chunks do not match original string")
	}
}

func TestReadCharacterStringsToEndEmptyRDATA(t *testing.T) {
	r := NewBuffer(nil)
	out, err := ReadCharacterStringsToEnd(r)
	if err != nil {
		t.Fatalf("ReadCharacterStringsToEnd: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("got %v, want non-nil empty slice", out)
	}
}
