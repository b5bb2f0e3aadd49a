package rom

import (
	"testing"

	"github.com/ajokela/kz80-bc/pkg/compiler"
	"github.com/ajokela/kz80-bc/pkg/parser"
)

func mustCompile(t *testing.T, src string) []byte {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	mod, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	image, err := GenerateROM(mod)
	if err != nil {
		t.Fatalf("GenerateROM: %v", err)
	}
	return image
}

func TestGenerateROMLayout(t *testing.T) {
	image := mustCompile(t, "1 + 2\n")

	if len(image) < RuntimeSize {
		t.Fatalf("image is %d bytes, shorter than the runtime's own %d-byte budget", len(image), RuntimeSize)
	}
	// Entry preamble: DI, LD SP,nn.
	if image[0] != 0xF3 {
		t.Fatalf("first byte = 0x%02X, want DI (0xF3)", image[0])
	}

	// The bytecode begins exactly at BytecodeOrg and must start with the
	// compiled program, not runtime padding.
	bytecodeStart := image[BytecodeOrg]
	if bytecodeStart == 0x00 {
		t.Fatalf("byte at BytecodeOrg is 0x00 (NOP padding bled into bytecode region)")
	}
}

func TestGenerateROMDeterministic(t *testing.T) {
	a := mustCompile(t, "3 * 4\n")
	b := mustCompile(t, "3 * 4\n")
	if len(a) != len(b) {
		t.Fatalf("two compiles of the same source produced different-length ROMs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("byte %d differs between two compiles of the same source: 0x%02X vs 0x%02X", i, a[i], b[i])
		}
	}
}

func TestGenerateROMRuntimeRegionSize(t *testing.T) {
	// A single compiled statement can never legitimately overflow the
	// runtime's own budget; this just exercises the size-guard's plumbing
	// by confirming a normal program stays comfortably under it.
	image := mustCompile(t, "x = 1\nprint x\n")
	if len(image[:RuntimeSize]) != RuntimeSize {
		t.Fatalf("runtime region is not exactly RuntimeSize bytes")
	}
}

func TestGenerateROMAppendsConstantsAndStrings(t *testing.T) {
	image := mustCompile(t, "print \"hi\"\n123.45\n")
	if len(image) <= RuntimeSize {
		t.Fatalf("expected bytecode/constants/strings appended after the runtime region")
	}
}
