package bcd

import "testing"

func TestParseAndString(t *testing.T) {
	cases := map[string]string{
		"12":      "12",
		"0.5":     "0.5",
		"-0.05":   "-0.05",
		"1.230":   "1.230",
		"0":       "0",
		"-0":      "0",
		"007":     "7",
		"100":     "100",
		"3.":      "3",
	}
	for in, want := range cases {
		n, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got := n.String(); got != want {
			t.Errorf("Parse(%q).String() = %q, want %q", in, got, want)
		}
	}
}

func TestParseTooManyDigits(t *testing.T) {
	big := ""
	for i := 0; i < Digits+1; i++ {
		big += "9"
	}
	if _, err := Parse(big); err == nil {
		t.Fatalf("expected error for %d-digit literal", Digits+1)
	}
}

func TestZeroSignClear(t *testing.T) {
	z := Zero()
	if z.Negative {
		t.Fatal("Zero() must not carry the sign bit")
	}
	if err := z.Validate(); err != nil {
		t.Fatalf("Zero() invalid: %v", err)
	}
	n, err := Parse("-0")
	if err != nil {
		t.Fatal(err)
	}
	if n.Negative {
		t.Fatal("parsing \"-0\" must clear the sign bit")
	}
}

func TestNegateIdempotent(t *testing.T) {
	n, err := Parse("3.14")
	if err != nil {
		t.Fatal(err)
	}
	twice := n.Negate().Negate()
	if twice != n {
		t.Fatalf("Negate twice changed the value: %+v vs %+v", twice, n)
	}
	once := n.Negate()
	if once.Negative == n.Negative {
		t.Fatal("Negate once did not flip the sign")
	}
}

func TestPackRoundTrip(t *testing.T) {
	for _, s := range []string{"12", "0.5", "-0.05", "1.230", "0", "99999999999999999999"} {
		n, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		rec := n.Pack()
		got, err := Unpack(rec[:])
		if err != nil {
			t.Fatalf("Unpack after Pack(%q): %v", s, err)
		}
		if got != n {
			t.Errorf("round trip mismatch for %q: %+v vs %+v", s, got, n)
		}
		if got.String() != n.String() {
			t.Errorf("round trip string mismatch for %q: %q vs %q", s, got.String(), n.String())
		}
	}
}

func TestPackConstSizeAndPadding(t *testing.T) {
	n, _ := Parse("42")
	c := n.PackConst()
	if len(c) != ConstSize {
		t.Fatalf("PackConst length = %d, want %d", len(c), ConstSize)
	}
	for i := RecordSize; i < ConstSize; i++ {
		if c[i] != 0 {
			t.Fatalf("PackConst padding byte %d = %d, want 0", i, c[i])
		}
	}
	got, err := Unpack(c[:])
	if err != nil {
		t.Fatal(err)
	}
	if got != n {
		t.Fatalf("Unpack(PackConst) mismatch: %+v vs %+v", got, n)
	}
}

func TestValidateRejectsBadNibble(t *testing.T) {
	n := Zero()
	n.Nibbles[10] = 0xA
	if err := n.Validate(); err == nil {
		t.Fatal("expected Validate to reject a non-BCD nibble")
	}
}

func TestValidateRejectsSignedZero(t *testing.T) {
	n := Zero()
	n.Negative = true
	if err := n.Validate(); err == nil {
		t.Fatal("expected Validate to reject a negative zero")
	}
}

func TestHeaderBytes(t *testing.T) {
	n, _ := Parse("-0.05")
	rec := n.Pack()
	if rec[0] != SignNegative {
		t.Errorf("sign byte = 0x%02X, want 0x%02X", rec[0], SignNegative)
	}
	if rec[1] != Digits {
		t.Errorf("length byte = %d, want %d", rec[1], Digits)
	}
	if rec[2] != 2 {
		t.Errorf("scale byte = %d, want 2", rec[2])
	}
}
