package colorcode

import (
	"image/color"
	"testing"
)

func TestEncodeDecodeBijection(t *testing.T) {
	ids := []int{1, 2, 7, 255, 256, 257, 65535, 65536, 1 << 20, MaxID - 1, MaxID}
	seen := make(map[color.NRGBA]int)

	for _, id := range ids {
		c, err := Encode(id)
		if err != nil {
			t.Fatalf("Encode(%d): %v", id, err)
		}
		if c.A != 0xff {
			t.Errorf("Encode(%d) not opaque: %v", id, c)
		}
		if got := Decode(c); got != id {
			t.Errorf("Decode(Encode(%d)) = %d", id, got)
		}
		if prev, dup := seen[c]; dup {
			t.Errorf("ids %d and %d encode to the same color %v", prev, id, c)
		}
		seen[c] = id
	}
}

func TestEncodeReservedAndOutOfRange(t *testing.T) {
	for _, id := range []int{0, -1, MaxID + 1} {
		if _, err := Encode(id); err == nil {
			t.Errorf("Encode(%d) should fail", id)
		}
	}
	// background decodes to the reserved 0
	if got := DecodeRGB(0, 0, 0); got != 0 {
		t.Errorf("DecodeRGB(0,0,0) = %d, want 0", got)
	}
}

func TestHexRoundTrip(t *testing.T) {
	for _, id := range []int{1, 4095, 1 << 16, MaxID} {
		c, ok := Normalize(Hex(id))
		if !ok {
			t.Fatalf("Normalize(Hex(%d)) failed", id)
		}
		if got := Decode(c); got != id {
			t.Errorf("Normalize(Hex(%d)) decodes to %d", id, got)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		spec string
		want color.NRGBA
	}{
		{"white", color.NRGBA{0xff, 0xff, 0xff, 0xff}},
		{"  Black ", color.NRGBA{0x00, 0x00, 0x00, 0xff}},
		{"#fff", color.NRGBA{0xff, 0xff, 0xff, 0xff}},
		{"#1f77b4", color.NRGBA{0x1f, 0x77, 0xb4, 0xff}},
		{"tab:blue", color.NRGBA{0x1f, 0x77, 0xb4, 0xff}},
		{"C0", color.NRGBA{0x1f, 0x77, 0xb4, 0xff}},
		{"none", color.NRGBA{}},
	}
	for _, tt := range tests {
		got, ok := Normalize(tt.spec)
		if !ok {
			t.Errorf("Normalize(%q) failed", tt.spec)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%q) = %v, want %v", tt.spec, got, tt.want)
		}
	}

	if _, ok := Normalize("no-such-color"); ok {
		t.Error("Normalize should reject unknown names")
	}
	if _, ok := Normalize(""); ok {
		t.Error("Normalize should reject empty specs")
	}
}

func TestEqual(t *testing.T) {
	if !Equal("white", "#ffffff") {
		t.Error(`Equal("white", "#ffffff") = false`)
	}
	if !Equal("C0", "tab:blue") {
		t.Error(`Equal("C0", "tab:blue") = false`)
	}
	if Equal("white", "black") {
		t.Error(`Equal("white", "black") = true`)
	}
	// unnormalizable specs compare verbatim
	if !Equal("custom-gradient", "custom-gradient") {
		t.Error("verbatim comparison failed")
	}
}
