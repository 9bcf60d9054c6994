package conv

import "testing"

func TestHex8(t *testing.T) {
	cases := map[uint8]string{0x00: "0x00", 0x04: "0x04", 0x3E: "0x3E", 0xFF: "0xFF"}
	for in, want := range cases {
		if got := Hex8(in); got != want {
			t.Fatalf("Hex8(%d) = %q, want %q", in, got, want)
		}
	}
	if got := U8Hex(make([]byte, 2), 1); len(got) != 0 {
		t.Fatal("short buffer should yield empty slice")
	}
}

func TestUtoaAndDec(t *testing.T) {
	var d [20]byte
	if got := string(Utoa(d[:], 44100)); got != "44100" {
		t.Fatalf("Utoa = %q", got)
	}
	if got := string(Utoa(d[:], 0)); got != "0" {
		t.Fatalf("Utoa(0) = %q", got)
	}
	if got := string(Utoa(d[:3], 44100)); got != "100" {
		t.Fatalf("short buffer = %q, want low digits", got)
	}
	if got := Dec(18446744073709551615); got != "18446744073709551615" {
		t.Fatalf("Dec(max) = %q", got)
	}
}
