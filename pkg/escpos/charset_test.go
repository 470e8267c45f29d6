// pkg/escpos/charset_test.go
package escpos

import (
	"bytes"
	"testing"
	"unicode/utf8"
)

func TestEncodeASCIIPassthrough(t *testing.T) {
	in := "Hello, World! 0123456789 #@/\\"
	got := Encode(in)
	if !bytes.Equal(got, []byte(in)) {
		t.Errorf("Encode(%q) = %#v, want the ASCII bytes unchanged", in, got)
	}
}

func TestEncodeTurkishLetters(t *testing.T) {
	in := "ğüşıöç ĞÜŞİÖÇ"
	want := []byte{0xA7, 0x81, 0x9F, 0x8D, 0x94, 0x87, 0x20, 0xA6, 0x9A, 0x9E, 0x98, 0x99, 0x80}
	if got := Encode(in); !bytes.Equal(got, want) {
		t.Errorf("Encode(%q) = % X, want % X", in, got, want)
	}
}

func TestEncodeCP857Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []byte
	}{
		{"accented lowercase", "é", []byte{0x82}},
		{"spanish enye", "ñ", []byte{0xA4}},
		{"sharp s", "ß", []byte{0xE1}},
		{"pound sign", "£", []byte{0x9C}},
		{"division sign", "÷", []byte{0xF6}},
		{"one half", "½", []byte{0xAB}},
		{"degree sign", "°", []byte{0xF8}},
		{"box drawing", "─", []byte{0xC4}},
		{"mixed word", "café", []byte{'c', 'a', 'f', 0x82}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.in); !bytes.Equal(got, tt.want) {
				t.Errorf("Encode(%q) = % X, want % X", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeUnmappableBecomesQuestionMark(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"euro sign", "€"},
		{"cjk", "日"},
		{"emoji", "🖨"},
		// Present in CP850 but dropped from CP857.
		{"double low line", "‗"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.in)
			if len(got) != 1 || got[0] != '?' {
				t.Errorf("Encode(%q) = % X, want 3F", tt.in, got)
			}
		})
	}
}

func TestEncodeControlBytesPassthrough(t *testing.T) {
	got := Encode("a\nb\tc")
	want := []byte{'a', 0x0A, 'b', 0x09, 'c'}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = % X, want % X", got, want)
	}
}

func TestEncodeOneBytePerRune(t *testing.T) {
	in := "Sipariş No: 42 — ğüşıöç €"
	got := Encode(in)
	if want := utf8.RuneCountInString(in); len(got) != want {
		t.Errorf("Encode produced %d bytes for %d runes", len(got), want)
	}
}

func TestEncodeRune(t *testing.T) {
	tests := []struct {
		r    rune
		want byte
	}{
		{'A', 0x41},
		{'ç', 0x87},
		{'Ç', 0x80},
		{'İ', 0x98},
		{'ı', 0x8D},
		{'é', 0x82},
		{'€', 0x3F},
	}
	for _, tt := range tests {
		if got := EncodeRune(tt.r); got != tt.want {
			t.Errorf("EncodeRune(%q) = %#02X, want %#02X", tt.r, got, tt.want)
		}
	}
}
