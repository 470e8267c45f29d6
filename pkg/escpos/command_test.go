// pkg/escpos/command_test.go
package escpos

import (
	"bytes"
	"testing"
)

func TestSizeCommand(t *testing.T) {
	tests := []struct {
		name string
		size string
		want []byte
	}{
		{"extra small prints normal", "xs", []byte{0x1D, 0x21, 0x00}},
		{"small prints normal", "sm", []byte{0x1D, 0x21, 0x00}},
		{"medium prints normal", "md", []byte{0x1D, 0x21, 0x00}},
		{"large doubles width", "lg", []byte{0x1D, 0x21, 0x10}},
		{"extra large doubles both", "xl", []byte{0x1D, 0x21, 0x11}},
		{"unknown falls back to normal", "huge", []byte{0x1D, 0x21, 0x00}},
		{"empty falls back to normal", "", []byte{0x1D, 0x21, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SizeCommand(tt.size); !bytes.Equal(got, tt.want) {
				t.Errorf("SizeCommand(%q) = %#v, want %#v", tt.size, got, tt.want)
			}
		})
	}
}

func TestAlignCommand(t *testing.T) {
	tests := []struct {
		name  string
		align string
		want  []byte
	}{
		{"left", "l", []byte{0x1B, 0x61, 0x00}},
		{"center", "c", []byte{0x1B, 0x61, 0x01}},
		{"right", "r", []byte{0x1B, 0x61, 0x02}},
		{"unknown falls back to left", "center", []byte{0x1B, 0x61, 0x00}},
		{"empty falls back to left", "", []byte{0x1B, 0x61, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AlignCommand(tt.align); !bytes.Equal(got, tt.want) {
				t.Errorf("AlignCommand(%q) = %#v, want %#v", tt.align, got, tt.want)
			}
		})
	}
}

func TestIsDoubleWidth(t *testing.T) {
	for _, size := range []string{"lg", "xl"} {
		if !IsDoubleWidth(size) {
			t.Errorf("IsDoubleWidth(%q) = false, want true", size)
		}
	}
	for _, size := range []string{"", "xs", "sm", "md", "LG", "huge"} {
		if IsDoubleWidth(size) {
			t.Errorf("IsDoubleWidth(%q) = true, want false", size)
		}
	}
}

func TestFeedLines(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []byte
	}{
		{"zero", 0, []byte{0x1B, 0x64, 0x00}},
		{"one", 1, []byte{0x1B, 0x64, 0x01}},
		{"three", 3, []byte{0x1B, 0x64, 0x03}},
		{"max", 255, []byte{0x1B, 0x64, 0xFF}},
		{"clamps above max", 1000, []byte{0x1B, 0x64, 0xFF}},
		{"clamps negative", -4, []byte{0x1B, 0x64, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FeedLines(tt.n); !bytes.Equal(got, tt.want) {
				t.Errorf("FeedLines(%d) = %#v, want %#v", tt.n, got, tt.want)
			}
		})
	}
}

func TestCutCommand(t *testing.T) {
	if got := CutCommand(false); !bytes.Equal(got, []byte{0x1D, 0x56, 0x00}) {
		t.Errorf("CutCommand(false) = %#v, want full cut", got)
	}
	if got := CutCommand(true); !bytes.Equal(got, []byte{0x1D, 0x56, 0x01}) {
		t.Errorf("CutCommand(true) = %#v, want partial cut", got)
	}
}

func TestSelectCharsetIsPC857(t *testing.T) {
	if !bytes.Equal(ESC_POS_COMMANDS.SELECT_CHARSET, ESC_POS_COMMANDS.CHARSET_PC857) {
		t.Errorf("SELECT_CHARSET = %#v, want PC857 %#v",
			ESC_POS_COMMANDS.SELECT_CHARSET, ESC_POS_COMMANDS.CHARSET_PC857)
	}
}
