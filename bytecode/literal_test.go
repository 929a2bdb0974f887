package bytecode

import "testing"

func TestParseNumericLiteral(t *testing.T) {
	cases := []struct {
		text string
		want any
	}{
		{"0x10", int64(16)},
		{"0X1A", int64(26)},
		{"0b10", int64(2)},
		{"0o10", int64(8)},
		{"0", int64(0)},
		{"255", int64(255)},
		{"1.1e2", 110.0},
		{"3.14", 3.14},
		{".5", 0.5},
	}
	for _, c := range cases {
		got, err := ParseNumericLiteral(c.text)
		if err != nil {
			t.Fatalf("ParseNumericLiteral(%q): unexpected error: %v", c.text, err)
		}
		if got != c.want {
			t.Errorf("ParseNumericLiteral(%q) = %v (%T), want %v (%T)", c.text, got, got, c.want, c.want)
		}
	}
}

func TestParseNumericLiteralRejectsGarbage(t *testing.T) {
	if _, err := ParseNumericLiteral("0xZZ"); err == nil {
		t.Fatal("expected error for malformed hex literal")
	}
}

func TestFitsShortNum(t *testing.T) {
	if !FitsShortNum(0) || !FitsShortNum(255) {
		t.Error("0 and 255 should fit in a short num")
	}
	if FitsShortNum(-1) || FitsShortNum(256) {
		t.Error("-1 and 256 should not fit in a short num")
	}
}
