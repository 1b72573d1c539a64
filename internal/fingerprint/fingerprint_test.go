package fingerprint

import (
	"regexp"
	"testing"

	"github.com/quizpulse/quizpulse/internal/bank"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

func parse(t *testing.T, s string) []bank.Question {
	t.Helper()
	qs, err := bank.Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return qs
}

func TestSum_KnownValues(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		// Empty input leaves both seeds untouched.
		{"", "811c9dc500001505"},
		// fnv: (0x811c9dc5^0x61)*0x01000193; djb: 33*5381^0x61.
		{"a", "e40c292c0002b5c4"},
	}
	for _, tt := range tests {
		if got := Sum([]byte(tt.in)); got != tt.want {
			t.Errorf("Sum(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSum_SupplementaryPlane(t *testing.T) {
	// U+1F600 mixes the code point and then its low surrogate, so it
	// differs from hashing the code point alone.
	emoji := Sum([]byte("\U0001F600"))
	if !hexPattern.MatchString(emoji) {
		t.Fatalf("bad digest %q", emoji)
	}
	if emoji == Sum([]byte("")) {
		t.Error("supplementary rune collided with BMP rune")
	}
}

func TestCompute_Deterministic(t *testing.T) {
	const src = `[{"id":1,"question":"Q1","options":[{"text":"A","correct":true},{"text":"B","correct":false}]}]`

	a, err := Compute(parse(t, src))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute(parse(t, src))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same content hashed differently: %s vs %s", a, b)
	}
	if !hexPattern.MatchString(a) {
		t.Errorf("digest %q is not 16 hex digits", a)
	}
}

func TestCompute_EquivalentSourcesMatch(t *testing.T) {
	// Whitespace and missing defaults normalize away.
	a, err := Compute(parse(t, `[{"id":1,"question":" Q1 ","options":[{"text":"A","correct":true},{"text":"B","correct":false}]}]`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute(parse(t, `[{"id":1,"category":"General","question":"Q1","options":[{"text":"A","correct":true,"explanation":"No explanation provided."},{"text":"B","correct":false}]}]`))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("equivalent banks hashed differently: %s vs %s", a, b)
	}
}

func TestCompute_OrderSensitive(t *testing.T) {
	a, err := Compute(parse(t, `[{"question":"Q1","options":[{"text":"A","correct":true},{"text":"B","correct":false}]}]`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute(parse(t, `[{"question":"Q1","options":[{"text":"B","correct":false},{"text":"A","correct":true}]}]`))
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("reordered options produced the same fingerprint")
	}
}
