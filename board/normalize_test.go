package board_test

import (
	"testing"

	"github.com/warp/capacity-engine/board"
)

// =============================================================================
// NORMALIZATION TESTS
// =============================================================================

func TestNormalizeKey_FoldsEncodings(t *testing.T) {
	// GIVEN: The same person's name in different raw encodings
	// WHEN: Normalizing each
	// THEN: All land on the same canonical key

	cases := []struct {
		in   string
		want string
	}{
		{"Gül Yılmaz", "gul_yilmaz"},
		{"gul  yilmaz", "gul_yilmaz"},
		{"  GUL YILMAZ  ", "gul_yilmaz"},
		{"Ayşe Çelik", "ayse_celik"},
		{"ali", "ali"},
		{"Ali Veli", "ali_veli"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range cases {
		if got := board.NormalizeKey(tc.in); got != tc.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeKey_Idempotent(t *testing.T) {
	// GIVEN: Any already-normalized key
	// WHEN: Normalizing it again
	// THEN: The key is unchanged

	for _, in := range []string{"Gül Yılmaz", "Ayşe  Çelik", "mehmet", "İrem Öz"} {
		once := board.NormalizeKey(in)
		twice := board.NormalizeKey(once)
		if once != twice {
			t.Errorf("NormalizeKey not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeKey_DropdownAndFreeTextCollide(t *testing.T) {
	// GIVEN: A name arriving as dropdown option text and as free text
	// WHEN: Normalizing both
	// THEN: They aggregate into one bucket

	if board.NormalizeKey("Gül Yılmaz") != board.NormalizeKey("gul yilmaz") {
		t.Error("dropdown and free-text encodings should share a key")
	}
}
