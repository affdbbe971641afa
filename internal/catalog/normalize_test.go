package catalog

import "testing"

func TestNormalizeFoldsWidthVariants(t *testing.T) {
	t.Parallel()

	if got, want := Normalize("ＵＶイデア　ＸＬ"), Normalize("UVイデア XL"); got != want {
		t.Fatalf("full-width and half-width spellings normalized differently: %q vs %q", got, want)
	}
	if got := Normalize("ｶﾊﾞｰ"); got != Normalize("カバー") {
		t.Fatalf("half-width katakana not folded: %q", got)
	}
}

func TestNormalizeDropsParentheticals(t *testing.T) {
	t.Parallel()

	if got := Normalize("Foundation (Brand X)"); got != "foundation" {
		t.Fatalf("unexpected key: %q", got)
	}
	if got := Normalize("リップ（限定色）"); got != Normalize("リップ") {
		t.Fatalf("full-width parenthetical not dropped: %q", got)
	}
}

func TestNormalizeStripsAllWhitespace(t *testing.T) {
	t.Parallel()

	if got := Normalize("  Airy  Change\tLiquid 01 "); got != "airychangeliquid01" {
		t.Fatalf("unexpected key: %q", got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"  ",
		"Foundation (Brand X)",
		"ＵＶ イデア ＸＬ プロテクション",
		"ツヤ肌ファンデ 02",
	}
	for _, input := range inputs {
		once := Normalize(input)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize(%q) not idempotent: %q -> %q", input, once, twice)
		}
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	t.Parallel()

	if got := Normalize(""); got != "" {
		t.Fatalf("expected empty key for empty input, got %q", got)
	}
	if got := Normalize(" \t "); got != "" {
		t.Fatalf("expected empty key for blank input, got %q", got)
	}
}
