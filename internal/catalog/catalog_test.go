package catalog

import "testing"

func TestResolveSuitComposition(t *testing.T) {
	cases := []struct {
		in   string
		want SuitComposition
	}{
		{"Costume 2 pièces", CompositionTwoPiece},
		{"Costume 3 pièces", CompositionThreePiece},
		{"costume 2 pièces", CompositionTwoPiece},
		{"2-piece suit", CompositionTwoPiece},
		{"3-Piece Suit", CompositionThreePiece},
		// "2" without a piece token must not be read as a composition.
		{"Costume slim 2024", CompositionUnspecified},
		{"Smoking", CompositionUnspecified},
		{"", CompositionUnspecified},
	}
	for _, c := range cases {
		if got := ResolveSuitComposition(c.in); got != c.want {
			t.Errorf("ResolveSuitComposition(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestAtmosphereSceneFallsBackToLiteral(t *testing.T) {
	if AtmosphereScene("champetre") == "champetre" {
		t.Fatal("expected a scene description for a known atmosphere")
	}
	if got := AtmosphereScene("sous la pluie"); got != "sous la pluie" {
		t.Fatalf("expected literal fallback, got %q", got)
	}
}

func TestDescriptionLookupsFallBackToLiteral(t *testing.T) {
	if got := ShoeDescription("Mocassins noirs"); got != "black loafers" {
		t.Fatalf("unexpected shoe description %q", got)
	}
	if got := ShoeDescription("sandales dorées"); got != "sandales dorées" {
		t.Fatalf("expected literal fallback, got %q", got)
	}
	if got := AccessoryDescription("Cravate"); got != "a tie" {
		t.Fatalf("unexpected accessory description %q", got)
	}
	if got := LapelDescription("Col châle avec revers satin"); got != "shawl collar with satin lapel" {
		t.Fatalf("unexpected lapel description %q", got)
	}
	if got := PocketDescription("Poches plaquées"); got != "patch pockets" {
		t.Fatalf("unexpected pocket description %q", got)
	}
}

func TestCatalogsIncludeCustomSlots(t *testing.T) {
	hasCustom := func(opts []Option) bool {
		for _, o := range opts {
			if o.Value == CustomValue {
				return true
			}
		}
		return false
	}
	if !hasCustom(ShoeTypes) {
		t.Fatal("expected a custom slot in the shoe catalog")
	}
	if !hasCustom(AccessoryTypes) {
		t.Fatal("expected a custom slot in the accessory catalog")
	}
	if hasCustom(SuitTypes) {
		t.Fatal("did not expect a custom slot in the suit catalog")
	}
}
