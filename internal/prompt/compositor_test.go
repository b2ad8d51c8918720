package prompt

import (
	"strings"
	"testing"

	"app/internal/catalog"
)

func baseInput() Input {
	return Input{
		Atmosphere:    "champetre",
		SuitType:      "Costume 2 pièces",
		Composition:   catalog.CompositionTwoPiece,
		LapelType:     "Revers cranté",
		PocketType:    "Poches droites",
		ShoeType:      "Richelieu noir",
		AccessoryType: "Cravate",
		Gender:        "homme",
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	in := baseInput()
	if Compose(in) != Compose(in) {
		t.Fatal("expected identical inputs to produce identical prompts")
	}
}

func TestComposeSubjectFollowsGender(t *testing.T) {
	in := baseInput()
	if !strings.Contains(Compose(in), "future groom") {
		t.Fatal("expected groom subject for homme")
	}

	in.Gender = "femme"
	out := Compose(in)
	if !strings.Contains(out, "future bride") {
		t.Fatal("expected bride subject for femme")
	}
	if strings.Contains(out, "future groom") {
		t.Fatal("expected groom subject to be absent for femme")
	}
}

func TestComposeVestClausesAreMutuallyExclusive(t *testing.T) {
	in := baseInput()

	in.Composition = catalog.CompositionTwoPiece
	out := Compose(in)
	if !strings.Contains(out, "Do NOT include a vest") {
		t.Fatal("expected the no-vest clause for a 2-piece suit")
	}
	if strings.Contains(out, "MUST include a visible vest") {
		t.Fatal("did not expect the vest clause for a 2-piece suit")
	}

	in.Composition = catalog.CompositionThreePiece
	out = Compose(in)
	if !strings.Contains(out, "MUST include a visible vest") {
		t.Fatal("expected the vest clause for a 3-piece suit")
	}
	if strings.Contains(out, "Do NOT include a vest") {
		t.Fatal("did not expect the no-vest clause for a 3-piece suit")
	}

	in.Composition = catalog.CompositionUnspecified
	out = Compose(in)
	if strings.Contains(out, "vest") || strings.Contains(out, "waistcoat") {
		t.Fatal("expected no vest clause for an unrecognized suit type")
	}
}

func TestComposeReferenceImageOrdinals(t *testing.T) {
	in := baseInput()
	in.HasFabricImage = true
	in.HasShoeImage = true
	in.HasAccessoryImage = true
	out := Compose(in)

	if !strings.Contains(out, "second uploaded image") {
		t.Fatal("expected the fabric image to be the second upload")
	}
	if !strings.Contains(out, "shoes shown in the third uploaded image") {
		t.Fatal("expected the shoe image to be the third upload")
	}
	if !strings.Contains(out, "accessory shown in the fourth uploaded image") {
		t.Fatal("expected the accessory image to be the fourth upload")
	}
}

func TestComposeOrdinalsShiftWhenFabricImageAbsent(t *testing.T) {
	in := baseInput()
	in.HasShoeImage = true
	out := Compose(in)

	// With no fabric image the shoe photo is the second upload overall.
	if !strings.Contains(out, "shoes shown in the second uploaded image") {
		t.Fatal("expected the shoe image ordinal to shift to second")
	}
	if strings.Contains(out, "fabric pattern") {
		t.Fatal("did not expect a fabric image instruction")
	}
}

func TestComposeCustomDescriptionsOverrideCatalog(t *testing.T) {
	in := baseInput()
	in.ShoeType = catalog.CustomValue
	in.CustomShoeDescription = "mocassins en velours bordeaux"
	in.AccessoryType = catalog.CustomValue
	in.CustomAccessoryDescription = "montre à gousset dorée"
	in.FabricDescription = "laine peignée bleu nuit"
	out := Compose(in)

	if !strings.Contains(out, "mocassins en velours bordeaux") {
		t.Fatal("expected the custom shoe description to be used")
	}
	if !strings.Contains(out, "montre à gousset dorée") {
		t.Fatal("expected the custom accessory description to be used")
	}
	if !strings.Contains(out, "laine peignée bleu nuit") {
		t.Fatal("expected the fabric description to be used")
	}
	if strings.Contains(out, "premium fabric") {
		t.Fatal("did not expect the fabric fallback when a description is given")
	}
}

func TestComposeModificationAppendsDelta(t *testing.T) {
	in := baseInput()
	base := Compose(in)
	out := ComposeModification(in, "rendre la veste bleu marine")

	if !strings.HasPrefix(out, base) {
		t.Fatal("expected the modification prompt to start from the base prompt")
	}
	if !strings.HasSuffix(out, "rendre la veste bleu marine") {
		t.Fatal("expected the modification instruction at the end of the prompt")
	}
}
