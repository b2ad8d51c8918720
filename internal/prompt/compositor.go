package prompt

import (
	"fmt"
	"strings"

	"app/internal/catalog"
)

// Input carries everything the compositor needs. The suit composition must be
// resolved by the caller (at input validation) so no string sniffing happens
// here.
type Input struct {
	Atmosphere    string
	SuitType      string
	Composition   catalog.SuitComposition
	LapelType     string
	PocketType    string
	ShoeType      string
	AccessoryType string
	Gender        string

	FabricDescription          string
	CustomShoeDescription      string
	CustomAccessoryDescription string

	// Optional reference images, in upload order after the subject photo.
	HasFabricImage    bool
	HasShoeImage      bool
	HasAccessoryImage bool
}

// Compose builds the natural-language specification sent to the image model.
// It is a pure function: identical inputs yield byte-identical output.
func Compose(in Input) string {
	var b strings.Builder

	subject := "future groom"
	if in.Gender == "femme" {
		subject = "future bride"
	}

	fmt.Fprintf(&b, "Create a professional photo of a %s using the attached full-length model photo.\n\n", subject)
	fmt.Fprintf(&b, "Wedding Setting: %s\n\n", catalog.AtmosphereScene(in.Atmosphere))

	fabric := in.FabricDescription
	if fabric == "" {
		fabric = "premium fabric"
	}
	shoes := catalog.ShoeDescription(in.ShoeType)
	if in.ShoeType == catalog.CustomValue && in.CustomShoeDescription != "" {
		shoes = in.CustomShoeDescription
	}
	accessory := catalog.AccessoryDescription(in.AccessoryType)
	if in.AccessoryType == catalog.CustomValue && in.CustomAccessoryDescription != "" {
		accessory = in.CustomAccessoryDescription
	}

	b.WriteString("Outfit Details:\n")
	fmt.Fprintf(&b, "- Suit: %s\n", in.SuitType)
	fmt.Fprintf(&b, "- Fabric: %s\n", fabric)
	fmt.Fprintf(&b, "- Lapel: %s\n", catalog.LapelDescription(in.LapelType))
	fmt.Fprintf(&b, "- Pockets: %s\n", catalog.PocketDescription(in.PocketType))
	fmt.Fprintf(&b, "- Shoes: %s\n", shoes)
	fmt.Fprintf(&b, "- Accessory: %s\n", accessory)

	// The vest clause is deliberately redundant and strongly worded: the
	// downstream model otherwise tends to add or drop the waistcoat at will.
	switch in.Composition {
	case catalog.CompositionTwoPiece:
		b.WriteString("\nIMPORTANT: This is a 2-piece suit consisting ONLY of a jacket and trousers. Do NOT include a vest or waistcoat of any kind. No vest layer must be visible under the jacket.\n")
	case catalog.CompositionThreePiece:
		b.WriteString("\nIMPORTANT: This is a 3-piece suit. It MUST include a visible vest (waistcoat) worn under the jacket, cut from the same fabric as the suit.\n")
	}

	b.WriteString(`
Style Requirements:
- Portrait format in 4:3 ratio
- High-quality, professional wedding photography style
- Natural lighting and composition
- Show full body in the specified setting
- Ensure the outfit details are clearly visible and well-fitted
- Maintain the model's pose and proportions from the original photo
`)

	// Reference image instructions follow the fixed upload order: subject
	// photo first, then fabric, footwear, accessory.
	n := 1
	if in.HasFabricImage {
		n++
		fmt.Fprintf(&b, "\nUse the fabric pattern and texture from the %s uploaded image to design the suit.", ordinal(n))
	}
	if in.HasShoeImage {
		n++
		fmt.Fprintf(&b, "\nUse the shoes shown in the %s uploaded image.", ordinal(n))
	}
	if in.HasAccessoryImage {
		n++
		fmt.Fprintf(&b, "\nUse the accessory shown in the %s uploaded image.", ordinal(n))
	}

	return b.String()
}

// ComposeModification appends a modification instruction to the base prompt of
// an earlier request. The prior artifact is supplied as the subject photo, so
// the model applies the delta to the previously generated scene.
func ComposeModification(in Input, modification string) string {
	var b strings.Builder
	b.WriteString(Compose(in))
	b.WriteString("\n\nThe attached photo is a previously generated visualization of this outfit. Apply the following modification to it while keeping everything else identical: ")
	b.WriteString(modification)
	return b.String()
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "first"
	case 2:
		return "second"
	case 3:
		return "third"
	case 4:
		return "fourth"
	}
	return fmt.Sprintf("%dth", n)
}
