package catalog

import "strings"

// Option is a selectable catalog entry. Value is what clients submit and what
// gets persisted; Label is the display form.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CustomValue marks a catalog selection that defers to the user's free text.
const CustomValue = "Personnalisé"

var Atmospheres = []Option{
	{Value: "champetre", Label: "Champêtre"},
	{Value: "bord_de_mer", Label: "Bord de mer"},
	{Value: "elegant", Label: "Chic & élégant"},
	{Value: "hangover", Label: "Very Bad Trip"},
	{Value: "rue_paris", Label: "Rue de Paris"},
	{Value: "rue_new_york", Label: "Rue de New York"},
}

var Genders = []Option{
	{Value: "homme", Label: "Homme"},
	{Value: "femme", Label: "Femme"},
}

var SuitTypes = []Option{
	{Value: "Costume 2 pièces", Label: "Costume 2 pièces"},
	{Value: "Costume 3 pièces", Label: "Costume 3 pièces"},
}

var LapelTypes = []Option{
	{Value: "Revers cran droit standard", Label: "Revers cran droit standard"},
	{Value: "Revers cran droit large", Label: "Revers cran droit large"},
	{Value: "Revers cran aigu standard", Label: "Revers cran aigu standard"},
	{Value: "Revers cran aigu large", Label: "Revers cran aigu large"},
	{Value: "Col châle avec revers satin", Label: "Col châle avec revers satin"},
	{Value: "Veste croisée cran aigu standard", Label: "Veste croisée cran aigu standard"},
	{Value: "Veste croisée cran aigu large", Label: "Veste croisée cran aigu large"},
}

var PocketTypes = []Option{
	{Value: "En biais, sans rabat", Label: "En biais, sans rabat"},
	{Value: "En biais avec rabat", Label: "En biais avec rabat"},
	{Value: "Droites avec rabat", Label: "Droites avec rabat"},
	{Value: "Droites, sans rabat", Label: "Droites, sans rabat"},
	{Value: "Poches plaquées", Label: "Poches plaquées"},
}

var ShoeTypes = []Option{
	{Value: "Mocassins noirs", Label: "Mocassins noirs"},
	{Value: "Mocassins marrons", Label: "Mocassins marrons"},
	{Value: "Richelieu noires", Label: "Richelieu noires"},
	{Value: "Richelieu marrons", Label: "Richelieu marrons"},
	{Value: "Baskets blanches", Label: "Baskets blanches"},
	{Value: CustomValue, Label: CustomValue},
}

var AccessoryTypes = []Option{
	{Value: "Nœud papillon", Label: "Nœud papillon"},
	{Value: "Cravate", Label: "Cravate"},
	{Value: CustomValue, Label: CustomValue},
}

// atmosphereScenes expands an atmosphere value into the scene description sent
// to the image model. Unknown values fall back to the literal user input.
var atmosphereScenes = map[string]string{
	"champetre":    "rustic countryside wedding mixing flowers and wood, with a beautiful floral arch in the background, bright ambiance",
	"bord_de_mer":  "coastal, with the sea in the background; the ceremony takes place on a beach, with carpets on the sand and chairs for guests",
	"elegant":      "in a renovated castle, the wedding ceremony takes place in a hall resembling the Hall of Mirrors at Versailles",
	"hangover":     "like in the movie The Hangover, the wedding happens on the Las Vegas Strip; a small improvised ceremony, with signs of a big party the night before: bottles, cans, trash, people sleeping, and a messy environment",
	"rue_paris":    "on a Parisian street, with Haussmann-style buildings, a café terrace and the Eiffel Tower visible in the distance, golden-hour light",
	"rue_new_york": "on a New York City street, with brownstone facades, yellow cabs and a steaming manhole in the background, cinematic urban light",
}

// shoeDescriptions and accessoryDescriptions expand the French catalog values
// into English phrases for the prompt.
var shoeDescriptions = map[string]string{
	"Mocassins noirs":   "black loafers",
	"Mocassins marrons": "brown loafers",
	"Richelieu noires":  "black oxford shoes",
	"Richelieu marrons": "brown oxford shoes",
	"Baskets blanches":  "white sneakers",
}

var accessoryDescriptions = map[string]string{
	"Nœud papillon": "a bow tie",
	"Cravate":       "a tie",
}

var lapelDescriptions = map[string]string{
	"Revers cran droit standard":       "standard notch lapel",
	"Revers cran droit large":          "wide notch lapel",
	"Revers cran aigu standard":        "standard peak lapel",
	"Revers cran aigu large":           "wide peak lapel",
	"Col châle avec revers satin":      "shawl collar with satin lapel",
	"Veste croisée cran aigu standard": "double-breasted jacket with standard peak lapel",
	"Veste croisée cran aigu large":    "double-breasted jacket with wide peak lapel",
}

var pocketDescriptions = map[string]string{
	"En biais, sans rabat": "slanted pockets without flaps",
	"En biais avec rabat":  "slanted pockets with flaps",
	"Droites avec rabat":   "straight pockets with flaps",
	"Droites, sans rabat":  "straight pockets without flaps",
	"Poches plaquées":      "patch pockets",
}

func AtmosphereScene(value string) string {
	if desc, ok := atmosphereScenes[value]; ok {
		return desc
	}
	return value
}

func LapelDescription(value string) string {
	if desc, ok := lapelDescriptions[value]; ok {
		return desc
	}
	return value
}

func PocketDescription(value string) string {
	if desc, ok := pocketDescriptions[value]; ok {
		return desc
	}
	return value
}

func ShoeDescription(value string) string {
	if desc, ok := shoeDescriptions[value]; ok {
		return desc
	}
	return value
}

func AccessoryDescription(value string) string {
	if desc, ok := accessoryDescriptions[value]; ok {
		return desc
	}
	return value
}

// SuitComposition is the number of suit layers, resolved once at input
// validation so the prompt code never re-parses the raw suit type string.
type SuitComposition int

const (
	CompositionUnspecified SuitComposition = iota
	CompositionTwoPiece
	CompositionThreePiece
)

// ResolveSuitComposition detects the composition from the raw suit type value.
// Both French ("Costume 2 pièces") and English ("2-piece suit") forms are
// accepted; the match is case-insensitive.
func ResolveSuitComposition(suitType string) SuitComposition {
	s := strings.ToLower(suitType)
	if !strings.Contains(s, "piece") && !strings.Contains(s, "pièce") {
		return CompositionUnspecified
	}
	switch {
	case strings.Contains(s, "2"):
		return CompositionTwoPiece
	case strings.Contains(s, "3"):
		return CompositionThreePiece
	}
	return CompositionUnspecified
}
