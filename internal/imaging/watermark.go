package imaging

import (
	"bytes"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

// Watermarker overlays the brand logo onto generated images. A missing or
// unreadable asset degrades to a no-op: watermark problems must never fail a
// generation request.
type Watermarker struct {
	asset      image.Image
	widthRatio float64
	logger     zerolog.Logger
}

// NewWatermarker loads the overlay asset from disk. When the asset cannot be
// loaded the returned Watermarker passes images through unchanged.
func NewWatermarker(assetPath string, widthRatio float64, logger zerolog.Logger) *Watermarker {
	w := &Watermarker{
		widthRatio: widthRatio,
		logger:     logger.With().Str("component", "Watermarker").Logger(),
	}
	f, err := os.Open(assetPath)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", assetPath).Msg("Watermark asset not found, images will not be watermarked")
		return w
	}
	defer f.Close()

	asset, err := imaging.Decode(f)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", assetPath).Msg("Failed to decode watermark asset")
		return w
	}
	w.asset = asset
	return w
}

// Apply overlays the watermark anchored bottom-center, scaled to the
// configured fraction of the base image width with its aspect ratio
// preserved. On any failure the original bytes are returned.
func (w *Watermarker) Apply(imageBytes []byte) []byte {
	if w.asset == nil {
		return imageBytes
	}

	base, err := imaging.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		w.logger.Warn().Err(err).Msg("Could not decode generated image, skipping watermark")
		return imageBytes
	}

	baseW := base.Bounds().Dx()
	baseH := base.Bounds().Dy()
	wmWidth := int(float64(baseW) * w.widthRatio)
	if wmWidth < 1 {
		return imageBytes
	}

	// Height 0 keeps the watermark's aspect ratio.
	mark := imaging.Resize(w.asset, wmWidth, 0, imaging.Lanczos)
	x := (baseW - mark.Bounds().Dx()) / 2
	y := baseH - mark.Bounds().Dy() - 20
	result := imaging.Overlay(base, mark, image.Pt(x, y), 1.0)

	var out bytes.Buffer
	if err := imaging.Encode(&out, result, imaging.PNG); err != nil {
		w.logger.Warn().Err(err).Msg("Could not encode watermarked image, returning original")
		return imageBytes
	}
	return out.Bytes()
}
