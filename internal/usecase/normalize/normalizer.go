package normalize

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"insta-poster/internal/domain"
	"insta-poster/internal/usecase/compliance"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// EncodingPolicy controls the size-budget stage: JPEG quality starts at
// InitialQuality and drops by QualityStep down to MinQuality; if the budget is
// still missed, geometry shrinks by ScaleStep per attempt at floor quality.
type EncodingPolicy struct {
	InitialQuality int
	MinQuality     int
	QualityStep    int
	ScaleStep      float64
}

func DefaultEncodingPolicy() EncodingPolicy {
	return EncodingPolicy{
		InitialQuality: domain.DefaultJPEGQuality,
		MinQuality:     60,
		QualityStep:    5,
		ScaleStep:      0.9,
	}
}

const (
	contrastBoost  = 10
	sharpnessBoost = 0.5
)

// Normalizer transforms arbitrary decodable image bytes into JPEG bytes that
// satisfy every platform constraint. It is a pure transform: each call depends
// only on its input and the immutable configuration.
type Normalizer struct {
	constraints domain.Constraints
	encoding    EncodingPolicy
	enhance     bool
	validator   *compliance.Validator
}

func NewNormalizer(constraints domain.Constraints, encoding EncodingPolicy, enhance bool) *Normalizer {
	return &Normalizer{
		constraints: constraints,
		encoding:    encoding,
		enhance:     enhance,
		validator:   compliance.NewValidator(constraints),
	}
}

// Normalize runs the fixed pipeline: decode, flatten to opaque RGB, fit the
// resolution bounds, pad the aspect ratio into range, optionally enhance, and
// encode within the file-size budget. The produced bytes are re-checked
// against the validator before they are returned.
func (n *Normalizer) Normalize(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v: %w", err, ErrProcessingFailed)
	}

	img := flattenToRGB(src)
	img = n.fitResolution(img)
	img = n.fitAspectRatio(img)

	if n.enhance {
		img = enhance(img)
	}

	out, err := n.encodeWithBudget(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %v: %w", err, ErrProcessingFailed)
	}

	if err := n.validator.Validate(out); err != nil {
		return nil, fmt.Errorf("output failed compliance check: %v: %w", err, ErrInvariantViolated)
	}

	return out, nil
}

// fitResolution scales down to the per-dimension ceiling, then up to the
// floor. The two phases are sequential: an image can exceed the ceiling first
// and still need a floor correction afterwards. The scale-up factor is capped
// so neither dimension passes the ceiling; for extreme aspect ratios the
// padding stage restores the floor on the short axis instead.
func (n *Normalizer) fitResolution(img *image.RGBA) *image.RGBA {
	c := n.constraints
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	down := minf(1, minf(
		float64(c.MaxResolutionPx)/float64(w),
		float64(c.MaxResolutionPx)/float64(h),
	))
	if down < 1 {
		w, h = roundDim(float64(w)*down), roundDim(float64(h)*down)
		img = scaleTo(img, w, h)
	}

	up := maxf(1, maxf(
		float64(c.MinResolutionPx)/float64(w),
		float64(c.MinResolutionPx)/float64(h),
	))
	if up > 1 {
		ceiling := minf(
			float64(c.MaxResolutionPx)/float64(w),
			float64(c.MaxResolutionPx)/float64(h),
		)
		if up > ceiling {
			up = maxf(1, ceiling)
		}
		if up > 1 {
			img = scaleTo(img, roundDim(float64(w)*up), roundDim(float64(h)*up))
		}
	}

	return img
}

// fitAspectRatio pads the short axis with opaque white until the ratio lands
// on the nearest boundary of the allowed range. Content is never cropped.
// A single corrective pass covers the rare case where integer rounding leaves
// the padded ratio just outside the bounds; it never loops beyond that.
func (n *Normalizer) fitAspectRatio(img *image.RGBA) *image.RGBA {
	c := n.constraints
	ratio := imageRatio(img)

	if ratio >= c.MinAspectRatio-domain.AspectRatioTolerance &&
		ratio <= c.MaxAspectRatio+domain.AspectRatioTolerance {
		return img
	}

	img = n.padToRange(img, false)

	ratio = imageRatio(img)
	if ratio < c.MinAspectRatio || ratio > c.MaxAspectRatio {
		img = n.padToRange(img, true)
	}

	return img
}

// padToRange computes the padded dimensions for whichever bound is violated.
// The corrective pass rounds the target outward so the result is guaranteed
// to land inside the range.
func (n *Normalizer) padToRange(img *image.RGBA, corrective bool) *image.RGBA {
	c := n.constraints
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	ratio := float64(w) / float64(h)

	switch {
	case ratio < c.MinAspectRatio:
		target := float64(h) * c.MinAspectRatio
		tw := roundDim(target)
		if corrective {
			tw = ceilDim(target)
		}
		if tw > w {
			img = padWidth(img, tw)
		}
	case ratio > c.MaxAspectRatio:
		target := float64(w) / c.MaxAspectRatio
		th := roundDim(target)
		if corrective {
			th = ceilDim(target)
		}
		if th > h {
			img = padHeight(img, th)
		}
	}

	return img
}

// enhance applies the mild contrast and sharpness boost carried over from the
// legacy pipeline. Disabled by default because it alters pixel content.
func enhance(img *image.RGBA) *image.RGBA {
	boosted := imaging.AdjustContrast(img, contrastBoost)
	boosted = imaging.Sharpen(boosted, sharpnessBoost)

	return toRGBA(boosted)
}

func imageRatio(img image.Image) float64 {
	b := img.Bounds()
	return float64(b.Dx()) / float64(b.Dy())
}
