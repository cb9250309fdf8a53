package compliance

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"insta-poster/internal/domain"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Validator decides whether encoded image bytes satisfy the platform
// constraints. It is a pure predicate: no I/O, no state, same bytes always
// yield the same verdict.
type Validator struct {
	constraints domain.Constraints
}

func NewValidator(constraints domain.Constraints) *Validator {
	return &Validator{constraints: constraints}
}

// Validate checks the constraints in fixed precedence order and reports the
// first violation: file size, decodability, minimum resolution, maximum
// resolution, aspect ratio. Later checks are not evaluated after a failure.
func (v *Validator) Validate(data []byte) error {
	c := v.constraints

	if int64(len(data)) > c.MaxFileSizeBytes {
		return fmt.Errorf("image is %d bytes, limit is %d bytes: %w",
			len(data), c.MaxFileSizeBytes, ErrFileSizeExceeded)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %v: %w", err, ErrUnreadableImage)
	}

	if cfg.Width < c.MinResolutionPx || cfg.Height < c.MinResolutionPx {
		return fmt.Errorf("image is %dx%d, minimum is %dx%d: %w",
			cfg.Width, cfg.Height, c.MinResolutionPx, c.MinResolutionPx, ErrResolutionTooSmall)
	}

	if cfg.Width > c.MaxResolutionPx || cfg.Height > c.MaxResolutionPx {
		return fmt.Errorf("image is %dx%d, maximum is %dx%d: %w",
			cfg.Width, cfg.Height, c.MaxResolutionPx, c.MaxResolutionPx, ErrResolutionTooLarge)
	}

	ratio := float64(cfg.Width) / float64(cfg.Height)
	if ratio < c.MinAspectRatio-domain.AspectRatioTolerance ||
		ratio > c.MaxAspectRatio+domain.AspectRatioTolerance {
		return fmt.Errorf("aspect ratio %.2f outside allowed range [%.2f, %.2f]: %w",
			ratio, c.MinAspectRatio, c.MaxAspectRatio, ErrAspectRatioOutOfRange)
	}

	return nil
}

// Report derives basic image info and the per-constraint verdicts without
// failing fast. The error is non-nil only when the bytes cannot be decoded.
func (v *Validator) Report(data []byte) (domain.ImageInfo, domain.ComplianceReport, error) {
	c := v.constraints

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.ImageInfo{}, domain.ComplianceReport{},
			fmt.Errorf("failed to decode image: %v: %w", err, ErrUnreadableImage)
	}

	ratio := float64(cfg.Width) / float64(cfg.Height)

	info := domain.ImageInfo{
		Width:       cfg.Width,
		Height:      cfg.Height,
		AspectRatio: ratio,
		Format:      format,
		SizeBytes:   int64(len(data)),
	}

	report := domain.ComplianceReport{
		ResolutionOK: cfg.Width >= c.MinResolutionPx && cfg.Height >= c.MinResolutionPx &&
			cfg.Width <= c.MaxResolutionPx && cfg.Height <= c.MaxResolutionPx,
		AspectRatioOK: ratio >= c.MinAspectRatio-domain.AspectRatioTolerance &&
			ratio <= c.MaxAspectRatio+domain.AspectRatioTolerance,
		FileSizeOK: int64(len(data)) <= c.MaxFileSizeBytes,
	}

	return info, report, nil
}
