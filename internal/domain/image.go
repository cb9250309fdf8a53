package domain

// Constraints are the publishing platform's image requirements. They are
// loaded once from configuration and treated as read-only afterwards.
type Constraints struct {
	MinResolutionPx  int
	MaxResolutionPx  int
	MinAspectRatio   float64
	MaxAspectRatio   float64
	MaxFileSizeBytes int64
}

// AspectRatioTolerance absorbs rounding-induced near-misses on the aspect
// bounds. The normalizer skips padding inside this band and the validator
// accepts it, so the two stay consistent.
const AspectRatioTolerance = 0.02

func DefaultConstraints() Constraints {
	return Constraints{
		MinResolutionPx:  320,
		MaxResolutionPx:  1440,
		MinAspectRatio:   0.8,
		MaxAspectRatio:   1.91,
		MaxFileSizeBytes: 8 << 20,
	}
}

type ImageInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Format      string  `json:"format"`
	SizeBytes   int64   `json:"size_bytes"`
}

// ComplianceReport holds the three independent constraint verdicts.
type ComplianceReport struct {
	ResolutionOK  bool `json:"resolution_ok"`
	AspectRatioOK bool `json:"aspect_ratio_ok"`
	FileSizeOK    bool `json:"file_size_ok"`
}

func (r ComplianceReport) Compliant() bool {
	return r.ResolutionOK && r.AspectRatioOK && r.FileSizeOK
}

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
	FormatWebP ImageFormat = "webp"
	FormatBMP  ImageFormat = "bmp"
	FormatTIFF ImageFormat = "tiff"
)

const (
	DefaultMaxUploadSize = 32 << 20
	DefaultJPEGQuality   = 85
)
