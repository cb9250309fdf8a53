package normalize

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"insta-poster/internal/domain"
	"insta-poster/internal/usecase/compliance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(domain.DefaultConstraints(), DefaultEncodingPolicy(), false)
}

func solidImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodeJPEGBytes(t *testing.T, img image.Image) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

func encodePNGBytes(t *testing.T, img image.Image) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func isNearColor(c color.Color, want color.RGBA, delta int) bool {
	r, g, b, _ := c.RGBA()
	dr := int(r>>8) - int(want.R)
	dg := int(g>>8) - int(want.G)
	db := int(b>>8) - int(want.B)
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	return abs(dr) <= delta && abs(dg) <= delta && abs(db) <= delta
}

var (
	red   = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func TestNormalize_UnreadableInput(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Normalize([]byte("not an image"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProcessingFailed)
}

func TestNormalize_UpscalesBelowFloor(t *testing.T) {
	n := newTestNormalizer()

	out, err := n.Normalize(encodeJPEGBytes(t, solidImage(100, 100, red)))
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	assert.GreaterOrEqual(t, w, 320)
	assert.GreaterOrEqual(t, h, 320)
}

func TestNormalize_DownscalesAboveCeiling(t *testing.T) {
	n := newTestNormalizer()

	out, err := n.Normalize(encodeJPEGBytes(t, solidImage(2000, 2000, red)))
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	assert.LessOrEqual(t, w, 1440)
	assert.LessOrEqual(t, h, 1440)
}

func TestNormalize_CompliantInputKeepsGeometry(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name          string
		width, height int
	}{
		{"square", 800, 800},
		{"minimum resolution", 320, 320},
		{"maximum resolution", 1440, 1440},
		{"minimum aspect ratio", 400, 500},
		{"maximum aspect ratio", 955, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := n.Normalize(encodeJPEGBytes(t, solidImage(tt.width, tt.height, red)))
			require.NoError(t, err)

			w, h := decodeDims(t, out)
			assert.Equal(t, tt.width, w)
			assert.Equal(t, tt.height, h)
		})
	}
}

func TestNormalize_PadsTallImage(t *testing.T) {
	n := newTestNormalizer()

	// 500x1000 is ratio 0.5, well below the 0.8 floor. Padding to the floor
	// yields 800x1000 with 150px white bands left and right.
	out, err := n.Normalize(encodeJPEGBytes(t, solidImage(500, 1000, red)))
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	assert.Equal(t, 800, w)
	assert.Equal(t, 1000, h)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	y := h / 2
	assert.True(t, isNearColor(img.At(10, y), white, 30), "left padding band should be white")
	assert.True(t, isNearColor(img.At(w/2, y), red, 30), "center should keep original content")
	assert.True(t, isNearColor(img.At(w-10, y), white, 30), "right padding band should be white")
}

func TestNormalize_PadsWideImage(t *testing.T) {
	n := newTestNormalizer()

	// 1200x400 is ratio 3.0, above the 1.91 ceiling; height is padded.
	out, err := n.Normalize(encodeJPEGBytes(t, solidImage(1200, 400, red)))
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	ratio := float64(w) / float64(h)
	assert.LessOrEqual(t, ratio, 1.91+domain.AspectRatioTolerance)
	assert.GreaterOrEqual(t, ratio, 0.8-domain.AspectRatioTolerance)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	x := w / 2
	assert.True(t, isNearColor(img.At(x, 5), white, 30), "top padding band should be white")
	assert.True(t, isNearColor(img.At(x, h/2), red, 30), "center should keep original content")
	assert.True(t, isNearColor(img.At(x, h-5), white, 30), "bottom padding band should be white")
}

func TestNormalize_AlphaCompositedOverWhite(t *testing.T) {
	n := newTestNormalizer()

	// Fully transparent source must come out white, not black.
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))

	out, err := n.Normalize(encodePNGBytes(t, img))
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.True(t, isNearColor(decoded.At(200, 200), white, 10))
}

func TestNormalize_GrayscaleInput(t *testing.T) {
	n := newTestNormalizer()

	gray := image.NewGray(image.Rect(0, 0, 600, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 600; x++ {
			gray.SetGray(x, y, color.Gray{Y: 128})
		}
	}

	out, err := n.Normalize(encodePNGBytes(t, gray))
	require.NoError(t, err)

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestNormalize_SizeBudget(t *testing.T) {
	constraints := domain.DefaultConstraints()
	constraints.MaxFileSizeBytes = 300_000

	n := NewNormalizer(constraints, DefaultEncodingPolicy(), false)

	// High-entropy content compresses poorly, forcing the quality ladder and
	// then the geometry ladder.
	rng := rand.New(rand.NewSource(42))
	noisy := image.NewRGBA(image.Rect(0, 0, 1440, 1440))
	for y := 0; y < 1440; y++ {
		for x := 0; x < 1440; x++ {
			noisy.SetRGBA(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}

	out, err := n.Normalize(encodePNGBytes(t, noisy))
	require.NoError(t, err)

	assert.LessOrEqual(t, int64(len(out)), constraints.MaxFileSizeBytes)

	w, h := decodeDims(t, out)
	assert.GreaterOrEqual(t, w, constraints.MinResolutionPx)
	assert.GreaterOrEqual(t, h, constraints.MinResolutionPx)
}

func TestNormalize_PostconditionHolds(t *testing.T) {
	n := newTestNormalizer()
	v := compliance.NewValidator(domain.DefaultConstraints())

	tests := []struct {
		name          string
		width, height int
	}{
		{"tiny square", 50, 50},
		{"small portrait", 200, 900},
		{"oversized landscape", 3000, 1800},
		{"extreme tall", 100, 2000},
		{"extreme wide", 2000, 100},
		{"compliant", 1080, 1080},
		{"narrow strip", 40, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := n.Normalize(encodeJPEGBytes(t, solidImage(tt.width, tt.height, red)))
			require.NoError(t, err)
			assert.NoError(t, v.Validate(out))
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	n := newTestNormalizer()
	data := encodeJPEGBytes(t, solidImage(500, 1000, red))

	first, err := n.Normalize(data)
	require.NoError(t, err)
	second, err := n.Normalize(data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
