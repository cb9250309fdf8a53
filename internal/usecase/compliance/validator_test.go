package compliance

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"insta-poster/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegImage(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 80, B: 40, A: 255})
		}
	}

	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

func pngImage(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestValidate_CompliantImage(t *testing.T) {
	v := NewValidator(domain.DefaultConstraints())

	assert.NoError(t, v.Validate(jpegImage(t, 1080, 1080)))
}

func TestValidate_BoundaryImages(t *testing.T) {
	v := NewValidator(domain.DefaultConstraints())

	tests := []struct {
		name          string
		width, height int
	}{
		{"exact minimum resolution", 320, 320},
		{"exact maximum resolution", 1440, 1440},
		{"exact minimum aspect ratio", 400, 500},
		{"exact maximum aspect ratio", 955, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, v.Validate(jpegImage(t, tt.width, tt.height)))
		})
	}
}

func TestValidate_UnreadableImage(t *testing.T) {
	v := NewValidator(domain.DefaultConstraints())

	err := v.Validate([]byte("not an image"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadableImage)
}

func TestValidate_ResolutionTooSmall(t *testing.T) {
	v := NewValidator(domain.DefaultConstraints())

	err := v.Validate(jpegImage(t, 100, 100))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolutionTooSmall)
}

func TestValidate_ResolutionTooLarge(t *testing.T) {
	v := NewValidator(domain.DefaultConstraints())

	err := v.Validate(jpegImage(t, 2000, 1200))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolutionTooLarge)
}

func TestValidate_AspectRatioOutOfRange(t *testing.T) {
	v := NewValidator(domain.DefaultConstraints())

	err := v.Validate(jpegImage(t, 500, 1000))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAspectRatioOutOfRange)
	assert.Contains(t, err.Error(), "0.50")
	assert.Contains(t, err.Error(), "0.80")
	assert.Contains(t, err.Error(), "1.91")
}

func TestValidate_FileSizeExceeded(t *testing.T) {
	constraints := domain.DefaultConstraints()
	constraints.MaxFileSizeBytes = 10
	v := NewValidator(constraints)

	// Size is checked before decoding, so even undecodable bytes report the
	// size violation first.
	err := v.Validate(bytes.Repeat([]byte("x"), 100))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileSizeExceeded)
}

func TestValidate_Deterministic(t *testing.T) {
	v := NewValidator(domain.DefaultConstraints())
	data := jpegImage(t, 100, 100)

	first := v.Validate(data)
	second := v.Validate(data)

	require.Error(t, first)
	require.Error(t, second)
	assert.Equal(t, first.Error(), second.Error())
}

func TestReport_PartialCompliance(t *testing.T) {
	v := NewValidator(domain.DefaultConstraints())

	info, report, err := v.Report(pngImage(t, 100, 100))
	require.NoError(t, err)

	assert.Equal(t, 100, info.Width)
	assert.Equal(t, 100, info.Height)
	assert.InDelta(t, 1.0, info.AspectRatio, 0.001)
	assert.Equal(t, "png", info.Format)

	assert.False(t, report.ResolutionOK)
	assert.True(t, report.AspectRatioOK)
	assert.True(t, report.FileSizeOK)
	assert.False(t, report.Compliant())
}

func TestReport_CompliantImage(t *testing.T) {
	v := NewValidator(domain.DefaultConstraints())

	_, report, err := v.Report(jpegImage(t, 1080, 720))
	require.NoError(t, err)

	assert.True(t, report.ResolutionOK)
	assert.True(t, report.AspectRatioOK)
	assert.True(t, report.FileSizeOK)
	assert.True(t, report.Compliant())
}

func TestReport_UnreadableImage(t *testing.T) {
	v := NewValidator(domain.DefaultConstraints())

	_, _, err := v.Report([]byte("garbage"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadableImage)
}
