package normalize

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
)

// flattenToRGB collapses any decoded color model to opaque tri-channel RGB.
// Alpha is composited against opaque white rather than discarded.
func flattenToRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	return flattenToRGB(src)
}

// scaleTo resamples with CatmullRom, the highest-quality filter in
// golang.org/x/image/draw.
func scaleTo(src *image.RGBA, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// padWidth centers the image on a white canvas of the target width. The two
// pad amounts always sum exactly to the required total; an odd remainder puts
// the extra pixel on the right.
func padWidth(src *image.RGBA, width int) *image.RGBA {
	h := src.Bounds().Dy()
	left := (width - src.Bounds().Dx()) / 2

	dst := image.NewRGBA(image.Rect(0, 0, width, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, src.Bounds().Add(image.Pt(left, 0)), src, src.Bounds().Min, draw.Src)
	return dst
}

// padHeight is the vertical counterpart; the extra pixel goes to the bottom.
func padHeight(src *image.RGBA, height int) *image.RGBA {
	w := src.Bounds().Dx()
	top := (height - src.Bounds().Dy()) / 2

	dst := image.NewRGBA(image.Rect(0, 0, w, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, src.Bounds().Add(image.Pt(0, top)), src, src.Bounds().Min, draw.Src)
	return dst
}

// roundDim rounds half away from zero and never returns less than one pixel.
func roundDim(v float64) int {
	d := int(math.Round(v))
	if d < 1 {
		return 1
	}
	return d
}

func ceilDim(v float64) int {
	d := int(math.Ceil(v))
	if d < 1 {
		return 1
	}
	return d
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
