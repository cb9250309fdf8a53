package normalize

import (
	"bytes"
	"image"
	"image/jpeg"
)

// encodeWithBudget encodes as JPEG under the file-size ceiling. Quality drops
// first; once it reaches the floor the geometry shrinks instead, never past
// the resolution floor. If no attempt fits the budget the smallest one is
// returned: a degraded but terminating outcome, surfaced to the caller by the
// final compliance check rather than swallowed here.
func (n *Normalizer) encodeWithBudget(img *image.RGBA) ([]byte, error) {
	budget := n.constraints.MaxFileSizeBytes
	p := n.encoding

	var smallest []byte

	for quality := p.InitialQuality; ; quality -= p.QualityStep {
		out, err := encodeJPEG(img, quality)
		if err != nil {
			return nil, err
		}
		if int64(len(out)) <= budget {
			return out, nil
		}
		if smallest == nil || len(out) < len(smallest) {
			smallest = out
		}
		if quality-p.QualityStep < p.MinQuality {
			break
		}
	}

	for {
		w := roundDim(float64(img.Bounds().Dx()) * p.ScaleStep)
		h := roundDim(float64(img.Bounds().Dy()) * p.ScaleStep)
		if w < n.constraints.MinResolutionPx || h < n.constraints.MinResolutionPx {
			break
		}

		img = scaleTo(img, w, h)
		out, err := encodeJPEG(img, p.MinQuality)
		if err != nil {
			return nil, err
		}
		if int64(len(out)) <= budget {
			return out, nil
		}
		if len(out) < len(smallest) {
			smallest = out
		}
	}

	return smallest, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
