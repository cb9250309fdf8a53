package normalize

import "errors"

var (
	// ErrProcessingFailed reports that no valid output could be produced from
	// the source bytes, usually because they are not a decodable image.
	ErrProcessingFailed = errors.New("image processing failed")

	// ErrInvariantViolated reports that the normalizer's own output failed the
	// final compliance check. This is a defect in the pipeline, not an input
	// problem, and must never be folded into the input-validation errors.
	ErrInvariantViolated = errors.New("normalizer invariant violated")
)
