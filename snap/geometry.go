package snap

import "math"

// constrainToMultiple rounds x to a multiple of n. It rounds to the nearest
// multiple first; if that exceeds maxVal it rounds down instead, and if the
// result is still below minVal it rounds up. maxVal <= 0 means unbounded.
func constrainToMultiple(x float64, n, minVal, maxVal int) int {
	y := int(math.Round(x/float64(n))) * n
	if maxVal > 0 && y > maxVal {
		y = int(math.Floor(x/float64(n))) * n
	}
	if y < minVal {
		y = int(math.Ceil(x/float64(n))) * n
	}
	return y
}

// AlignedFit computes the size an origW×origH image should be resampled to
// so that it covers targetW×targetH, keeps its aspect ratio, and has both
// dimensions aligned to a multiple of n. The axis needing the larger scale
// factor wins, so neither dimension ends up below its target.
func AlignedFit(origW, origH, targetW, targetH, n int) (int, int) {
	scaleW := float64(targetW) / float64(origW)
	scaleH := float64(targetH) / float64(origH)
	if scaleW > scaleH {
		scaleH = scaleW
	} else {
		scaleW = scaleH
	}
	w := constrainToMultiple(scaleW*float64(origW), n, targetW, 0)
	h := constrainToMultiple(scaleH*float64(origH), n, targetH, 0)
	return w, h
}
