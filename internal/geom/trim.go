package geom

import "math"

// Trim cuts path down to the fraction range [start, end] of its length,
// shifted by offset (a fraction of a full turn). Ranges that wrap past the
// end of the path are stitched from its beginning.
func Trim(path *Path, start, end, offset float64) {
	if start == 1 && end == 0 {
		return
	}
	if start == end {
		path.Reset()
		return
	}

	pm := NewPathMeasure(path)
	length := pm.Length()
	if length < 1 || math.Abs(end-start-1) < .01 {
		return
	}

	s := length * start
	e := length * end
	newStart := min(s, e)
	newEnd := max(s, e)

	off := offset * length
	newStart += off
	newEnd += off

	// The trim has rotated past the end of the path.
	if newStart >= length && newEnd >= length {
		newStart = FloorMod(newStart, length)
		newEnd = FloorMod(newEnd, length)
	}
	if newStart < 0 {
		newStart = FloorMod(newStart, length)
	}
	if newEnd < 0 {
		newEnd = FloorMod(newEnd, length)
	}

	if newStart == newEnd {
		path.Reset()
		return
	}
	if newStart >= newEnd {
		newStart -= length
	}

	fill := path.FillType()
	out := NewPath()
	pm.Segment(newStart, newEnd, out)
	if newEnd > length {
		pm.Segment(0, math.Mod(newEnd, length), out)
	} else if newStart < 0 {
		pm.Segment(length+newStart, length, out)
	}
	path.Set(out)
	path.SetFillType(fill)
}
