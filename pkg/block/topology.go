package block

// Fixed hexahedron topology shared by every block. Corner i sits at
// transform.ReferenceCorners[i]:
//
//	     7 -------- 6
//	    /|         /|
//	   4 -------- 5 |
//	   | 3 -------|-2
//	   |/         |/
//	   0 -------- 1
//
// Curves run from the lower to the higher reference coordinate along their
// axis, four per axis.
const (
	numCorners  = 8
	numCurves   = 12
	numSurfaces = 6
)

// curveEnds[i] holds the start and end corner of curve i.
var curveEnds = [numCurves][2]int{
	// along x
	{0, 1}, {3, 2}, {7, 6}, {4, 5},
	// along y
	{0, 3}, {1, 2}, {5, 6}, {4, 7},
	// along z
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// curveAxis returns 0, 1 or 2 for the axis curve i runs along.
func curveAxis(i int) int { return i / 4 }

// Face indices.
const (
	FaceXMin = iota
	FaceXMax
	FaceYMin
	FaceYMax
	FaceZMin
	FaceZMax
)

// signedCurve is one edge of a face loop.
type signedCurve struct {
	curve int
	sign  int
}

// surfaceCurves lists every face as a closed loop of signed curves with the
// face normal pointing out of the block.
var surfaceCurves = [numSurfaces][4]signedCurve{
	FaceXMin: {{8, 1}, {7, 1}, {11, -1}, {4, -1}},
	FaceXMax: {{5, 1}, {10, 1}, {6, -1}, {9, -1}},
	FaceYMin: {{0, 1}, {9, 1}, {3, -1}, {8, -1}},
	FaceYMax: {{11, 1}, {2, 1}, {10, -1}, {1, -1}},
	FaceZMin: {{4, 1}, {1, 1}, {5, -1}, {0, -1}},
	FaceZMax: {{3, 1}, {6, 1}, {2, -1}, {7, -1}},
}

// surfaceCorners lists each face's corners in loop order: the start corner
// of every signed curve in surfaceCurves.
var surfaceCorners = [numSurfaces][4]int{
	FaceXMin: {0, 4, 7, 3},
	FaceXMax: {1, 2, 6, 5},
	FaceYMin: {0, 1, 5, 4},
	FaceYMax: {3, 7, 6, 2},
	FaceZMin: {0, 3, 2, 1},
	FaceZMax: {4, 5, 6, 7},
}

// edgeStart returns the corner a signed curve starts from.
func edgeStart(e signedCurve) int {
	if e.sign > 0 {
		return curveEnds[e.curve][0]
	}
	return curveEnds[e.curve][1]
}

// edgeEnd returns the corner a signed curve ends at.
func edgeEnd(e signedCurve) int {
	if e.sign > 0 {
		return curveEnds[e.curve][1]
	}
	return curveEnds[e.curve][0]
}
