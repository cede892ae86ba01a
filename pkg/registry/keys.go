package registry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/blockgeo/pkg/geom"
)

// pointKey is a point's coordinates snapped to the tolerance grid.
type pointKey [3]int64

// maxGridIndex bounds a snapped coordinate so it converts to int64 exactly.
const maxGridIndex = 1 << 62

// makePointKey rounds every coordinate to the nearest multiple of tol.
// Points closer than tol therefore usually share a key; points straddling a
// grid boundary can still land on neighbouring keys. Non-finite coordinates
// and coordinates too large for the grid are rejected.
func makePointKey(c geom.Vec3, tol float64) (pointKey, error) {
	var key pointKey
	for i, v := range c.Array() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return key, &geom.ValidationError{Field: "point", Message: fmt.Sprintf("coordinate %s is not finite", c)}
		}
		q := math.Round(v / tol)
		if math.Abs(q) > maxGridIndex {
			return key, &geom.ValidationError{
				Field:   "point",
				Message: fmt.Sprintf("coordinate %g is out of range for tolerance %g", v, tol),
			}
		}
		key[i] = int64(q)
	}
	return key, nil
}

// tagsKey encodes a prefix and an ordered tag tuple as a map key.
func tagsKey(prefix int, tags []geom.Tag) string {
	var b strings.Builder
	b.Grow(4 + len(tags)*4)
	b.WriteString(strconv.Itoa(prefix))
	b.WriteByte('|')
	for i, t := range tags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(t)))
	}
	return b.String()
}

// curveKeys returns the forward key of a curve and the key of the same curve
// walked backward.
func curveKeys(kind geom.CurveKind, pointTags []geom.Tag) (fwd, rev string) {
	reversed := make([]geom.Tag, len(pointTags))
	for i, t := range pointTags {
		reversed[len(pointTags)-1-i] = t
	}
	return tagsKey(int(kind), pointTags), tagsKey(int(kind), reversed)
}

// loopKeys returns the 2N keys under which an N-curve loop is equivalent:
// every cyclic rotation of the signed sequence, and every cyclic rotation of
// the sequence reversed with each sign flipped.
func loopKeys(signed []geom.Tag) []string {
	n := len(signed)
	backward := make([]geom.Tag, n)
	for i, t := range signed {
		backward[n-1-i] = -t
	}
	keys := make([]string, 0, 2*n)
	rot := make([]geom.Tag, n)
	for _, seq := range [][]geom.Tag{signed, backward} {
		for start := 0; start < n; start++ {
			for i := 0; i < n; i++ {
				rot[i] = seq[(start+i)%n]
			}
			keys = append(keys, tagsKey(0, rot))
		}
	}
	return keys
}
