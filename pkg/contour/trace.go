package contour

import "image"

// rawBorder is one traced boundary before retrieval-mode mapping.
// Sequence numbers follow the border-following convention: 1 is the
// implicit image frame, traced borders start at 2.
type rawBorder struct {
	hole   bool          // hole border (traced around a background region)
	parent int           // sequence number of the enclosing border
	points []image.Point // closed boundary, chain-simplified
}

// Neighborhood directions in clockwise screen order (y grows downward),
// starting east. Counter-clockwise traversal walks this table backwards.
var dirs = [8]image.Point{
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
}

const (
	dirEast = 0
	dirWest = 4
)

func dirIndex(from, to image.Point) int {
	d := to.Sub(from)
	for i, v := range dirs {
		if v == d {
			return i
		}
	}
	return dirEast
}

// traceBorders runs topological border following over a binary mask and
// returns every border with its nesting relationship. The returned slice is
// indexed by sequence number; entries 0 and 1 are placeholders (1 being the
// frame, treated as a hole border enclosing everything).
//
// The algorithm is the classical structural-analysis approach for binary
// images: a raster scan locates untraced border start pixels, each border is
// followed once through the Moore neighborhood, and pixels are relabeled so
// a border is never followed twice. The label of the most recently passed
// border (LNBD) determines each new border's parent.
func traceBorders(mask *image.Gray) []rawBorder {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()

	f := make([]int32, w*h)
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, v := range row {
			if v != 0 {
				f[y*w+x] = 1
			}
		}
	}

	at := func(x, y int) int32 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return f[y*w+x]
	}

	borders := []rawBorder{{}, {hole: true, parent: 1}}
	nbd := 1

	for y := 0; y < h; y++ {
		lnbd := 1
		for x := 0; x < w; x++ {
			fv := f[y*w+x]
			if fv == 0 {
				continue
			}

			outer := fv == 1 && at(x-1, y) == 0
			holeStart := !outer && fv >= 1 && at(x+1, y) == 0

			if outer || holeStart {
				nbd++
				startDir := dirWest
				if holeStart {
					startDir = dirEast
					if fv > 1 {
						lnbd = int(fv)
					}
				}

				// Parent from the most recent border: same kind shares its
				// parent, opposite kind encloses the new border directly.
				parent := borders[lnbd].parent
				if borders[lnbd].hole != holeStart {
					parent = lnbd
				}

				pts := follow(f, w, h, image.Pt(x, y), startDir, int32(nbd))
				borders = append(borders, rawBorder{
					hole:   holeStart,
					parent: parent,
					points: approxSimple(pts),
				})
			}

			if cur := f[y*w+x]; cur != 1 {
				if cur < 0 {
					lnbd = int(-cur)
				} else {
					lnbd = int(cur)
				}
			}
		}
	}

	return borders
}

// follow traces a single border starting at start, whose initial background
// neighbor lies in direction startDir. It relabels visited pixels with nbd
// (negated on pixels whose east neighbor is background, which stops the
// raster scan from starting the same border again).
func follow(f []int32, w, h int, start image.Point, startDir int, nbd int32) []image.Point {
	at := func(p image.Point) int32 {
		if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h {
			return 0
		}
		return f[p.Y*w+p.X]
	}
	set := func(p image.Point, v int32) {
		f[p.Y*w+p.X] = v
	}

	pts := []image.Point{start}

	// Clockwise scan for the first nonzero neighbor.
	var i1 image.Point
	found := false
	for k := 0; k < 8; k++ {
		p := start.Add(dirs[(startDir+k)%8])
		if at(p) != 0 {
			i1 = p
			found = true
			break
		}
	}
	if !found {
		// Isolated pixel: a border of one point.
		set(start, -nbd)
		return pts
	}

	i2, i3 := i1, start
	for {
		// Counter-clockwise scan around i3, starting after i2.
		dir := dirIndex(i3, i2)
		var i4 image.Point
		eastZeroExamined := false
		for k := 1; k <= 8; k++ {
			d := dirs[((dir-k)%8+8)%8]
			p := i3.Add(d)
			if at(p) != 0 {
				i4 = p
				break
			}
			if d.X == 1 && d.Y == 0 {
				eastZeroExamined = true
			}
		}

		if eastZeroExamined {
			set(i3, -nbd)
		} else if at(i3) == 1 {
			set(i3, nbd)
		}

		if i4 == start && i3 == i1 {
			return pts
		}
		i2, i3 = i3, i4
		pts = append(pts, i3)
	}
}

// approxSimple compresses a traced border the way chain approximation does:
// only the endpoints of horizontal, vertical and diagonal runs survive.
// The sequence is treated as closed.
func approxSimple(pts []image.Point) []image.Point {
	n := len(pts)
	if n < 3 {
		return pts
	}

	keep := make([]image.Point, 0, n)
	for i := 0; i < n; i++ {
		prev := pts[(i-1+n)%n]
		cur := pts[i]
		next := pts[(i+1)%n]
		if cur.Sub(prev) != next.Sub(cur) {
			keep = append(keep, cur)
		}
	}
	if len(keep) == 0 {
		// Every step collinear can only happen on degenerate traces.
		return pts[:1]
	}
	return keep
}
