package route

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

// Track is a bundle of rerouted wires leaving one output pin and running along
// a shared secondary coordinate.
type Track struct {
	Source *graph.Pin
	Dests  []*graph.Pin
	// S is the secondary coordinate of the track line.
	S float64
	// PMin and PMax bound the track along the primary axis.
	PMin, PMax float64
	// Looping tracks lead back behind their source.
	Looping   bool
	Waypoints []*Waypoint
}

// Waypoint is one bend point of a track. Pins lists the destinations that
// branch off here; a waypoint without pins only turns the wire.
type Waypoint struct {
	// Pos is the center of the waypoint.
	Pos  geom.Vec
	Pins []*graph.Pin
	// Group is the innermost group enclosing the waypoint's endpoints, if any.
	Group *graph.Node
	// Knot is the node created for the waypoint by [Apply].
	Knot *graph.Node
}

func (t *Track) String() string {
	kind := "track"
	if t.Looping {
		kind = "loop"
	}
	return fmt.Sprintf("%s(%s -> %d pins @%.0f)", kind, t.Source.ID, len(t.Dests), t.S)
}

// spans reports whether the primary ranges of t and u overlap.
func (t *Track) spans(u *Track) bool {
	return t.PMin < u.PMax && u.PMin < t.PMax
}

// endpoints returns the nodes the track connects, source first.
func (t *Track) endpoints() []*graph.Node {
	out := []*graph.Node{t.Source.Node()}
	for _, d := range t.Dests {
		if n := d.Node(); !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

// mergeTracks joins forward tracks that leave the same pin at the same height.
func mergeTracks(tracks []*Track) []*Track {
	var out []*Track
	for _, t := range tracks {
		i := slices.IndexFunc(out, func(u *Track) bool {
			return !u.Looping && !t.Looping && u.Source == t.Source && math.Abs(u.S-t.S) < 0.5
		})
		if i < 0 {
			out = append(out, t)
			continue
		}
		u := out[i]
		for _, d := range t.Dests {
			if !slices.Contains(u.Dests, d) {
				u.Dests = append(u.Dests, d)
			}
		}
		u.PMin = math.Min(u.PMin, t.PMin)
		u.PMax = math.Max(u.PMax, t.PMax)
	}
	return out
}

// mergeWaypoints collapses consecutive waypoints closer than dist into one,
// keeping the first position and the union of the pins.
func mergeWaypoints(wps []*Waypoint, dist float64) []*Waypoint {
	if len(wps) < 2 {
		return wps
	}
	out := []*Waypoint{wps[0]}
	for _, w := range wps[1:] {
		last := out[len(out)-1]
		if geom.Distance(last.Pos, w.Pos) < dist {
			last.Pins = append(last.Pins, w.Pins...)
			continue
		}
		out = append(out, w)
	}
	return out
}

// sortByP orders pins by their primary coordinate.
func sortByP(pins []*graph.Pin, pos func(*graph.Pin) geom.Vec, o geom.Orient) {
	slices.SortStableFunc(pins, func(a, b *graph.Pin) int {
		return cmp.Compare(o.P(pos(a)), o.P(pos(b)))
	})
}
