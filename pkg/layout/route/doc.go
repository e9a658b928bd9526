// Package route reroutes long or fanned-out wires through waypoints.
//
// A [Router] looks at every output pin of a positioned [Scene] and decides
// which wires need a track. A pin with several destinations always gets one;
// a single wire only when it is longer than the knot distance threshold and
// its straight line crosses another node. Wires that lead back behind their
// source get a loop track above both endpoints.
//
// Track heights are chosen by trying the source and destination pin heights
// first and otherwise sweeping away from the first obstacle. Overlapping
// tracks are stacked apart and whatever sits on a stacked track is pushed
// aside. [Apply] then inserts one knot node per waypoint and rewires the
// graph through them.
package route
