package mathutil

import (
	"fmt"
	"sort"
	"strings"
)

// Preset camera rotations. The viewer sits on +Z looking down -Z with +Y up,
// so a larger rotated Z is closer to the camera.
var (
	ViewFront  = Mat3Identity()
	ViewBack   = RotY(Deg2Rad(180))
	ViewLeft   = RotY(Deg2Rad(90))
	ViewRight  = RotY(Deg2Rad(-90))
	ViewTop    = RotX(Deg2Rad(90))
	ViewBottom = RotX(Deg2Rad(-90))

	// ViewIso looks down 30° onto the front-right corner.
	ViewIso = Mat3Mul(RotX(Deg2Rad(30)), RotY(Deg2Rad(-45)))

	// ViewZUp is ViewIso for assets authored with +Z up.
	ViewZUp = Mat3Mul(ViewIso, RotX(Deg2Rad(-90)))
)

var views = map[string]Mat3{
	"front":  ViewFront,
	"back":   ViewBack,
	"left":   ViewLeft,
	"right":  ViewRight,
	"top":    ViewTop,
	"bottom": ViewBottom,
	"iso":    ViewIso,
	"zup":    ViewZUp,
}

// ViewByName returns a preset rotation. Names are case-insensitive.
func ViewByName(name string) (Mat3, error) {
	m, ok := views[strings.ToLower(name)]
	if !ok {
		return Mat3{}, fmt.Errorf("mathutil: unknown view %q (have %s)", name, strings.Join(ViewNames(), ", "))
	}
	return m, nil
}

// ViewNames lists the preset names in sorted order.
func ViewNames() []string {
	names := make([]string, 0, len(views))
	for n := range views {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
