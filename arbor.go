package arbor

// Color represents an RGBA color with components in [0, 1]. Not premultiplied;
// GPU backends that blend premultiplied colors convert at draw time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// Vec2 is a 2D vector used for positions, offsets, sizes, and directions
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// ContainsRect reports whether other lies entirely inside r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.X+other.Width <= r.X+r.Width &&
		other.Y+other.Height <= r.Y+r.Height
}

// Union returns the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// IsPoint reports whether the rectangle has no area in either axis.
// Point-sized bounds are never spatially indexed and never visible.
func (r Rect) IsPoint() bool {
	return r.Width == 0 && r.Height == 0
}

// BlendMode selects a compositing operation. GPU backends map each mode to
// their native blend state.
type BlendMode uint8

const (
	BlendNormal   BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                       // additive / lighter
	BlendMultiply                  // multiply (source * destination; only darkens)
	BlendScreen                    // screen (1 - (1-src)*(1-dst); only brightens)
	BlendErase                     // destination-out (punch transparent holes)
	BlendMask                      // clip destination to source alpha
	BlendBelow                     // destination-over (draw behind existing content)
	BlendNone                      // opaque copy (skip blending)
)

var blendNames = map[string]BlendMode{
	"normal":   BlendNormal,
	"add":      BlendAdd,
	"multiply": BlendMultiply,
	"screen":   BlendScreen,
	"erase":    BlendErase,
	"mask":     BlendMask,
	"below":    BlendBelow,
	"none":     BlendNone,
}

// ParseBlendMode returns the blend mode with the given lowercase name.
// The empty string maps to BlendNormal.
func ParseBlendMode(name string) (BlendMode, bool) {
	if name == "" {
		return BlendNormal, true
	}
	b, ok := blendNames[name]
	return b, ok
}

// EventType identifies a kind of interaction event.
type EventType uint8

const (
	EventCursorEnterFrom EventType = iota // pointer entered a node; Other is the node it came from
	EventCursorLeaveTo                    // pointer left a node; Other is the node it went to
	EventHovering                         // pointer rests over a node (once per tick)
	EventDragBegin                        // a button was pressed over a node
	EventDragging                         // pointer moved while the button is held
	EventDropping                         // held node is being dragged over Other
	EventDropTo                           // held node was released over Other
	EventDragEnd                          // held node was released over itself or nothing
	EventClick                            // press then release over the same node
	EventDoubleClick                      // double click over a node
	eventTypeCount
)

var eventNames = [...]string{
	EventCursorEnterFrom: "CursorEnterFrom",
	EventCursorLeaveTo:   "CursorLeaveTo",
	EventHovering:        "Hovering",
	EventDragBegin:       "DragBegin",
	EventDragging:        "Dragging",
	EventDropping:        "Dropping",
	EventDropTo:          "DropTo",
	EventDragEnd:         "DragEnd",
	EventClick:           "Click",
	EventDoubleClick:     "DoubleClick",
}

func (e EventType) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "Unknown"
}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
	mouseButtonCount
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)
