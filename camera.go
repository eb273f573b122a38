package arbor

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// MainCameraID is the id of the camera every scene is created with.
const MainCameraID = 0

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera is a component that views the scene from its node's world position.
// The node's world translation is the point shown at the viewport center.
type Camera struct {
	ComponentBase

	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect

	id          int
	order       int
	visibleMask uint32
	active      bool

	followTarget  *Node
	followOffsetX float64
	followOffsetY float64
	followLerp    float64

	boundsEnabled bool
	bounds        Rect

	viewMatrix    Matrix
	invViewMatrix Matrix
	aabb          Rect
	dirty         bool
	lastZoom      float64
	lastRotation  float64
	lastViewport  Rect

	visible []*Node

	scrollTween *scrollAnim
}

// newCamera creates a Camera with default values and the given viewport.
func newCamera(id int, viewport Rect) *Camera {
	return &Camera{
		Zoom:        1.0,
		Viewport:    viewport,
		id:          id,
		visibleMask: ^uint32(0),
		active:      true,
		dirty:       true,
	}
}

// ID returns the camera's immutable id. The main camera is always 0.
func (c *Camera) ID() int { return c.id }

// Order returns the camera's rendering order. Cameras render in ascending
// order, ties broken by id.
func (c *Camera) Order() int { return c.order }

// SetOrder changes the rendering order and marks the scene's camera list for
// re-sorting.
func (c *Camera) SetOrder(order int) {
	if c.order == order {
		return
	}
	c.order = order
	if n := c.Node(); n != nil && n.scene != nil {
		n.scene.camerasDirty = true
	}
}

// VisibleMask returns the bitmask matched against Node.VisibleMask.
func (c *Camera) VisibleMask() uint32 { return c.visibleMask }

// SetVisibleMask sets the bitmask matched against Node.VisibleMask.
func (c *Camera) SetVisibleMask(mask uint32) { c.visibleMask = mask }

// Active reports whether the camera renders and receives input.
func (c *Camera) Active() bool { return c.active }

// SetActive enables or disables the camera.
func (c *Camera) SetActive(active bool) { c.active = active }

// Visible returns the nodes found visible by the last culling pass, in paint
// order. The returned slice MUST NOT be mutated.
func (c *Camera) Visible() []*Node { return c.visible }

// Follow makes the camera track a target node with the given offset and lerp factor.
// A lerp of 1.0 snaps immediately; lower values give smoother following.
func (c *Camera) Follow(node *Node, offsetX, offsetY, lerp float64) {
	c.followTarget = node
	c.followOffsetX = offsetX
	c.followOffsetY = offsetY
	c.followLerp = lerp
}

// Unfollow stops tracking the current target node.
func (c *Camera) Unfollow() {
	c.followTarget = nil
}

// ScrollTo animates the camera to the given world position over duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	cx, cy := c.position()
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(cx), float32(x), duration, easeFn),
		tweenY: gween.New(float32(cy), float32(y), duration, easeFn),
	}
}

// SetBounds enables camera bounds clamping.
func (c *Camera) SetBounds(bounds Rect) {
	c.boundsEnabled = true
	c.bounds = bounds
}

// ClearBounds disables camera bounds clamping.
func (c *Camera) ClearBounds() {
	c.boundsEnabled = false
}

// position returns the world point the camera centers on.
func (c *Camera) position() (float64, float64) {
	n := c.Node()
	if n == nil {
		return 0, 0
	}
	m := n.WorldMatrix()
	return m[4], m[5]
}

// moveTo places the camera's world position at (x, y) by adjusting its
// node's local position.
func (c *Camera) moveTo(x, y float64) {
	n := c.Node()
	if n == nil {
		return
	}
	lx, ly := x, y
	if n.parent != nil {
		lx, ly = n.parent.WorldToLocal(x, y)
	}
	px, py := n.Position()
	if px != lx || py != ly {
		n.SetPosition(lx, ly)
	}
}

// OnUpdate advances follow, scroll, and bounds clamping.
func (c *Camera) OnUpdate(dt float64) {
	x, y := c.position()

	// Follow target
	if c.followTarget != nil {
		if c.followTarget.IsDestroyed() {
			c.followTarget = nil
		} else {
			m := c.followTarget.WorldMatrix()
			x += (m[4] + c.followOffsetX - x) * c.followLerp
			y += (m[5] + c.followOffsetY - y) * c.followLerp
		}
	}

	// Scroll animation
	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			val, done := c.scrollTween.tweenX.Update(float32(dt))
			x = float64(val)
			c.scrollTween.doneX = done
		}
		if !c.scrollTween.doneY {
			val, done := c.scrollTween.tweenY.Update(float32(dt))
			y = float64(val)
			c.scrollTween.doneY = done
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
	}

	if c.boundsEnabled {
		x, y = c.clamp(x, y)
	}
	c.moveTo(x, y)
}

// clamp restricts a camera position so the visible area stays within bounds.
func (c *Camera) clamp(x, y float64) (float64, float64) {
	halfW := c.Viewport.Width / (2 * c.Zoom)
	halfH := c.Viewport.Height / (2 * c.Zoom)

	minX := c.bounds.X + halfW
	maxX := c.bounds.X + c.bounds.Width - halfW
	minY := c.bounds.Y + halfH
	maxY := c.bounds.Y + c.bounds.Height - halfH

	// If bounds are smaller than visible area, center the camera.
	if minX > maxX {
		x = c.bounds.X + c.bounds.Width/2
	} else {
		x = math.Max(minX, math.Min(x, maxX))
	}
	if minY > maxY {
		y = c.bounds.Y + c.bounds.Height/2
	} else {
		y = math.Max(minY, math.Min(y, maxY))
	}
	return x, y
}

// ViewMatrix returns the cached world-to-screen matrix, recomputing it if the
// camera or its node changed.
//
// viewMatrix = Translate(cx, cy) * Scale(zoom) * Rotate(-rotation) * Translate(-X, -Y)
// where cx, cy = viewport center.
func (c *Camera) ViewMatrix() Matrix {
	if c.Zoom != c.lastZoom || c.Rotation != c.lastRotation || c.Viewport != c.lastViewport {
		c.dirty = true
	}
	if !c.dirty {
		return c.viewMatrix
	}
	c.dirty = false
	c.lastZoom, c.lastRotation, c.lastViewport = c.Zoom, c.Rotation, c.Viewport

	px, py := c.position()
	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2

	sin, cos := math.Sincos(-c.Rotation)
	z := c.Zoom

	a := z * cos
	b := -z * sin
	cc := z * sin
	d := z * cos
	tx := cx + z*(-cos*px+sin*py)
	ty := cy + z*(-sin*px-cos*py)

	c.viewMatrix = Matrix{a, cc, b, d, tx, ty}
	c.invViewMatrix = c.viewMatrix.Invert()
	c.aabb = c.invViewMatrix.TransformRect(c.Viewport)
	return c.viewMatrix
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return c.ViewMatrix().Apply(wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	c.ViewMatrix()
	return c.invViewMatrix.Apply(sx, sy)
}

// ContainsScreen reports whether the screen point lies inside the viewport.
func (c *Camera) ContainsScreen(sx, sy float64) bool {
	return c.Viewport.Contains(sx, sy)
}

// VisibleBounds returns the axis-aligned bounding rect of the camera's visible
// area in world space.
func (c *Camera) VisibleBounds() Rect {
	c.ViewMatrix()
	return c.aabb
}

// MarkDirty forces a recomputation of the view matrix.
func (c *Camera) MarkDirty() {
	c.dirty = true
}

// canSee reports whether n passes the camera's visibility test given its
// world bounds.
func (c *Camera) canSee(n *Node, bounds Rect) bool {
	if n.destroying || bounds.IsPoint() || !n.visibleInTree() {
		return false
	}
	if n.VisibleMask&c.visibleMask == 0 {
		return false
	}
	return bounds.Intersects(c.VisibleBounds())
}

// cameraLess orders cameras by rendering order, then id.
func cameraLess(a, b *Camera) bool {
	if a.order != b.order {
		return a.order < b.order
	}
	return a.id < b.id
}
