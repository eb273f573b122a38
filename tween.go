package arbor

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Tween is a component that animates up to four values of its node (or of a
// sibling component) with gween. Start values are read when the component is
// initialized. Once every channel finishes the tween calls OnComplete and
// removes itself from its node.
type Tween struct {
	ComponentBase

	// OnComplete, if set, runs once when the tween finishes.
	OnComplete func()

	duration float32
	easeFn   ease.TweenFunc
	to       [4]float64
	count    int
	get      func(n *Node) [4]float64
	set      func(n *Node, v [4]float64)

	tweens [4]*gween.Tween
	done   bool
}

func newTween(count int, to [4]float64, duration float32, fn ease.TweenFunc,
	get func(*Node) [4]float64, set func(*Node, [4]float64)) *Tween {
	if fn == nil {
		fn = ease.Linear
	}
	return &Tween{duration: duration, easeFn: fn, to: to, count: count, get: get, set: set}
}

// TweenPosition animates the node's local position.
func TweenPosition(toX, toY float64, duration float32, fn ease.TweenFunc) *Tween {
	return newTween(2, [4]float64{toX, toY}, duration, fn,
		func(n *Node) [4]float64 {
			x, y := n.Position()
			return [4]float64{x, y}
		},
		func(n *Node, v [4]float64) { n.SetPosition(v[0], v[1]) })
}

// TweenScale animates the node's scale.
func TweenScale(toSX, toSY float64, duration float32, fn ease.TweenFunc) *Tween {
	return newTween(2, [4]float64{toSX, toSY}, duration, fn,
		func(n *Node) [4]float64 {
			x, y := n.Scale()
			return [4]float64{x, y}
		},
		func(n *Node, v [4]float64) { n.SetScale(v[0], v[1]) })
}

// TweenRotation animates the node's rotation in radians.
func TweenRotation(to float64, duration float32, fn ease.TweenFunc) *Tween {
	return newTween(1, [4]float64{to}, duration, fn,
		func(n *Node) [4]float64 { return [4]float64{n.Rotation()} },
		func(n *Node, v [4]float64) { n.SetRotation(v[0]) })
}

// TweenTint animates the tint of q. The tween may live on any node.
func TweenTint(q *Quad, to Color, duration float32, fn ease.TweenFunc) *Tween {
	return newTween(4, [4]float64{to.R, to.G, to.B, to.A}, duration, fn,
		func(*Node) [4]float64 { return [4]float64{q.Tint.R, q.Tint.G, q.Tint.B, q.Tint.A} },
		func(_ *Node, v [4]float64) { q.Tint = Color{v[0], v[1], v[2], v[3]} })
}

// Done reports whether the tween has finished.
func (t *Tween) Done() bool { return t.done }

// OnInitial implements Initializer.
func (t *Tween) OnInitial() {
	from := t.get(t.Node())
	for i := 0; i < t.count; i++ {
		t.tweens[i] = gween.New(float32(from[i]), float32(t.to[i]), t.duration, t.easeFn)
	}
}

// OnUpdate implements Updater.
func (t *Tween) OnUpdate(dt float64) {
	n := t.Node()
	if t.done || n == nil {
		return
	}
	var vals [4]float64
	allDone := true
	for i := 0; i < t.count; i++ {
		v, finished := t.tweens[i].Update(float32(dt))
		vals[i] = float64(v)
		if !finished {
			allDone = false
		}
	}
	if allDone {
		// Land exactly on the targets rather than the last float32 step.
		vals = t.to
	}
	t.set(n, vals)
	if !allDone {
		return
	}
	t.done = true
	if t.OnComplete != nil {
		t.OnComplete()
	}
	n.RemoveComponent(t, ReleaseAuto)
}
