package ecs

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/phanxgames/arbor"
)

// InteractionEventType is the Donburi event type for arbor interaction events.
var InteractionEventType = events.NewEventType[arbor.InteractionEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Events are queued on InteractionEventType and delivered by ProcessEvents.
func NewDonburiStore(world donburi.World) arbor.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event arbor.InteractionEvent) {
	InteractionEventType.Publish(s.world, event)
}

// NodeData links an entity to its scene node.
type NodeData struct {
	Node *arbor.Node
}

// NodeComponent is attached to every entity created by a Binder.
var NodeComponent = donburi.NewComponentType[NodeData]()

// Binder creates one entity per bound node and stores its id in
// Node.EntityID, so interaction events can be routed to the entity.
type Binder struct {
	world    donburi.World
	next     uint32
	entities map[uint32]donburi.Entity
}

// NewBinder creates a binder for world.
func NewBinder(world donburi.World) *Binder {
	return &Binder{world: world, entities: make(map[uint32]donburi.Entity)}
}

// Bind returns the entity of n, creating it on first use.
func (b *Binder) Bind(n *arbor.Node) donburi.Entity {
	if e, ok := b.entities[n.EntityID]; ok && b.world.Valid(e) {
		return e
	}
	e := b.world.Create(NodeComponent)
	NodeComponent.SetValue(b.world.Entry(e), NodeData{Node: n})
	b.next++
	n.EntityID = b.next
	b.entities[b.next] = e
	return e
}

// Unbind removes the entity of n and clears n.EntityID.
func (b *Binder) Unbind(n *arbor.Node) {
	e, ok := b.entities[n.EntityID]
	if !ok {
		return
	}
	delete(b.entities, n.EntityID)
	if b.world.Valid(e) {
		b.world.Remove(e)
	}
	n.EntityID = 0
}

// Entity returns the entity bound to an EntityID.
func (b *Binder) Entity(id uint32) (donburi.Entity, bool) {
	e, ok := b.entities[id]
	if !ok || !b.world.Valid(e) {
		return 0, false
	}
	return e, true
}

// Node returns the node bound to an EntityID, or nil.
func (b *Binder) Node(id uint32) *arbor.Node {
	e, ok := b.Entity(id)
	if !ok {
		return nil
	}
	return NodeComponent.Get(b.world.Entry(e)).Node
}

// Prune unbinds every node that has been destroyed. Returns the number of
// entities removed.
func (b *Binder) Prune() int {
	removed := 0
	for id, e := range b.entities {
		if !b.world.Valid(e) {
			delete(b.entities, id)
			continue
		}
		data := NodeComponent.Get(b.world.Entry(e))
		if data.Node == nil || data.Node.IsDestroyed() {
			delete(b.entities, id)
			b.world.Remove(e)
			removed++
		}
	}
	return removed
}
