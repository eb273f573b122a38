// Package ecs bridges arbor scenes into a [Donburi] world.
//
// [NewDonburiStore] publishes arbor interaction events (hover, drag, drop,
// click) as typed Donburi events; subscribe to [InteractionEventType] in
// your ECS systems to receive them. [Binder] gives scene nodes a matching
// entity carrying a [NodeComponent] so systems can reach back to the node.
//
// Usage:
//
//	binder := ecs.NewBinder(world)
//	binder.Bind(node)
//	scene.SetEntityStore(ecs.NewDonburiStore(world))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
