// Package ecs provides ECS adapters for reel's button event stream.
//
// The primary adapter is [NewDonburiSink], which bridges reel button events
// (press, release, roll over, drag out, ...) into a [Donburi] world as typed
// events. Subscribe to [ButtonEventType] in your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	stage.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
