// Package ecs provides ECS adapters for reel.
package ecs

import (
	"github.com/phanxgames/reel"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ButtonEventType is the Donburi event type for reel button events.
// Subscribe to this in your ECS systems to receive press, release and
// rollover events.
var ButtonEventType = events.NewEventType[reel.ButtonEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Button events are published to ButtonEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) reel.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event reel.ButtonEvent) {
	ButtonEventType.Publish(s.world, event)
}
