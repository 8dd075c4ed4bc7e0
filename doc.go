// Package reel is the timeline-execution core of an interactive multimedia
// runtime.
//
// A movie is a hierarchy of timelines. Each [Timeline] owns a depth-ordered
// [DisplayList] of [DisplayObject]s and a frame cursor; every frame is a list
// of [ControlTag]s that place, move and remove objects and queue scripted
// [Code]. The [Stage] is the root: it holds the levels, drives every live
// timeline once per tick, runs the prioritized action queue, fires timers
// and routes pointer and key input to button objects.
//
// # Quick start
//
// The core consumes an already parsed [Definition]. The movie subpackage
// loads one from YAML and the script subpackage compiles Lua frame actions:
//
//	stage := reel.NewStage(reel.Options{Logger: logger})
//	engine := script.NewEngine(stage, logger, script.Options{})
//	def, err := movie.Load("intro.yaml", engine)
//	if err != nil {
//		return err
//	}
//	stage.SetRootLevel(stage.NewMovie(def))
//
//	for {
//		stage.Advance()
//		stage.Display(renderer)
//	}
//
// # Depths
//
// Tag depths are shifted by [StaticDepthOffset] into the static zone
// [-16384, 0). Script-created objects live in the dynamic zone
// [0, [DynamicDepthMax]]. Objects removed while they still have an unload
// handler to run are parked below the static zone until the end of the tick.
//
// # Seeking
//
// [Timeline.GotoFrame] to a later frame executes the skipped frames for
// their display-list effects only. Seeking backwards rebuilds the display
// list: tag-placed objects that also exist at the target frame survive with
// their scripted state, everything else is removed and the frames up to the
// target are replayed.
//
// # Actions
//
// Scripted work is queued at four priorities ([PriorityInit],
// [PriorityConstruct], [PriorityEnterFrame], [PriorityDoAction]) and drained
// lowest first; an action queued at a lower level preempts the rest of the
// current one. Runaway scripts trip [ErrActionLimit], which disables scripts
// for the session while rendering continues.
//
// # Collection
//
// Display objects reference each other cyclically (parents, handlers,
// timers). The [Collector] owned by the stage traces from the stage roots and
// calls Destroy on everything that became unreachable.
package reel
