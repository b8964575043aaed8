// Package task is the suspended-computation layer: the Task interface, the
// suspend point catalogue and the combinators that compose them.
//
// A Task is polled with a tick's *world.Access until it returns a Poll that
// is ready, either with a value or with an error. Failure is terminal for
// the branch that produced it and propagates through every combinator.
// A task that has become ready is never polled again.
//
// Cancel drops a task and everything beneath it. Cancelling cancels owned
// effect handles but does not roll back side effects already committed to
// the world.
//
//	t := task.Then(task.Delay(time.Second), func(struct{}) task.Task[world.Event] {
//		return task.Event("jump")
//	})
package task
