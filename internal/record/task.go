package record

import (
	"github.com/roach88/tickflow/internal/task"
	"github.com/roach88/tickflow/internal/world"
)

// PushTask pushes e onto s when polled. A push rejected by the stack fails
// the task.
func PushTask(s *Stack, e Entry) task.Task[struct{}] {
	return task.OnceErr(func(a *world.Access) (struct{}, error) {
		return struct{}{}, s.Push(a, e)
	})
}

// DoTask applies e and pushes it.
func DoTask(s *Stack, e Entry) task.Task[struct{}] {
	return task.OnceErr(func(a *world.Access) (struct{}, error) {
		return struct{}{}, s.Do(a, e)
	})
}

// UndoTask undoes one entry. Its value reports whether anything was undone.
func UndoTask(s *Stack) task.Task[bool] {
	return task.OnceErr(s.Undo)
}

// RedoTask redoes one entry. Its value reports whether anything was redone.
func RedoTask(s *Stack) task.Task[bool] {
	return task.OnceErr(s.Redo)
}
