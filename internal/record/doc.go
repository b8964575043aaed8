// Package record is an undo/redo log of reversible actions performed by
// tasks.
//
// A Stack holds entries and a cursor. Entries before the cursor can be
// undone; entries at or after it can be redone. Pushing a new entry discards
// everything after the cursor. Every operation takes the tick's Access, so
// undo and redo always run inside a tick.
//
// A Stack can mirror its changes to a Journal (see internal/store), which
// keeps what was done and where the cursor stands across restarts. The undo
// and redo functions themselves live only in memory.
package record
