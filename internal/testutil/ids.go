package testutil

import "fmt"

// SequentialIDs returns prefix-1 .. prefix-n. Feed them to
// engine.NewFixedGenerator so golden outputs carry stable reactor IDs.
//
// If prefix is empty, "test-reactor" is used.
func SequentialIDs(prefix string, n int) []string {
	if prefix == "" {
		prefix = "test-reactor"
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}
	return ids
}
