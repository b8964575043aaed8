// Package ir holds the value and record types shared by the plan compiler,
// the store and the scenario harness.
//
// ir imports nothing internal. Values are a sealed set (null, string, int,
// bool, array, object); floats are rejected everywhere so that canonical
// encodings and content-addressed IDs stay deterministic.
package ir
