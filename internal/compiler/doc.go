// Package compiler turns CUE plan files into ir.Plan values.
//
// A plan file declares plans under the top-level "plan" struct:
//
//	plan: pickup: {
//		description: "wait, then react to input"
//		steps: [
//			{delay: "500ms"},
//			{race: [[{event: "jump"}], [{frames: 10}]]},
//			{set: {var: "score", value: 10}},
//		]
//	}
//
// Every step is a struct with exactly one key naming its kind. Compile
// errors carry the CUE source position; Validate re-checks a compiled plan
// and reports every problem it finds.
package compiler
