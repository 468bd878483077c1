// Package harness provides scenario-driven conformance testing for the
// sensing pipeline.
//
// Scenarios are YAML files pairing an inline program with a world and
// the expected observables:
//
//	name: bias_overwrite
//	description: "second add_bias replaces the first"
//	program: |
//	  context Add(0.5) >> Sign {
//	    tick 1.0
//	    s := sense ch_a
//	    do add_bias(0.2)
//	    do add_bias(-0.1)
//	    commit s
//	    out := summarize
//	  }
//	world:
//	  channels:
//	    ch_a: -0.3
//	expect:
//	  objs: [AFFIRM]
//	  summary:
//	    N: 1
//
// Error scenarios omit expect.objs/expect.summary and set
// expect.error_code to the runtime code the run must fail with.
//
// Every scenario executes deterministically: the engine has no ambient
// clock or entropy, so traces are stable across runs and can be pinned
// as golden files under testdata/golden.
package harness
