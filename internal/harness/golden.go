package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/iatromantis91/semiocore-v1/internal/emit"
)

// AssertGolden emits v through the canonical pipeline and compares the
// bytes against testdata/golden/<name>.golden. Run the package tests
// with -update to regenerate fixtures.
func AssertGolden(t *testing.T, name string, v any) {
	t.Helper()

	data, err := emit.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

// RunWithGolden executes a scenario, requires it to pass, and pins its
// trace against the golden file named after the scenario.
func RunWithGolden(t *testing.T, s *Scenario) {
	t.Helper()

	res, err := Run(s)
	if err != nil {
		t.Fatalf("scenario %s: %v", s.Name, err)
	}
	if !res.Pass {
		t.Fatalf("scenario %s failed: %v", s.Name, res.Errors)
	}
	if res.Trace == nil {
		t.Fatalf("scenario %s: error scenarios have no trace to pin", s.Name)
	}

	AssertGolden(t, s.Name, res.Trace)
}
