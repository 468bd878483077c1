package harness

import (
	"fmt"

	"github.com/iatromantis91/semiocore-v1/internal/engine"
	"github.com/iatromantis91/semiocore-v1/internal/parser"
	"github.com/iatromantis91/semiocore-v1/internal/world"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates every expectation matched.
	Pass bool

	// Errors lists expectation mismatches. Empty when Pass is true.
	Errors []string

	// Trace is the run output, nil when the run failed. Used for golden
	// comparison alongside the expectation checks.
	Trace *engine.Trace
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario and checks its expectations. The returned
// error covers harness-level problems (unparseable program, malformed
// world); expectation mismatches land in Result.Errors instead.
func Run(s *Scenario) (*Result, error) {
	prog, err := parser.Parse(s.Program, s.Name+".semio")
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	w, err := world.FromDoc(s.World)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	res := &Result{Pass: true}

	tr, runErr := engine.Run(prog, w, s.Name+".semio")

	if s.Expect.ErrorCode != "" {
		if runErr == nil {
			res.addError("expected error %s, run succeeded", s.Expect.ErrorCode)
			return res, nil
		}
		if code := string(engine.ErrorCode(runErr)); code != s.Expect.ErrorCode {
			res.addError("expected error %s, got %s (%v)", s.Expect.ErrorCode, code, runErr)
		}
		return res, nil
	}

	if runErr != nil {
		res.addError("run failed: %v", runErr)
		return res, nil
	}
	res.Trace = tr

	if len(s.Expect.Objs) > 0 {
		if len(tr.Events) != len(s.Expect.Objs) {
			res.addError("expected %d commits, got %d", len(s.Expect.Objs), len(tr.Events))
		} else {
			for i, want := range s.Expect.Objs {
				if got := tr.Events[i].Obj; got != want {
					res.addError("commit %d: expected obj %s, got %s", i+1, want, got)
				}
			}
		}
	}

	for field, want := range s.Expect.Summary {
		var got float64
		switch field {
		case "N":
			got = float64(tr.Summary.N)
		case "deltaT":
			got = tr.Summary.DeltaT
		case "rho":
			got = tr.Summary.Rho
		case "kappa":
			got = tr.Summary.Kappa
		}
		if got != want {
			res.addError("summary.%s: expected %v, got %v", field, want, got)
		}
	}

	return res, nil
}
