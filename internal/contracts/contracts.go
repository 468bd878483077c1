// Package contracts validates collaborator documents (worlds, manifests)
// against embedded CUE schemas before they are decoded.
//
// Validation happens on the raw decoded document, not on Go structs, so
// a malformed file fails with a schema position rather than a zero-value
// surprise deep inside the engine.
package contracts

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

const schemaSrc = `
#World: {
	schema?: string
	channels: [string]: number | {...}
	...
}

#Manifest: {
	schema:       "semiocore.manifest.v1"
	program_file: string
	world_file:   string
	seed?:        int | null
	protocol?:    string
	rng?: {
		type:   "LCG32"
		a:      int
		c:      int
		m:      int
		state0: int
	} | null
	...
}
`

var (
	compileOnce sync.Once
	compiled    cue.Value
	compileErr  error
)

func schema() (cue.Value, error) {
	compileOnce.Do(func() {
		ctx := cuecontext.New()
		compiled = ctx.CompileString(schemaSrc)
		if err := compiled.Err(); err != nil {
			compileErr = fmt.Errorf("compile contract schemas: %w", err)
		}
	})
	return compiled, compileErr
}

// validate unifies doc against the named schema definition.
func validate(defName string, doc map[string]any) error {
	root, err := schema()
	if err != nil {
		return err
	}
	def := root.LookupPath(cue.ParsePath(defName))
	if defErr := def.Err(); defErr != nil {
		return fmt.Errorf("lookup %s: %w", defName, defErr)
	}

	val := def.Context().Encode(doc)
	if encErr := val.Err(); encErr != nil {
		return fmt.Errorf("encode document: %w", encErr)
	}

	unified := def.Unify(val)
	// Concrete: required schema fields left unfilled by the document are
	// incomplete values and must fail, not pass as bare constraints.
	if vErr := unified.Validate(cue.Concrete(true)); vErr != nil {
		return fmt.Errorf("%s contract violation: %s", defName, errors.Details(vErr, nil))
	}
	return nil
}

// ValidateWorld checks a decoded world document: a channels object whose
// values are numbers or wrapped-numeric descriptors.
func ValidateWorld(doc map[string]any) error {
	if _, ok := doc["channels"]; !ok {
		return fmt.Errorf("#World contract violation: missing 'channels' object")
	}
	return validate("#World", doc)
}

// ValidateManifest checks a decoded run manifest document.
func ValidateManifest(doc map[string]any) error {
	return validate("#Manifest", doc)
}
