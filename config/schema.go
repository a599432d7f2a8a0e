package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

const schemaContent = `#Config: {
    output?: {
        path?: string
        prefix?: =~"^[A-Za-z_][A-Za-z0-9_]*$"
        header?: string
        includes?: [...string]
    }
    lint?: {
        strict?: bool
        disabled?: [...string]
    }
    logging?: {
        level?: "trace" | "debug" | "info" | "warn" | "error" | "fatal" | "panic" | "disabled"
        format?: "text" | "json"
        loki?: {
            enabled?: bool
            url?: string
            labels?: {[string]: string}
        }
    }
    telemetry?: {
        enabled?: bool
        textfile?: string
    }
    watch?: {
        enabled?: bool
        interval?: string
    }
}
`

// evaluateCUE unifies a CUE configuration with the schema and returns it as
// JSON. A top-level "config" field is used when present, otherwise the whole
// file is treated as the configuration.
func evaluateCUE(path string, raw []byte) ([]byte, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaContent, cue.Filename("stepgen-schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := ctx.CompileBytes(raw, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile cue config: %w", err)
	}
	if nested := value.LookupPath(cue.ParsePath("config")); nested.Exists() {
		value = nested
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate cue config: %w", err)
	}
	out, err := unified.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export cue config: %w", err)
	}
	return out, nil
}
