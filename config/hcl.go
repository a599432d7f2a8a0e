package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

type hclFile struct {
	Output    *hclOutput    `hcl:"output,block"`
	Lint      *hclLint      `hcl:"lint,block"`
	Logging   *hclLogging   `hcl:"logging,block"`
	Telemetry *hclTelemetry `hcl:"telemetry,block"`
	Watch     *hclWatch     `hcl:"watch,block"`
}

type hclOutput struct {
	Path     *string   `hcl:"path,optional"`
	Prefix   *string   `hcl:"prefix,optional"`
	Header   *string   `hcl:"header,optional"`
	Includes *[]string `hcl:"includes,optional"`
}

type hclLint struct {
	Strict   *bool     `hcl:"strict,optional"`
	Disabled *[]string `hcl:"disabled,optional"`
}

type hclLogging struct {
	Level  *string  `hcl:"level,optional"`
	Format *string  `hcl:"format,optional"`
	Loki   *hclLoki `hcl:"loki,block"`
}

type hclLoki struct {
	Enabled *bool             `hcl:"enabled,optional"`
	URL     *string           `hcl:"url,optional"`
	Labels  map[string]string `hcl:"labels,optional"`
}

type hclTelemetry struct {
	Enabled  *bool   `hcl:"enabled,optional"`
	Textfile *string `hcl:"textfile,optional"`
}

type hclWatch struct {
	Enabled  *bool   `hcl:"enabled,optional"`
	Interval *string `hcl:"interval,optional"`
}

// decodeHCL applies an HCL configuration file on top of cfg. Expressions
// can read the process environment through the env map, for example
// path = "${env.BUILD_DIR}/step.c".
func decodeHCL(path string, raw []byte, cfg *Config) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(raw, path)
	if diags.HasErrors() {
		return fmt.Errorf("parse HCL config %s: %s", path, diags.Error())
	}

	var decoded hclFile
	diags = gohcl.DecodeBody(file.Body, evalContext(os.Environ()), &decoded)
	if diags.HasErrors() {
		return fmt.Errorf("decode HCL config %s: %s", path, diags.Error())
	}
	return decoded.apply(cfg)
}

func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	env := cty.MapValEmpty(cty.String)
	if len(vars) > 0 {
		env = cty.MapVal(vars)
	}
	return &hcl.EvalContext{Variables: map[string]cty.Value{"env": env}}
}

func (f hclFile) apply(cfg *Config) error {
	if o := f.Output; o != nil {
		setString(&cfg.Output.Path, o.Path)
		setString(&cfg.Output.Prefix, o.Prefix)
		setString(&cfg.Output.Header, o.Header)
		if o.Includes != nil {
			cfg.Output.Includes = append([]string{}, (*o.Includes)...)
		}
	}
	if l := f.Lint; l != nil {
		setBool(&cfg.Lint.Strict, l.Strict)
		if l.Disabled != nil {
			cfg.Lint.Disabled = append([]string{}, (*l.Disabled)...)
		}
	}
	if l := f.Logging; l != nil {
		setString(&cfg.Logging.Level, l.Level)
		setString(&cfg.Logging.Format, l.Format)
		if loki := l.Loki; loki != nil {
			setBool(&cfg.Logging.Loki.Enabled, loki.Enabled)
			setString(&cfg.Logging.Loki.URL, loki.URL)
			if loki.Labels != nil {
				cfg.Logging.Loki.Labels = loki.Labels
			}
		}
	}
	if t := f.Telemetry; t != nil {
		setBool(&cfg.Telemetry.Enabled, t.Enabled)
		setString(&cfg.Telemetry.Textfile, t.Textfile)
	}
	if w := f.Watch; w != nil {
		setBool(&cfg.Watch.Enabled, w.Enabled)
		if w.Interval != nil {
			dur, err := time.ParseDuration(*w.Interval)
			if err != nil {
				return fmt.Errorf("parse duration %q: %w", *w.Interval, err)
			}
			cfg.Watch.Interval = Duration{Duration: dur}
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
