package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "stepgen.yaml", `output:
  path: controller.c
  prefix: ctl
lint:
  strict: true
  disabled:
    - inport.unused
logging:
  level: debug
watch:
  enabled: true
  interval: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "controller.c", cfg.Output.Path)
	require.Equal(t, "ctl", cfg.Output.Prefix)
	require.Equal(t, []string{"math.h"}, cfg.Output.Includes)
	require.True(t, cfg.Lint.Strict)
	require.True(t, cfg.LintDisabled("inport.unused"))
	require.False(t, cfg.LintDisabled("name.collision"))
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
	require.True(t, cfg.Watch.Enabled)
	require.Equal(t, 250*time.Millisecond, cfg.WatchInterval())
	require.Equal(t, []string{path}, SourceFiles(cfg))
}

func TestLoadCUE(t *testing.T) {
	path := writeFile(t, "stepgen.cue", `package stepgen

config: {
    output: {
        prefix: "plant"
        includes: []
    }
    logging: {
        level: "warn"
        format: "json"
    }
    telemetry: {
        enabled: true
        textfile: "/tmp/stepgen.prom"
    }
    watch: interval: "2s"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "plant", cfg.Output.Prefix)
	require.Empty(t, cfg.Output.Includes)
	require.Equal(t, DefaultOutputPath, cfg.Output.Path)
	require.Equal(t, "json", cfg.Logging.Format)
	require.True(t, cfg.Telemetry.Enabled)
	require.Equal(t, "/tmp/stepgen.prom", cfg.Telemetry.Textfile)
	require.Equal(t, 2*time.Second, cfg.WatchInterval())
}

func TestLoadCUERejectsSchemaViolation(t *testing.T) {
	path := writeFile(t, "bad.cue", `output: prefix: "9lives"
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadCUERejectsUnknownField(t *testing.T) {
	path := writeFile(t, "bad.cue", `outputs: path: "x.c"
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsInvalidPrefix(t *testing.T) {
	path := writeFile(t, "bad.yaml", `output:
  prefix: "my-prefix"
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "output prefix")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeFile(t, "bad.yaml", `watch:
  interval: soon
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	_, err = Load("")
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, time.Second, cfg.WatchInterval())
	require.Nil(t, SourceFiles(cfg))
}

func TestLoadHCL(t *testing.T) {
	t.Setenv("STEPGEN_BUILD_DIR", "/tmp/build")
	path := writeFile(t, "stepgen.hcl", `output {
  path     = "${env.STEPGEN_BUILD_DIR}/step.c"
  prefix   = "pump"
  includes = ["math.h", "stdint.h"]
}

lint {
  disabled = ["sum.signs"]
}

logging {
  level = "debug"
  loki {
    enabled = false
    labels  = { app = "pump" }
  }
}

watch {
  enabled  = true
  interval = "750ms"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/build/step.c", cfg.Output.Path)
	require.Equal(t, "pump", cfg.Output.Prefix)
	require.Equal(t, []string{"math.h", "stdint.h"}, cfg.Output.Includes)
	require.True(t, cfg.LintDisabled("sum.signs"))
	require.False(t, cfg.Lint.Strict)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
	require.Equal(t, map[string]string{"app": "pump"}, cfg.Logging.Loki.Labels)
	require.True(t, cfg.Watch.Enabled)
	require.Equal(t, 750*time.Millisecond, cfg.WatchInterval())
}

func TestLoadHCLErrors(t *testing.T) {
	cases := map[string]string{
		"syntax":   "output {\n",
		"unknown":  "outputs {\n  path = \"x.c\"\n}\n",
		"duration": "watch {\n  interval = \"soon\"\n}\n",
		"prefix":   "output {\n  prefix = \"9lives\"\n}\n",
		"env":      "output {\n  path = env.STEPGEN_SURELY_UNSET_VARIABLE\n}\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "bad.hcl", content))
			require.Error(t, err)
		})
	}
}
