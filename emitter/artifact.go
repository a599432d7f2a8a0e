package emitter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Artifact is an ordered list of generated source lines.
type Artifact struct {
	lines []string
}

// Append adds lines to the end of the artifact.
func (a *Artifact) Append(lines ...string) {
	a.lines = append(a.lines, lines...)
}

// Lines returns a copy of the generated lines.
func (a *Artifact) Lines() []string {
	out := make([]string, len(a.lines))
	copy(out, a.lines)
	return out
}

// Len is the number of lines.
func (a *Artifact) Len() int { return len(a.lines) }

// WriteTo writes every line followed by a newline.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, line := range a.lines {
		n, err := bw.WriteString(line)
		total += int64(n)
		if err != nil {
			return total, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return total, err
		}
		total++
	}
	return total, bw.Flush()
}

// WriteFile persists the artifact. The content is written to a temporary file
// in the target directory and renamed into place, so a failed write never
// leaves a truncated artifact behind.
func (a *Artifact) WriteFile(path string) (err error) {
	if path == "" {
		return fmt.Errorf("output path must not be empty")
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = a.WriteTo(tmp); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
