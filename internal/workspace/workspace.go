package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"media-processor/internal/logging"

	"github.com/google/uuid"
)

// DefaultOutputFormat is the container format used when the caller does
// not declare one and the input filename carries no usable extension.
const DefaultOutputFormat = "mp4"

// maxExtensionLen caps sanitized extensions so a hostile filename cannot
// produce an absurd staged path.
const maxExtensionLen = 10

// Manager allocates and verifies workspaces under a single root directory.
type Manager struct {
	root string
}

// NewManager creates a Manager rooted at the given directory. The root is
// created if missing and verified writable; a failure here means the
// service cannot process anything at all.
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root %s: %w", root, err)
	}

	probe := filepath.Join(root, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0o644); err != nil {
		return nil, fmt.Errorf("workspace root %s is not writable: %w", root, err)
	}
	if err := os.Remove(probe); err != nil {
		logging.Warn("failed to remove write probe %s: %v", probe, err)
	}

	return &Manager{root: root}, nil
}

// Root returns the base directory workspaces are allocated under.
func (m *Manager) Root() string {
	return m.root
}

// Acquire creates a fresh, uniquely named workspace directory.
func (m *Manager) Acquire() (*Workspace, error) {
	dir := filepath.Join(m.root, uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	logging.Debug("acquired workspace %s", dir)
	return &Workspace{dir: dir}, nil
}

// StagedInput is an uploaded file persisted inside a workspace. Ordinal
// is the 0-based upload position; the command layer references inputs in
// this order.
type StagedInput struct {
	Ordinal int
	Name    string
	Path    string
	Size    int64
}

// Workspace is one request's private directory. It is not safe for
// concurrent use; each request owns exactly one.
type Workspace struct {
	dir        string
	inputs     []StagedInput
	releaseErr error
	release    sync.Once
}

// Dir returns the workspace directory path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Inputs returns the staged inputs in ordinal order.
func (w *Workspace) Inputs() []StagedInput {
	return w.inputs
}

// InputPaths returns the on-disk paths of all staged inputs in ordinal order.
func (w *Workspace) InputPaths() []string {
	paths := make([]string, len(w.inputs))
	for i, in := range w.inputs {
		paths[i] = in.Path
	}
	return paths
}

// Stage writes the contents of r to a deterministic path inside the
// workspace, named from the ordinal and the sanitized extension of the
// original filename. Inputs must be staged in ordinal order.
func (w *Workspace) Stage(ordinal int, filename string, r io.Reader) (StagedInput, error) {
	name := fmt.Sprintf("input_%d%s", ordinal, SanitizeExtension(filename))
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return StagedInput{}, fmt.Errorf("stage input %d: %w", ordinal, err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return StagedInput{}, fmt.Errorf("stage input %d: %w", ordinal, err)
	}

	in := StagedInput{Ordinal: ordinal, Name: name, Path: path, Size: size}
	w.inputs = append(w.inputs, in)
	logging.Debug("staged input %d (%d bytes) at %s", ordinal, size, path)
	return in, nil
}

// OutputPath returns the path the output artifact should be written to,
// with an extension derived from the declared format. An empty format
// falls back to DefaultOutputFormat.
func (w *Workspace) OutputPath(format string) string {
	ext := sanitizeFormat(format)
	if ext == "" {
		ext = DefaultOutputFormat
	}
	return filepath.Join(w.dir, "output."+ext)
}

// Release recursively removes the workspace directory. It is idempotent;
// only the first call does any work. Release must run for every acquired
// workspace regardless of how the request ends.
func (w *Workspace) Release() error {
	w.release.Do(func() {
		w.releaseErr = os.RemoveAll(w.dir)
		if w.releaseErr != nil {
			logging.Warn("failed to release workspace %s: %v", w.dir, w.releaseErr)
		} else {
			logging.Debug("released workspace %s", w.dir)
		}
	})
	return w.releaseErr
}

// SanitizeExtension extracts a safe file extension (including the leading
// dot) from a possibly hostile filename. Anything but ASCII letters and
// digits is dropped; overly long extensions are discarded entirely.
func SanitizeExtension(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		// No extension, or a dotfile whose whole name is the "extension".
		return ""
	}

	var b strings.Builder
	for _, r := range strings.TrimPrefix(ext, ".") {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}

	if b.Len() == 0 || b.Len() > maxExtensionLen {
		return ""
	}
	return "." + b.String()
}

// sanitizeFormat normalizes a caller-declared output format ("mp4",
// ".mp4", "MP4") to a bare lowercase extension, or "" when unusable.
func sanitizeFormat(format string) string {
	clean := SanitizeExtension("x." + strings.TrimPrefix(strings.TrimSpace(format), "."))
	return strings.TrimPrefix(clean, ".")
}
