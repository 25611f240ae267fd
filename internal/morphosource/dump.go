package morphosource

import (
	"os"
	"path/filepath"
)

// DumpSink persists raw registry responses for troubleshooting. Implementations
// must be safe to fail: the client logs and ignores dump errors.
type DumpSink interface {
	Dump(name string, payload []byte) error
}

// DirSink writes dump files into a directory, creating it on first use.
type DirSink struct {
	Dir string
}

// Dump writes the payload to a file under the sink directory.
func (s DirSink) Dump(name string, payload []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Dir, name), payload, 0o644)
}
