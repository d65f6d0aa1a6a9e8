// Package script defines the contract between the bridge and a scripting
// program.
//
// A Loader turns a Source into a Program bound to a Host. The Program calls
// the Host to flush batches, make blocking module calls and log; the bridge
// calls the Program to start it, deliver events and resolutions, and tear it
// down before a reload. Every Program method runs on the script queue.
package script

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/wippyai/native-bridge/errors"
)

// Host is the bridge side of a running program.
type Host interface {
	// Flush hands one encoded batch to the bridge.
	Flush(payload []byte)
	// InvokeSync runs a blocking module call and returns the encoded response.
	InvokeSync(payload []byte) []byte
	// Log records a message from the program.
	Log(level int32, msg string)
}

// Program is a loaded scripting program. Implementations are not safe for
// concurrent use.
type Program interface {
	// Start runs the program's entry point, which normally flushes the
	// first batch.
	Start(ctx context.Context) error
	// DispatchEvent delivers an encoded event or global event.
	DispatchEvent(ctx context.Context, msg []byte) error
	// ResolveCallback delivers an encoded module resolution.
	ResolveCallback(ctx context.Context, msg []byte) error
	// Teardown asks the program to cancel its timers and listeners.
	Teardown(ctx context.Context) error
	// Close releases the program's resources.
	Close(ctx context.Context) error
}

// Loader creates programs.
type Loader interface {
	Load(ctx context.Context, src Source, host Host) (Program, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, src Source, host Host) (Program, error)

func (f LoaderFunc) Load(ctx context.Context, src Source, host Host) (Program, error) {
	return f(ctx, src, host)
}

// Source is the code of a program.
type Source struct {
	Name  string
	Path  string
	Bytes []byte
}

// ReadFile loads a source from disk.
func ReadFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, errors.Load("read program "+path, err)
	}
	if len(data) == 0 {
		return Source{}, errors.Load("program "+path+" is empty", nil)
	}
	return Source{Name: filepath.Base(path), Path: path, Bytes: data}, nil
}

// Digest returns a short content hash used to tell program versions apart in logs.
func (s Source) Digest() string {
	sum := sha256.Sum256(s.Bytes)
	return hex.EncodeToString(sum[:6])
}

// Reread returns the source reloaded from its path. Sources without a path
// are returned unchanged.
func (s Source) Reread() (Source, error) {
	if s.Path == "" {
		return s, nil
	}
	return ReadFile(s.Path)
}
