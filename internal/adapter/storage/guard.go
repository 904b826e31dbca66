package storage

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/semmidev/dumpship/internal/domain"
)

// guardedFile is the upload body handed to storage clients. Read failures
// that happen after the client call has returned cannot reach the caller
// through the return value, so they go to the fault hook instead.
type guardedFile struct {
	file     *os.File
	fault    domain.FaultFunc
	returned atomic.Bool
}

func openGuarded(path string, fault domain.FaultFunc) (*guardedFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return &guardedFile{file: file, fault: fault}, nil
}

func (g *guardedFile) Read(p []byte) (int, error) {
	n, err := g.file.Read(p)
	g.observe(err)
	return n, err
}

// ReadAt and Seek keep the s3 manager on its parallel part reader.
func (g *guardedFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := g.file.ReadAt(p, off)
	g.observe(err)
	return n, err
}

func (g *guardedFile) Seek(offset int64, whence int) (int64, error) {
	n, err := g.file.Seek(offset, whence)
	g.observe(err)
	return n, err
}

// settle marks the client call as returned and releases the file.
func (g *guardedFile) settle() {
	g.returned.Store(true)
	if err := g.file.Close(); err != nil {
		g.report(fmt.Errorf("close upload body: %w", err))
	}
}

func (g *guardedFile) observe(err error) {
	if err == nil || err == io.EOF || !g.returned.Load() {
		return
	}
	g.report(fmt.Errorf("read after upload returned: %w", err))
}

func (g *guardedFile) report(err error) {
	if g.fault != nil {
		g.fault(err)
	}
}
