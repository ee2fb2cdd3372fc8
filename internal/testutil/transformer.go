package testutil

import (
	"fmt"

	"pgs-go/internal/pgs"
)

// ExportCall records one Export invocation on a FakeTransformer.
type ExportCall struct {
	SourcePath string
	DestPath   string
	Opts       pgs.ExportOptions
}

// FakeTransformer is an in-memory pgs.Transformer. Checksums maps source
// paths to the checksum Checksum returns; sources absent from the map fail.
// FailOn marks source paths whose Export should fail.
type FakeTransformer struct {
	Checksums map[string]string
	FailOn    map[string]bool
	Exports   []ExportCall
}

var _ pgs.Transformer = (*FakeTransformer)(nil)

// NewFakeTransformer creates a FakeTransformer with the given source
// checksums.
func NewFakeTransformer(checksums map[string]string) *FakeTransformer {
	if checksums == nil {
		checksums = make(map[string]string)
	}
	return &FakeTransformer{
		Checksums: checksums,
		FailOn:    make(map[string]bool),
	}
}

func (t *FakeTransformer) Export(sourcePath, destPath string, opts pgs.ExportOptions) (string, error) {
	if t.FailOn[sourcePath] {
		return "", &pgs.ExportError{Source: sourcePath, Err: fmt.Errorf("simulated export failure")}
	}
	checksum, ok := t.Checksums[sourcePath]
	if !ok {
		return "", &pgs.ExportError{Source: sourcePath, Err: fmt.Errorf("unknown source")}
	}
	t.Exports = append(t.Exports, ExportCall{SourcePath: sourcePath, DestPath: destPath, Opts: opts})
	return "out-" + checksum, nil
}

func (t *FakeTransformer) Checksum(path string) (string, error) {
	if t.FailOn[path] {
		return "", &pgs.ExportError{Source: path, Err: fmt.Errorf("simulated checksum failure")}
	}
	checksum, ok := t.Checksums[path]
	if !ok {
		return "", &pgs.ExportError{Source: path, Err: fmt.Errorf("unknown source")}
	}
	return checksum, nil
}

// ExportCount returns the number of Export calls for the given source path.
func (t *FakeTransformer) ExportCount(sourcePath string) int {
	n := 0
	for _, call := range t.Exports {
		if call.SourcePath == sourcePath {
			n++
		}
	}
	return n
}
