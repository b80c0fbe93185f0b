// Package local is the filesystem backend of the artifact store.
package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tabweave/tabweave/pkg/artifact"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
)

const (
	runsDir       = "runs"
	runRecordName = "run.json"
)

type store struct {
	root string
}

var _ artifact.Store = &store{}

// New opens an artifact store rooted at root.
//
// Run directories live under <root>/runs/<runId>/.
func New(root string) (artifact.Store, error) {
	if err := os.MkdirAll(filepath.Join(root, runsDir), 0o755); err != nil {
		return nil, err
	}
	return &store{root: root}, nil
}

// RunsRoot returns the directory holding run directories under root.
//
// Watch it (pkg/utils/filewatch) to notice new or updated runs.
func RunsRoot(root string) string {
	return filepath.Join(root, runsDir)
}

func (s *store) runDir(runId string) string {
	return filepath.Join(s.root, runsDir, runId)
}

func (s *store) Write(_ context.Context, runId string, stage string, r io.Reader) (string, error) {
	path := filepath.Join(s.runDir(runId), filepath.FromSlash(stage))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	// O_EXCL keeps writes within a run append-only.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", kerr.Of(kerr.ErrStageConflict, "%s of run %s", stage, runId)
		}
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return path, nil
}

func (s *store) Read(_ context.Context, runId string, stage string) (io.ReadCloser, error) {
	path := filepath.Join(s.runDir(runId), filepath.FromSlash(stage))
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, kerr.Of(kerr.ErrArtifactNotFound, "%s of run %s", stage, runId)
		}
		return nil, err
	}
	return f, nil
}

func (s *store) PutRecord(_ context.Context, runId string, r io.Reader) error {
	dir := s.runDir(runId)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// write-then-rename keeps concurrent readers off half-written records
	tmp, err := os.CreateTemp(dir, "."+runRecordName+".*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, runRecordName))
}

func (s *store) GetRecord(_ context.Context, runId string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.runDir(runId), runRecordName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, kerr.Of(kerr.ErrMissing, "run %s", runId)
		}
		return nil, err
	}
	return f, nil
}

func (s *store) Runs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, runsDir))
	if err != nil {
		return nil, err
	}

	runIds := []string{}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		runIds = append(runIds, e.Name())
	}
	sort.Strings(runIds)
	return runIds, nil
}
