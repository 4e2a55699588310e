package forecasting

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	checkpointEntry   = "ssa.msgpack"
	checkpointVersion = 1
)

type snapshot struct {
	Version  int       `msgpack:"version"`
	Options  Options   `msgpack:"options"`
	Rank     int       `msgpack:"rank"`
	Singular []float64 `msgpack:"singular"`
	Coeffs   []float64 `msgpack:"coeffs"`
	Psi      []float64 `msgpack:"psi"`
	Sigma    float64   `msgpack:"sigma"`
	Z        float64   `msgpack:"z"`
	Buffer   []float64 `msgpack:"buffer"`
	Through  time.Time `msgpack:"through"`
}

// Checkpoint writes the fitted parameters and the current recursion buffer to
// path. The file is written next to path and renamed into place.
func (e *Engine) Checkpoint(path string) error {
	e.mu.Lock()
	if e.model == nil {
		e.mu.Unlock()
		return ErrNotFitted
	}
	m := e.model
	snap := snapshot{
		Version:  checkpointVersion,
		Options:  m.opts,
		Rank:     m.rank,
		Singular: m.singular,
		Coeffs:   m.coeffs,
		Psi:      m.psi,
		Sigma:    m.sigma,
		Z:        m.z,
		Buffer:   append([]float64(nil), e.buf...),
		Through:  m.through,
	}
	e.mu.Unlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	zw := zip.NewWriter(tmp)
	w, err := zw.Create(checkpointEntry)
	if err != nil {
		_ = tmp.Close()
		return err
	}
	if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadCheckpoint restores an engine written by Checkpoint.
func LoadCheckpoint(path string) (*Engine, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()

	var snap snapshot
	found := false
	for _, f := range zr.File {
		if f.Name != checkpointEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		err = msgpack.NewDecoder(rc).Decode(&snap)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("decode checkpoint: %w", err)
		}
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("checkpoint %s: missing %s", path, checkpointEntry)
	}
	if err := snap.validate(); err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", path, err)
	}
	m := &Model{
		opts:     snap.Options,
		rank:     snap.Rank,
		singular: snap.Singular,
		coeffs:   snap.Coeffs,
		psi:      snap.Psi,
		sigma:    snap.Sigma,
		z:        snap.Z,
		state:    snap.Buffer,
		through:  snap.Through,
	}
	return m.NewEngine(), nil
}

func (s snapshot) validate() error {
	if s.Version != checkpointVersion {
		return fmt.Errorf("unsupported version %d", s.Version)
	}
	if err := s.Options.Validate(); err != nil {
		return err
	}
	switch {
	case len(s.Coeffs) != s.Options.WindowSize-1:
		return errors.New("coefficient count does not match window size")
	case len(s.Psi) != s.Options.Horizon:
		return errors.New("propagation weights do not match horizon")
	case len(s.Buffer) < len(s.Coeffs) || len(s.Buffer) > s.Options.SeriesLength:
		return errors.New("buffer length out of range")
	}
	return nil
}
