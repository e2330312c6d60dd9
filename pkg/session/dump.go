package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"phreeqcore/internal/blob"
	"phreeqcore/internal/command"
	"phreeqcore/internal/persistence"
	"phreeqcore/pkg/solver"
)

// DumpContentType labels dump blobs.
const DumpContentType = "application/gzip"

// DumpSolutions captures the raw state of the given solutions (all of them
// when numbers is empty), gzips it and writes it to the blob store under
// key, replacing any previous dump. When a metadata store is configured the
// counters and extraneous metadata are saved under the same key.
func (s *Session) DumpSolutions(ctx context.Context, numbers []int, key string) (blob.Info, error) {
	if s.blobs == nil {
		return blob.Info{}, fmt.Errorf("%w: no blob store for dumps", ErrConfiguration)
	}
	if key == "" {
		return blob.Info{}, invalid("empty dump key")
	}
	s.gw.SetDumpCapture(true)
	defer s.gw.SetDumpCapture(false)
	if err := s.run("dump_solutions", command.New().Dump(key, numbers).End().String()); err != nil {
		return blob.Info{}, err
	}
	raw := s.gw.DumpString()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return blob.Info{}, fmt.Errorf("compress dump: %w", err)
	}
	if err := zw.Close(); err != nil {
		return blob.Info{}, fmt.Errorf("compress dump: %w", err)
	}

	compressed := buf.Bytes()
	opts := blob.PutOptions{
		ContentType: DumpContentType,
		Metadata: map[string]string{
			"session":   s.id.String(),
			"raw-bytes": strconv.Itoa(len(raw)),
		},
	}
	// Put is create-only, so the new dump is staged before the old one goes.
	staged := key + ".staged-" + uuid.NewString()
	if _, err := s.blobs.Put(ctx, staged, bytes.NewReader(compressed), opts); err != nil {
		return blob.Info{}, fmt.Errorf("store dump %q: %w", key, err)
	}
	if _, err := s.blobs.Delete(ctx, key); err != nil {
		_, _ = s.blobs.Delete(ctx, staged)
		return blob.Info{}, fmt.Errorf("replace dump %q: %w", key, err)
	}
	info, err := s.blobs.Put(ctx, key, bytes.NewReader(compressed), opts)
	if err != nil {
		s.logger.Error("dump replacement failed", "key", key, "staged", staged, "error", err)
		return blob.Info{}, fmt.Errorf("store dump %q (kept as %q): %w", key, staged, err)
	}
	if _, err := s.blobs.Delete(ctx, staged); err != nil {
		s.logger.Warn("staged dump left behind", "key", staged, "error", err)
	}
	s.logger.Info("solutions dumped", "key", key, "driver", string(s.blobs.Driver()), "bytes", info.Size)

	if s.meta != nil {
		if err := s.meta.SaveSnapshot(ctx, s.snapshot(key, numbers)); err != nil {
			return info, fmt.Errorf("save dump metadata %q: %w", key, err)
		}
	}
	return info, nil
}

func (s *Session) snapshot(key string, numbers []int) persistence.Snapshot {
	if len(numbers) == 0 {
		numbers = s.SolutionNumbers()
	}
	bags := map[int]map[string]any{}
	for _, n := range numbers {
		if bag := s.extraneous[n]; bag != nil {
			bags[n] = bag.Clone()
		}
	}
	return persistence.Snapshot{
		Key:        key,
		Session:    s.id.String(),
		Counters:   s.Counters(),
		Extraneous: bags,
		SavedAt:    time.Now().UTC(),
	}
}

// Restore builds a session from a dump written by DumpSolutions. The dump is
// replayed, every restored solution gets a no-op change so the engine
// recomputes its derived properties, and each counter is advanced to the
// highest live number of its kind.
func Restore(ctx context.Context, gw solver.Gateway, key string, opts ...Option) (*Session, error) {
	s, err := New(gw, opts...)
	if err != nil {
		return nil, err
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("%w: no blob store to restore from", ErrConfiguration)
	}
	_, rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read dump %q: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	zr, err := gzip.NewReader(rc)
	if err != nil {
		return nil, fmt.Errorf("decompress dump %q: %w", key, err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress dump %q: %w", key, err)
	}
	if err := s.run("restore", command.New().Raw(string(raw)).End().String()); err != nil {
		return nil, err
	}
	for _, n := range s.SolutionNumbers() {
		if _, err := s.ChangeSolution(n, map[string]float64{"Na": 0}, false); err != nil {
			return nil, err
		}
	}
	s.advanceCounters()

	if s.meta != nil {
		snap, err := s.meta.LoadSnapshot(ctx, key)
		switch {
		case isNotFound(err):
			s.logger.Warn("dump has no metadata", "key", key)
		case err != nil:
			return nil, fmt.Errorf("load dump metadata %q: %w", key, err)
		default:
			s.applySnapshot(snap)
		}
	}
	s.logger.Info("session restored", "key", key, "solutions", len(s.SolutionNumbers()))
	return s, nil
}

func (s *Session) advanceCounters() {
	s.solutions = max(s.solutions, highest(s.gw.EntityNumbers(solver.KindSolution)))
	s.gases = max(s.gases, highest(s.gw.EntityNumbers(solver.KindGasPhase)))
	s.phases = max(s.phases, highest(s.EquilibriumPhaseNumbers()))
	s.surfaces = max(s.surfaces, highest(s.gw.EntityNumbers(solver.KindSurface)))
}

func (s *Session) applySnapshot(snap persistence.Snapshot) {
	s.solutions = max(s.solutions, snap.Counters.Solutions)
	s.gases = max(s.gases, snap.Counters.Gases)
	s.phases = max(s.phases, snap.Counters.Phases)
	s.surfaces = max(s.surfaces, snap.Counters.Surfaces)
	live := s.SolutionNumbers()
	for _, n := range slices.Sorted(maps.Keys(snap.Extraneous)) {
		if slices.Contains(live, n) {
			s.extraneous[n] = Extraneous(snap.Extraneous[n]).Clone()
		}
	}
}

func highest(numbers []int) int {
	if len(numbers) == 0 {
		return 0
	}
	return slices.Max(numbers)
}
