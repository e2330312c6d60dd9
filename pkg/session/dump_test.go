package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"phreeqcore/internal/blob"
	"phreeqcore/internal/persistence"
	"phreeqcore/internal/solver/sim"
	"phreeqcore/pkg/units"
)

func readDump(t *testing.T, store blob.Store, key string) string {
	t.Helper()
	_, rc, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %q: %v", key, err)
	}
	defer func() { _ = rc.Close() }()
	zr, err := gzip.NewReader(rc)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(raw)
}

func TestDumpRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testDatabase(t)
	blobs := blob.NewMemory()
	meta := persistence.NewMemory()

	s, err := New(sim.New(), WithDatabase(db), WithBlobStore(blobs), WithMetadataStore(meta))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.AddSolution(Composition{"Ca": "1"}, Extraneous{"tracer": 2.0}); err != nil {
		t.Fatalf("a: %v", err)
	}
	if _, err := s.AddSolution(Composition{"Na": "2"}, nil); err != nil {
		t.Fatalf("b: %v", err)
	}
	gone := mustSolution(t, s, Composition{})
	if err := gone.Forget(); err != nil {
		t.Fatalf("forget: %v", err)
	}

	info, err := s.DumpSolutions(ctx, nil, "run/1")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if info.ContentType != DumpContentType || info.Metadata["session"] != s.ID().String() {
		t.Fatalf("info = %+v", info)
	}
	raw := readDump(t, blobs, "run/1")
	if !bytes.Contains([]byte(raw), []byte("SOLUTION_RAW 1\n")) || !bytes.Contains([]byte(raw), []byte("SOLUTION_RAW 2\n")) {
		t.Fatalf("dump = %q", raw)
	}
	if _, err := s.DumpSolutions(ctx, nil, "run/1"); err != nil {
		t.Fatalf("replace dump: %v", err)
	}
	snap, err := meta.LoadSnapshot(ctx, "run/1")
	if err != nil || snap.Counters.Solutions != 3 || snap.Session != s.ID().String() {
		t.Fatalf("snapshot = %+v, %v", snap, err)
	}

	r, err := Restore(ctx, sim.New(), "run/1", WithDatabase(db), WithBlobStore(blobs), WithMetadataStore(meta))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if r.ID() == s.ID() {
		t.Fatalf("restored session reuses the identity")
	}
	if got := r.SolutionNumbers(); !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("restored numbers = %v", got)
	}
	if ca, _ := r.Solution(1).TotalElement("Ca", units.Mmol); !near(ca, 1) {
		t.Fatalf("restored Ca = %v", ca)
	}
	if na, _ := r.Solution(2).TotalElement("Na", units.Mmol); !near(na, 2) {
		t.Fatalf("restored Na = %v", na)
	}
	if r.Solution(1).Extraneous()["tracer"] != 2.0 {
		t.Fatalf("restored extraneous = %v", r.Solution(1).Extraneous())
	}
	if got := r.Counters().Solutions; got != 3 {
		t.Fatalf("restored counter = %d", got)
	}
	next := mustSolution(t, r, Composition{"Ca": "1"})
	if next.Number() != 4 {
		t.Fatalf("restored session reused number %d", next.Number())
	}
}

func TestDumpSelectedSolutionsToFilesystem(t *testing.T) {
	ctx := context.Background()
	db := testDatabase(t)
	blobs, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}
	s, err := New(sim.New(), WithDatabase(db), WithBlobStore(blobs))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	mustSolution(t, s, Composition{"Ca": "1"})
	mustSolution(t, s, Composition{"Na": "2"})
	mustSolution(t, s, Composition{"Cl": "3"})
	if _, err := s.DumpSolutions(ctx, []int{2}, "dumps/only-two.gz"); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if _, err := s.DumpSolutions(ctx, []int{2}, "dumps/only-two.gz"); err != nil {
		t.Fatalf("replace dump: %v", err)
	}

	logger := &recordingLogger{}
	r, err := Restore(ctx, sim.New(), "dumps/only-two.gz",
		WithDatabase(db), WithBlobStore(blobs), WithMetadataStore(persistence.NewMemory()), WithLogger(logger))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := r.SolutionNumbers(); !slices.Equal(got, []int{2}) {
		t.Fatalf("restored numbers = %v", got)
	}
	if got := r.Counters().Solutions; got != 2 {
		t.Fatalf("counter follows the highest live number, got %d", got)
	}
	if !logger.has("warn dump has no metadata") {
		t.Fatalf("logs = %v", logger.entries)
	}
}

func TestDumpErrors(t *testing.T) {
	ctx := context.Background()
	db := testDatabase(t)

	s, _ := newTestSession(t)
	if _, err := s.DumpSolutions(ctx, nil, "k"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("no blob store: %v", err)
	}
	if _, err := Restore(ctx, sim.New(), "k", WithDatabase(db)); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("restore without blob store: %v", err)
	}

	blobs := blob.NewMemory()
	withStore, _ := newTestSession(t, WithBlobStore(blobs))
	if _, err := withStore.DumpSolutions(ctx, nil, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty key: %v", err)
	}
	if _, err := Restore(ctx, sim.New(), "missing", WithDatabase(db), WithBlobStore(blobs)); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("missing dump: %v", err)
	}
	if _, err := blobs.Put(ctx, "not-gzip", bytes.NewReader([]byte("SOLUTION_RAW 1\n")), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := Restore(ctx, sim.New(), "not-gzip", WithDatabase(db), WithBlobStore(blobs)); err == nil {
		t.Fatalf("uncompressed dump accepted")
	}
}

// flakyStore fails every Put whose key satisfies fail.
type flakyStore struct {
	blob.Store
	fail func(key string) bool
}

func (f flakyStore) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	if f.fail(key) {
		return blob.Info{}, errors.New("quota exceeded")
	}
	return f.Store.Put(ctx, key, r, opts)
}

func TestDumpReplaceKeepsPreviousOnFailure(t *testing.T) {
	ctx := context.Background()
	mem := blob.NewMemory()
	s, _ := newTestSession(t, WithBlobStore(mem))
	mustSolution(t, s, Composition{"Ca": "1"})
	if _, err := s.DumpSolutions(ctx, nil, "run/1"); err != nil {
		t.Fatalf("first dump: %v", err)
	}
	before := readDump(t, mem, "run/1")

	full, _ := newTestSession(t, WithBlobStore(flakyStore{Store: mem, fail: func(string) bool { return true }}))
	mustSolution(t, full, Composition{"Na": "2"})
	if _, err := full.DumpSolutions(ctx, nil, "run/1"); err == nil {
		t.Fatalf("dump into a failing store succeeded")
	}
	if got := readDump(t, mem, "run/1"); got != before {
		t.Fatalf("previous dump replaced: %q", got)
	}

	logger := &recordingLogger{}
	late, _ := newTestSession(t, WithLogger(logger),
		WithBlobStore(flakyStore{Store: mem, fail: func(key string) bool { return key == "run/1" }}))
	mustSolution(t, late, Composition{"Na": "2"})
	_, err := late.DumpSolutions(ctx, nil, "run/1")
	if err == nil || !strings.Contains(err.Error(), "run/1.staged-") {
		t.Fatalf("final put failure: %v", err)
	}
	if !logger.has("error dump replacement failed") {
		t.Fatalf("logs = %v", logger.entries)
	}
	keys, err := mem.List(ctx, "run/1.staged-")
	if err != nil || len(keys) != 1 {
		t.Fatalf("staged dumps = %v, %v", keys, err)
	}
	if got := readDump(t, mem, keys[0].Key); !strings.Contains(got, "SOLUTION_RAW 1\n") {
		t.Fatalf("staged dump = %q", got)
	}
}
