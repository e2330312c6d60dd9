package blob

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	t.Setenv("PHREEQ_BLOB_DRIVER", "memory")
	s, err := Open(ctx)
	if err != nil || s.Driver() != DriverMemory {
		t.Fatalf("memory: %v %v", s, err)
	}

	t.Setenv("PHREEQ_BLOB_DRIVER", "")
	t.Setenv("PHREEQ_BLOB_FS_ROOT", filepath.Join(t.TempDir(), "dumps"))
	s, err = Open(ctx)
	if err != nil || s.Driver() != DriverFilesystem {
		t.Fatalf("fs default: %v %v", s, err)
	}

	t.Setenv("PHREEQ_BLOB_DRIVER", "s3")
	t.Setenv("PHREEQ_BLOB_S3_BUCKET", "")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected s3 without bucket to fail")
	}

	t.Setenv("PHREEQ_BLOB_DRIVER", "tape")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestFacadeStoresShareSentinels(t *testing.T) {
	ctx := context.Background()
	stores := map[string]Store{"memory": NewMemory(), "s3": NewMockS3ForTests()}
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	stores["fs"] = fsStore
	for name, s := range stores {
		if _, err := s.Put(ctx, "k", strings.NewReader("v"), PutOptions{}); err != nil {
			t.Fatalf("%s put: %v", name, err)
		}
		if _, err := s.Put(ctx, "k", strings.NewReader("v"), PutOptions{}); !errors.Is(err, ErrExists) {
			t.Fatalf("%s: expected ErrExists, got %v", name, err)
		}
		if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}
