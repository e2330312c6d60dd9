package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"phreeqcore/internal/blob/core"
)

func TestMockStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	if s.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	info, err := s.Put(ctx, "dumps/a", strings.NewReader("hello"), core.PutOptions{
		ContentType: "text/plain",
		Metadata:    map[string]string{"session": "s1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "dumps/a" || info.Size != 5 || info.ETag != "etag" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "dumps/a", strings.NewReader("again"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, rc, err := s.Get(ctx, "dumps/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "hello" || got.ContentType != "text/plain" || got.Metadata["session"] != "s1" {
		t.Fatalf("unexpected object %q %+v", body, got)
	}
	list, err := s.List(ctx, "dumps/")
	if err != nil || len(list) != 1 || list[0].Key != "dumps/a" {
		t.Fatalf("unexpected list %+v (%v)", list, err)
	}
	if ok, err := s.Delete(ctx, "dumps/a"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := s.Delete(ctx, "dumps/a"); err != nil || ok {
		t.Fatalf("expected missing object on second delete: %v %v", ok, err)
	}
	if _, err := s.Head(ctx, "dumps/a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.Get(ctx, "dumps/a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on get, got %v", err)
	}
}

func TestPresign(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	url, err := s.PresignURL(ctx, "dumps/a", core.SignedURLOptions{})
	if err != nil || !strings.Contains(url, "dumps/a") {
		t.Fatalf("presign: %q %v", url, err)
	}
	if _, err := s.PresignURL(ctx, "dumps/a", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestConfigErrors(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
	t.Setenv("PHREEQ_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("expected missing bucket env error")
	}
}

func TestNewWithStaticCredentials(t *testing.T) {
	s, err := New(context.Background(), Config{
		Bucket:          "dumps",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
		Prefix:          "phreeq/",
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.objectKey("a") != "phreeq/a" {
		t.Fatalf("unexpected object key %s", s.objectKey("a"))
	}
}

func TestMockHeadersAreCanonical(t *testing.T) {
	h := mockObj{body: []byte("hello"), contentType: "text/plain", metadata: map[string]string{"session": "s1"}}.header()
	if h.Get("ETag") != `"etag"` || h.Get("Content-Length") != "5" || h.Get("X-Amz-Meta-Session") != "s1" {
		t.Fatalf("headers = %v", h)
	}
	if etagHeader().Get("Etag") != `"etag"` {
		t.Fatalf("put response etag missing")
	}
}
