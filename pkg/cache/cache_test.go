package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, "layout:abc", []byte(`{"seed":"x"}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "layout:abc")
	if err != nil || !hit || string(data) != `{"seed":"x"}` {
		t.Errorf("Get() = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:abc"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}

	if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl missing")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path("k")), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) hit=%v err=%v, want silent miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	for i := range 5 {
		if err := c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after Clear", len(entries))
	}
	if err := c.Set(ctx, "after", []byte("v"), 0); err != nil {
		t.Errorf("Set after Clear: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}

	a, _ := HashJSON(map[string]int{"a": 1, "b": 2})
	b, _ := HashJSON(map[string]int{"b": 2, "a": 1})
	if a != b {
		t.Error("HashJSON should not depend on map order")
	}
	if _, err := HashJSON(func() {}); err == nil {
		t.Error("HashJSON should fail for unencodable values")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	lk1 := k.LayoutKey("cfg", LayoutKeyOpts{Seed: "a", Attempts: 3})
	lk2 := k.LayoutKey("cfg", LayoutKeyOpts{Seed: "b", Attempts: 3})
	if lk1 == lk2 {
		t.Error("Different seeds should produce different keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey unexpected: %s", lk1)
	}
	if lk1 != k.LayoutKey("cfg", LayoutKeyOpts{Seed: "a", Attempts: 3}) {
		t.Error("LayoutKey should be deterministic")
	}

	ak1 := k.ArtifactKey("layout", ArtifactKeyOpts{Format: "svg", Style: "simple"})
	ak2 := k.ArtifactKey("layout", ArtifactKeyOpts{Format: "png", Style: "simple"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(ak1, "artifact:") {
		t.Errorf("ArtifactKey unexpected: %s", ak1)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "tenant:7:")

	opts := LayoutKeyOpts{Seed: "crypt"}
	if got, want := scoped.LayoutKey("h", opts), "tenant:7:"+inner.LayoutKey("h", opts); got != want {
		t.Errorf("LayoutKey = %s, want %s", got, want)
	}
	aopts := ArtifactKeyOpts{Format: "svg"}
	if got, want := scoped.ArtifactKey("h", aopts), "tenant:7:"+inner.ArtifactKey("h", aopts); got != want {
		t.Errorf("ArtifactKey = %s, want %s", got, want)
	}

	// nil inner falls back to the default keyer
	if got := NewScopedKeyer(nil, "p:").LayoutKey("h", opts); got != "p:"+inner.LayoutKey("h", opts) {
		t.Errorf("nil inner key = %s", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("Retryable should unwrap to the original error")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, true, 1, false},
		{"permanent", 5, false, 1, true},
		{"recovers", 2, true, 3, false},
		{"exhausted", 5, true, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(ErrUnavailable)
					}
					return ErrUnavailable
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("NewRedisCache() error = %v, want ErrUnavailable", err)
	}
}

func TestClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
	if !IsRetryable(classify(&net.OpError{Op: "dial", Err: errors.New("refused")})) {
		t.Error("network errors should be retryable")
	}
	if IsRetryable(classify(errors.New("WRONGTYPE"))) {
		t.Error("server errors should not be retryable")
	}
}
