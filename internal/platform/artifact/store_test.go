package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domainimage "mealvision-server/internal/domain/image"
	platformerrors "mealvision-server/internal/platform/errors"
	platformtesting "mealvision-server/internal/platform/testing"
)

func testStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	root := t.TempDir()
	store, err := NewLocalStore(Config{
		Root:      root,
		PublicURL: "http://localhost:8080/artifacts",
	}, platformtesting.SetupTestLogger(t))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return store, root
}

func TestStore_WritesBlobAndBuildsURL(t *testing.T) {
	store, root := testStore(t)

	img := domainimage.CompressedImage{
		Data:      []byte("jpeg-bytes"),
		MediaType: "image/jpeg",
		FileName:  "meal.jpg",
	}
	ref, err := store.Store(context.Background(), img, "owner1")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if !strings.HasPrefix(ref.Key, "owner1/") || !strings.HasSuffix(ref.Key, "_meal.jpg") {
		t.Errorf("unexpected key %q", ref.Key)
	}
	if ref.URL != "http://localhost:8080/artifacts/"+ref.Key {
		t.Errorf("unexpected URL %q", ref.URL)
	}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref.Key)))
	if err != nil {
		t.Fatalf("read stored blob: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Error("stored payload differs from input")
	}
}

func TestStore_KeysAreUniquePerUpload(t *testing.T) {
	store, _ := testStore(t)
	img := domainimage.CompressedImage{Data: []byte("x"), FileName: "meal.jpg"}

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		ref, err := store.Store(context.Background(), img, "owner1")
		if err != nil {
			t.Fatalf("Store: %v", err)
		}
		if seen[ref.Key] {
			t.Errorf("duplicate key %q", ref.Key)
		}
		seen[ref.Key] = true
		// Keys carry a millisecond timestamp; space the uploads out past it.
		time.Sleep(2 * time.Millisecond)
	}
}

func TestStore_SanitizesHostileFileNames(t *testing.T) {
	store, root := testStore(t)
	img := domainimage.CompressedImage{Data: []byte("x"), FileName: "../../etc/passwd"}

	ref, err := store.Store(context.Background(), img, "owner1")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if strings.Contains(ref.Key, "..") {
		t.Errorf("key %q escapes the blob root", ref.Key)
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(ref.Key))); err != nil {
		t.Errorf("sanitized blob not written: %v", err)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	store, _ := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Store(ctx, domainimage.CompressedImage{Data: []byte("x"), FileName: "a.jpg"}, "owner1")
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestStore_UnwritableRootIsStorageUnavailable(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks are meaningless as root")
	}
	root := t.TempDir()
	store, err := NewLocalStore(Config{Root: root, PublicURL: "http://x/artifacts"},
		platformtesting.SetupTestLogger(t))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if err := os.Chmod(root, 0o555); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	_, err = store.Store(context.Background(), domainimage.CompressedImage{Data: []byte("x"), FileName: "a.jpg"}, "owner1")
	if err == nil {
		t.Fatal("expected error")
	}
	code := platformerrors.CodeOf(err)
	if code != platformerrors.CodePermissionDenied && code != platformerrors.CodeStorageUnavailable {
		t.Errorf("unexpected code %q", code)
	}
}
