package artifact

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	domainimage "mealvision-server/internal/domain/image"
	platformerrors "mealvision-server/internal/platform/errors"
	"mealvision-server/internal/platform/logging"
)

// Reference is the durable handle to one stored meal photo. The URL resolves
// without authentication so archived history can embed it directly.
type Reference struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Config locates the blob root and the base URL it is served under.
type Config struct {
	Root      string
	PublicURL string
}

// LocalStore writes blobs under a directory that the HTTP layer serves
// statically. Keys are owner-scoped: <ownerID>/<unixMillis>_<fileName>.
// The millisecond component keeps keys unique per upload without any
// coordination; two same-named uploads by one owner in the same millisecond
// are the only collision risk, which human upload cadence makes acceptable.
type LocalStore struct {
	config Config
	logger *logging.Logger
}

func NewLocalStore(cfg Config, logger *logging.Logger) (*LocalStore, error) {
	if cfg.Root == "" {
		return nil, platformerrors.New(platformerrors.KindConfig, "artifact.new", "blob root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "artifact.new", "create blob root", err)
	}
	return &LocalStore{config: cfg, logger: logger}, nil
}

// Store persists the compressed image and returns its public reference.
func (s *LocalStore) Store(ctx context.Context, img domainimage.CompressedImage, ownerID string) (*Reference, error) {
	if err := ctx.Err(); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "artifact.store", "store cancelled", err)
	}

	key := s.buildKey(ownerID, img.FileName)

	target := filepath.Join(s.config.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, s.classify("create owner directory", err)
	}
	if err := os.WriteFile(target, img.Data, 0o644); err != nil {
		return nil, s.classify("write blob", err)
	}

	ref := &Reference{
		URL: strings.TrimSuffix(s.config.PublicURL, "/") + "/" + key,
		Key: key,
	}
	s.logger.InfoTag("ARTIFACT", "stored %s (%d bytes) -> %s", key, len(img.Data), ref.URL)
	return ref, nil
}

func (s *LocalStore) buildKey(ownerID, fileName string) string {
	name := sanitizeFileName(fileName)
	if name == "" {
		name = "image.jpg"
	}
	return path.Join(sanitizeFileName(ownerID), fmt.Sprintf("%d_%s", time.Now().UnixMilli(), name))
}

func (s *LocalStore) classify(message string, err error) error {
	code := platformerrors.CodeStorageUnavailable
	if os.IsPermission(err) {
		code = platformerrors.CodePermissionDenied
	}
	s.logger.ErrorTag("ARTIFACT", "%s: %v", message, err)
	return &platformerrors.Error{
		Kind:    platformerrors.KindStorage,
		Code:    code,
		Op:      "artifact.store",
		Message: message,
		Cause:   err,
	}
}

// sanitizeFileName strips path separators and other characters that would
// break the key scheme or escape the blob root.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), ".")
}
