package mediasvc

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cmabris/erasmus25/core"
	"github.com/cmabris/erasmus25/core/content"
)

// LocalService stores uploaded files on the local filesystem under
// <root>/<ownerType>/<id>/<name> and serves them from the frontend base URL.
type LocalService struct {
	root    string
	baseURL string
}

var _ content.MediaService = (*LocalService)(nil)

func NewLocalService(conf *core.Config) *LocalService {
	root := conf.Media.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(core.Getwd(), root)
	}
	return &LocalService{
		root:    root,
		baseURL: conf.FrontendBaseURL + "/media",
	}
}

func (svc *LocalService) Attach(ctx context.Context, ownerType, ownerID string, file content.Upload) (content.MediaHandle, error) {
	id := uuid.New().String()
	dir := filepath.Join(svc.root, ownerType, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return content.MediaHandle{}, errors.Wrap(err, "creating media directory")
	}

	name := filepath.Base(file.Name)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return content.MediaHandle{}, errors.Wrap(err, "creating media file")
	}
	defer func() { _ = dst.Close() }()

	size, err := io.Copy(dst, file.Content)
	if err != nil {
		_ = os.RemoveAll(dir)
		return content.MediaHandle{}, errors.Wrap(err, "writing media file")
	}

	return content.MediaHandle{
		ID:       id,
		Name:     name,
		MimeType: file.ContentType,
		Size:     size,
		URL:      fmt.Sprintf("%s/%s/%s/%s", svc.baseURL, ownerType, id, name),
	}, nil
}

func (svc *LocalService) Detach(ctx context.Context, handle content.MediaHandle) error {
	matches, err := filepath.Glob(filepath.Join(svc.root, "*", handle.ID))
	if err != nil {
		return errors.Wrap(err, "locating media directory")
	}
	for _, dir := range matches {
		if err = os.RemoveAll(dir); err != nil {
			return errors.Wrap(err, "removing media directory")
		}
	}
	return nil
}
