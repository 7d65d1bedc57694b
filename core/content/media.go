package content

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/cmabris/erasmus25/core"
)

// MediaHandle identifies a file attached to a content record via the media
// collaborator.
type MediaHandle struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}

// Upload is an incoming file to be attached to a record.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// MediaService is the opaque file-storage collaborator.
type MediaService interface {
	Attach(ctx context.Context, ownerType, ownerID string, file Upload) (MediaHandle, error)
	Detach(ctx context.Context, handle MediaHandle) error
}

// ValidateUpload applies the configured upload policy (accepted mime types,
// size cap) before any file is staged.
func ValidateUpload(file Upload, conf core.MediaConfig) error {
	if file.Size > conf.MaxUploadSize {
		return core.NewValidationError(nil, core.FieldError{
			Field: "file",
			Error: fmt.Sprintf("file exceeds the maximum size of %d bytes", conf.MaxUploadSize),
		})
	}
	for _, allowed := range conf.AllowedTypes {
		if file.ContentType == allowed {
			return nil
		}
	}
	return core.NewValidationError(nil, core.FieldError{
		Field: "file",
		Error: "file type not accepted",
	})
}

// attachUpload stages the upload in a temporary file, hands it to the media
// collaborator and removes the temporary file on every exit path. An attach
// failure is logged with the owning record's id and swallowed: the record
// persists without its file.
func attachUpload(ctx context.Context, media MediaService, logger core.Logger, ownerType, ownerID string, file Upload) *MediaHandle {
	tmp, err := ioutil.TempFile("", "erasmus25-upload-*")
	if err != nil {
		logger.Error(fmt.Sprintf("staging upload for %s %s: %v", ownerType, ownerID, err), err)
		return nil
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, file.Content)
	if err != nil {
		logger.Error(fmt.Sprintf("staging upload for %s %s: %v", ownerType, ownerID, err), err)
		return nil
	}
	if _, err = tmp.Seek(0, io.SeekStart); err != nil {
		logger.Error(fmt.Sprintf("staging upload for %s %s: %v", ownerType, ownerID, err), err)
		return nil
	}

	handle, err := media.Attach(ctx, ownerType, ownerID, Upload{
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        size,
		Content:     tmp,
	})
	if err != nil {
		logger.Error(fmt.Sprintf("attaching file to %s %s: %v", ownerType, ownerID, err), err)
		return nil
	}
	return &handle
}
