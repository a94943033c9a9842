package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tastebud/apiserver/internal/storage"
)

const maxMultipartMemory = 16 << 20

// imageUpload is a fully-read multipart image file.
type imageUpload struct {
	data        []byte
	ContentType string
}

func (u imageUpload) Reader() io.Reader {
	return bytes.NewReader(u.data)
}

func (u imageUpload) Size() int64 {
	return int64(len(u.data))
}

// parseImageUpload reads a single image file from the named multipart
// field, enforcing the size cap and the allowed content types.
func parseImageUpload(r *http.Request, field string) (imageUpload, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return imageUpload{}, errors.New("invalid multipart form")
	}
	if r.MultipartForm == nil {
		return imageUpload{}, errors.New("missing form data")
	}

	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return imageUpload{}, fmt.Errorf("%s file is required", field)
	}
	if len(files) > 1 {
		return imageUpload{}, fmt.Errorf("only one %s file is allowed", field)
	}

	file, err := files[0].Open()
	if err != nil {
		return imageUpload{}, errors.New("failed to read upload")
	}
	data, err := readFileLimited(file, storage.MaxImageBytes)
	_ = file.Close()
	if err != nil {
		return imageUpload{}, err
	}

	contentType := http.DetectContentType(data)
	if _, ok := storage.ImageExtension(contentType); !ok {
		return imageUpload{}, errors.New("unsupported image type")
	}

	return imageUpload{data: data, ContentType: contentType}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
