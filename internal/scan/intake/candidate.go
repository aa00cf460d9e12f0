package intake

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/romariotrain/eyescan/internal/scan/models"
)

const sniffLen = 512

// CandidateFromFile builds a candidate from a file on disk. The MIME type is
// taken from the extension, falling back to content sniffing. Bytes of files
// over the upload limit are not loaded; such candidates are always rejected.
func CandidateFromFile(path string) (models.UploadCandidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.UploadCandidate{}, fmt.Errorf("open scan: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return models.UploadCandidate{}, fmt.Errorf("stat scan: %w", err)
	}
	if info.IsDir() {
		return models.UploadCandidate{}, fmt.Errorf("%w: %s is a directory", models.ErrInvalidArgument, path)
	}

	c := models.UploadCandidate{
		FileName:  filepath.Base(path),
		SizeBytes: info.Size(),
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return models.UploadCandidate{}, fmt.Errorf("read scan: %w", err)
	}
	head = head[:n]
	c.DeclaredMimeType = detectType(c.FileName, head)

	if c.SizeBytes > models.MaxUploadBytes {
		return c, nil
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		return models.UploadCandidate{}, fmt.Errorf("read scan: %w", err)
	}
	c.RawBytes = append(head, rest...)
	c.SizeBytes = int64(len(c.RawBytes))
	return c, nil
}

// CandidateFromMultipart builds a candidate from an uploaded form file, trusting
// the part's declared Content-Type the way the browser form does.
func CandidateFromMultipart(fh *multipart.FileHeader) (models.UploadCandidate, error) {
	if fh == nil {
		return models.UploadCandidate{}, models.ErrNoFileSelected
	}

	c := models.UploadCandidate{
		FileName:         filepath.Base(fh.Filename),
		DeclaredMimeType: fh.Header.Get("Content-Type"),
		SizeBytes:        fh.Size,
	}
	if c.SizeBytes > models.MaxUploadBytes {
		return c, nil
	}

	f, err := fh.Open()
	if err != nil {
		return models.UploadCandidate{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return models.UploadCandidate{}, fmt.Errorf("read upload: %w", err)
	}
	c.RawBytes = raw
	c.SizeBytes = int64(len(raw))
	return c, nil
}

func detectType(name string, head []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	if len(head) == 0 {
		return ""
	}
	return http.DetectContentType(head)
}
