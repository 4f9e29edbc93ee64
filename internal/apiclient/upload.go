package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"

	apperrors "github.com/target/mmk-ui-client/internal/errors"
)

// ProgressFunc receives upload progress as a whole percentage, 0-100.
type ProgressFunc func(percent int)

// UploadFile describes one file sent as multipart form field "file".
type UploadFile struct {
	Name   string
	Reader io.Reader
	// Size enables progress reporting when > 0.
	Size int64
}

// Upload posts f as multipart/form-data and returns the envelope's data.
func (c *Client) Upload(ctx context.Context, path string, f UploadFile, onProgress ProgressFunc, cfg RequestConfig) (json.RawMessage, error) {
	if f.Reader == nil {
		return nil, apperrors.Wrapf(fmt.Errorf("nil reader"), "upload %q", f.Name)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := c.newRequest(ctx, http.MethodPost, path, pr, cfg)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	src := f.Reader
	if onProgress != nil && f.Size > 0 {
		src = &progressReader{r: f.Reader, total: f.Size, report: onProgress, last: -1}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pw.CloseWithError(writeMultipart(mw, f.Name, src))
	}()

	if c.debug {
		c.logger.DebugContext(ctx, "api upload", "url", req.URL.String(), "file", f.Name, "size", f.Size)
	}
	data, err := c.send(req, cfg)
	// Unblock the writer if the request ended before the body was consumed.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	wg.Wait()
	return data, err
}

func writeMultipart(mw *multipart.Writer, name string, src io.Reader) error {
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	return mw.Close()
}

type progressReader struct {
	r      io.Reader
	total  int64
	sent   int64
	last   int
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.sent += int64(n)
	pct := int(p.sent * 100 / p.total)
	if pct > 100 {
		pct = 100
	}
	if pct != p.last {
		p.last = pct
		p.report(pct)
	}
	return n, err
}
