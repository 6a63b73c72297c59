// internal/service/activity/upload.go
package activity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/activity"
	"trackpro-client/internal/pkg/apiclient"
)

// Upload sends a GPX document as multipart form data (fields file and
// sportType) and reports byte level progress through onProgress.
func (s *ActivityService) Upload(
	ctx context.Context,
	fileName string,
	content io.Reader,
	sport activity.SportType,
	onProgress activity.UploadProgress,
) (*activity.Activity, error) {
	if !sport.Valid() {
		return nil, fmt.Errorf("invalid sport type %q", sport)
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("file", filepath.Base(fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	if err := writer.WriteField("sportType", string(sport)); err != nil {
		return nil, fmt.Errorf("failed to write sport type: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	total := int64(form.Len())
	body := newProgressReader(&form, total, onProgress)

	var result activity.ActivityResponse
	err = s.client.Do(ctx, apiclient.Request{
		Method:        http.MethodPost,
		Path:          "/api/activities/upload",
		Raw:           body,
		ContentType:   writer.FormDataContentType(),
		ContentLength: total,
		Auth:          true,
	}, &result)
	if err != nil {
		return nil, err
	}

	body.finish()
	s.logger.Info("activity uploaded",
		zap.Int64("activity_id", result.ID),
		zap.String("file", fileName),
		zap.Int64("bytes", total),
	)

	a := activity.FromResponse(result)
	return &a, nil
}

// UploadFile opens path and uploads it.
func (s *ActivityService) UploadFile(ctx context.Context, path string, sport activity.SportType, onProgress activity.UploadProgress) (*activity.Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gpx file: %w", err)
	}
	defer f.Close()

	return s.Upload(ctx, path, f, sport, onProgress)
}

// progressReader reports monotonic percentages. 100 is only reported once
// the server has accepted the upload.
type progressReader struct {
	r     io.Reader
	total int64
	fn    activity.UploadProgress

	mu   sync.Mutex
	read int64
	last int
}

func newProgressReader(r io.Reader, total int64, fn activity.UploadProgress) *progressReader {
	return &progressReader{r: r, total: total, fn: fn, last: -1}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil && p.total > 0 {
		p.mu.Lock()
		p.read += int64(n)
		pct := int(p.read * 99 / p.total)
		if pct > p.last {
			p.last = pct
			p.fn(pct)
		}
		p.mu.Unlock()
	}
	return n, err
}

func (p *progressReader) finish() {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = 100
	p.fn(100)
}
