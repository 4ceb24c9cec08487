// Package upload forwards user audio/video files to the upload service and
// returns the hosted URL.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/sirupsen/logrus"

	"videosummary/internal/apperrors"
	"videosummary/internal/httpclient"
)

const DefaultMaxBytes int64 = 5 * 1024 * 1024

// ErrTooLarge is wrapped in the UploadFailure returned for oversized files.
var ErrTooLarge = errors.New("file exceeds the upload size limit")

type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Options struct {
	Prefix       string
	NeedCompress bool
}

type response struct {
	Code int `json:"code"`
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
	Msg string `json:"msg"`
}

type Client struct {
	URL      string
	MaxBytes int64
	HTTP     httpclient.Doer
	logger   logrus.FieldLogger
}

func NewClient(url string, maxBytes int64, doer httpclient.Doer, logger logrus.FieldLogger) *Client {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{URL: url, MaxBytes: maxBytes, HTTP: doer, logger: logger}
}

// Upload sends f as multipart field "file" and returns the hosted URL.
// Oversized files are rejected before any request is made.
func (c *Client) Upload(ctx context.Context, f File, opts Options) (string, error) {
	const op = "upload.Upload"
	if f.Size > c.MaxBytes {
		return "", apperrors.E(apperrors.UploadFailure, op, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, f.Size, c.MaxBytes))
	}
	if c.URL == "" {
		return "", apperrors.Errorf(apperrors.UploadFailure, op, "upload service is not configured")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	if f.ContentType != "" {
		header.Set("Content-Type", f.ContentType)
	} else {
		header.Set("Content-Type", "application/octet-stream")
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", apperrors.E(apperrors.UploadFailure, op, err)
	}
	// Read one byte past the limit so a lying Size is still caught.
	n, err := io.Copy(part, io.LimitReader(f.Body, c.MaxBytes+1))
	if err != nil {
		return "", apperrors.E(apperrors.UploadFailure, op, err)
	}
	if n > c.MaxBytes {
		return "", apperrors.E(apperrors.UploadFailure, op, ErrTooLarge)
	}
	if opts.Prefix != "" {
		_ = mw.WriteField("prefix", opts.Prefix)
	}
	_ = mw.WriteField("need_compress", strconv.FormatBool(opts.NeedCompress))
	if err := mw.Close(); err != nil {
		return "", apperrors.E(apperrors.UploadFailure, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, &buf)
	if err != nil {
		return "", apperrors.E(apperrors.UploadFailure, op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"file": f.Name, "error": err}).Error("upload request failed")
		return "", apperrors.E(apperrors.UploadFailure, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.WithFields(logrus.Fields{"file": f.Name, "status": resp.StatusCode}).Error("upload rejected")
		return "", apperrors.Errorf(apperrors.UploadFailure, op, "status %d: %s", resp.StatusCode, string(body))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.E(apperrors.UploadFailure, op, fmt.Errorf("decode: %w", err))
	}
	if out.Data.URL == "" {
		return "", apperrors.Errorf(apperrors.UploadFailure, op, "no url returned: %s", out.Msg)
	}
	c.logger.WithFields(logrus.Fields{"file": f.Name, "size": n, "url": out.Data.URL}).Info("file uploaded")
	return out.Data.URL, nil
}
