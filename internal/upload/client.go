// Package upload pushes images to the external image host and returns the
// public URL. Used for claim evidence and profile photos.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"lifesure/internal/common/config"
	stderrors "lifesure/internal/common/errors"
	commonhttp "lifesure/internal/common/http"
	"lifesure/internal/common/logger"
)

// Client uploads images to the configured host.
type Client struct {
	hostURL  string
	apiKey   string
	maxBytes int64
	http     *commonhttp.Client
	logger   logger.Logger
}

func NewClient(cfg config.UploadConfig, log logger.Logger) *Client {
	return &Client{
		hostURL:  cfg.HostURL,
		apiKey:   cfg.APIKey,
		maxBytes: cfg.MaxBytes,
		http:     commonhttp.NewClient(time.Duration(cfg.TimeoutMS) * time.Millisecond),
		logger:   log,
	}
}

// MaxBytes is the upload size cap the API enforces before reading the body.
func (c *Client) MaxBytes() int64 {
	return c.maxBytes
}

type hostResponse struct {
	Data struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// Upload sends one image and returns its public URL.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("image", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	endpoint := fmt.Sprintf("%s?key=%s", c.hostURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequest(http.MethodPost, endpoint, pr)
	if err != nil {
		return "", stderrors.NewUploadFailedError(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return "", stderrors.NewUploadFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", stderrors.NewUploadFailedError(fmt.Errorf("image host returned %d: %s", resp.StatusCode, body))
	}

	var parsed hostResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", stderrors.NewUploadFailedError(fmt.Errorf("decode image host response: %w", err))
	}
	if !parsed.Success || parsed.Data.URL == "" {
		return "", stderrors.NewUploadFailedError(fmt.Errorf("image host rejected upload, status %d", parsed.Status))
	}

	c.logger.Debug("image uploaded", map[string]interface{}{"filename": filename})
	return parsed.Data.URL, nil
}
