// Package client is a small HTTP client for the match API, used by the
// replay viewer and by integration tooling.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/rallyscope/internal/models"
	"github.com/your-org/rallyscope/internal/replay"
	"github.com/your-org/rallyscope/pkg/dto"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Statuses satisfies the poller's status source with one batch request.
func (c *Client) Statuses(ctx context.Context, ids []uuid.UUID) ([]replay.StatusUpdate, error) {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}

	var resp dto.StatusBatchResponse
	endpoint := "/v1/matches/status?ids=" + url.QueryEscape(strings.Join(parts, ","))
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	updates := make([]replay.StatusUpdate, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		update := replay.StatusUpdate{
			MatchID: m.ID,
			Status:  models.MatchStatus(m.Status),
		}
		if m.ProcessedAt != "" {
			if t, err := time.Parse("2006-01-02T15:04:05Z", m.ProcessedAt); err == nil {
				update.ProcessedAt = &t
			}
		}
		updates = append(updates, update)
	}
	return updates, nil
}

// GetMatch fetches the full match payload, including the analysis result once
// the match is COMPLETE.
func (c *Client) GetMatch(ctx context.Context, id uuid.UUID) (*dto.MatchDetailsResponse, error) {
	var resp dto.MatchDetailsResponse
	if err := c.getJSON(ctx, "/v1/matches/"+id.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Upload submits a local video file for analysis.
func (c *Client) Upload(ctx context.Context, videoPath string) (*dto.UploadResponse, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer file.Close()

	// Stream the file through a pipe so large uploads never sit in memory.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("video", filepath.Base(videoPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/matches", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return nil, apiError(resp)
	}

	var out dto.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("api %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("api returned %d", resp.StatusCode)
}
