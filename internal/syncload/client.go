package syncload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/mazeball/internal/domain/types"
)

// ErrNameTaken is returned by Client.Rename on 409.
var ErrNameTaken = errors.New("nickname taken")

// Client talks to the leaderboard HTTP API.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client with a per request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthz: status %d", resp.StatusCode)
	}
	return nil
}

// Sync posts the device's scores and returns the merged boards.
func (c *Client) Sync(ctx context.Context, deviceID string, scores []types.SubmitScore) (types.Leaderboards, error) {
	resp, err := c.do(ctx, http.MethodPost, "/leaderboard/sync", types.SyncRequest{DeviceID: deviceID, Scores: scores})
	if err != nil {
		return nil, err
	}
	return decodeBoards(resp)
}

// All fetches GET /leaderboard/all.
func (c *Client) All(ctx context.Context) (types.Leaderboards, error) {
	resp, err := c.do(ctx, http.MethodGet, "/leaderboard/all", nil)
	if err != nil {
		return nil, err
	}
	return decodeBoards(resp)
}

// Rename posts a nickname change. A conflict yields ErrNameTaken.
func (c *Client) Rename(ctx context.Context, deviceID, nickname string) error {
	resp, err := c.do(ctx, http.MethodPost, "/user/nickname", types.UpdateNicknameRequest{DeviceID: deviceID, NewNickname: nickname})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusConflict:
		return ErrNameTaken
	default:
		return statusError("nickname", resp)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", path, err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeBoards(resp *http.Response) (types.Leaderboards, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("leaderboard", resp)
	}
	var out types.Leaderboards
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode leaderboards: %w", err)
	}
	return out, nil
}

func statusError(op string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(msg)))
}
