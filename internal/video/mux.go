package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// MuxClient handles communication with the Mux video API for direct
// uploads and asset finalization
type MuxClient struct {
	baseURL     string
	tokenID     string
	tokenSecret string
	httpClient  *http.Client
	stubMode    bool
}

// DirectUpload is a client-facing upload target: the browser PUTs the raw
// video to UploadURL, and UploadID is kept for finalization.
type DirectUpload struct {
	UploadID  string `json:"upload_id"`
	UploadURL string `json:"upload_url"`
}

// NewMuxClient creates a new Mux client with the given credentials
func NewMuxClient(tokenID, tokenSecret string, stubMode bool) *MuxClient {
	return &MuxClient{
		baseURL:     "https://api.mux.com",
		tokenID:     tokenID,
		tokenSecret: tokenSecret,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		stubMode:    stubMode,
	}
}

// CreateDirectUpload requests a new direct-upload target from Mux
func (c *MuxClient) CreateDirectUpload(ctx context.Context) (*DirectUpload, error) {
	if c.stubMode {
		id := uuid.New().String()
		return &DirectUpload{
			UploadID:  "stub-upload-" + id[:8],
			UploadURL: "https://storage.example.com/uploads/" + id,
		}, nil
	}

	reqBody := map[string]interface{}{
		"cors_origin": "*",
		"new_asset_settings": map[string]interface{}{
			"playback_policy": []string{"public"},
		},
	}

	var resp struct {
		Data struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, "/video/v1/uploads", reqBody, &resp); err != nil {
		return nil, err
	}

	return &DirectUpload{UploadID: resp.Data.ID, UploadURL: resp.Data.URL}, nil
}

// GetUploadAssetID returns the asset id created from a direct upload, or
// an empty string while the upload has not yet produced an asset
func (c *MuxClient) GetUploadAssetID(ctx context.Context, uploadID string) (string, error) {
	if c.stubMode {
		return "stub-asset-" + uploadID, nil
	}

	var resp struct {
		Data struct {
			Status  string `json:"status"`
			AssetID string `json:"asset_id"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodGet, "/video/v1/uploads/"+uploadID, nil, &resp); err != nil {
		return "", err
	}

	return resp.Data.AssetID, nil
}

// GetAssetPlaybackID returns the public playback id for an asset, or an
// empty string while the asset is still transcoding
func (c *MuxClient) GetAssetPlaybackID(ctx context.Context, assetID string) (string, error) {
	if c.stubMode {
		return "stub-playback-" + assetID, nil
	}

	var resp struct {
		Data struct {
			Status      string `json:"status"`
			PlaybackIDs []struct {
				ID string `json:"id"`
			} `json:"playback_ids"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodGet, "/video/v1/assets/"+assetID, nil, &resp); err != nil {
		return "", err
	}

	if resp.Data.Status != "ready" || len(resp.Data.PlaybackIDs) == 0 {
		return "", nil
	}

	return resp.Data.PlaybackIDs[0].ID, nil
}

// do executes an authenticated JSON request against the Mux API
func (c *MuxClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.tokenID, c.tokenSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mux returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
