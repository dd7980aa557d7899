// Package studio is a client for the hosted background-removal API. The
// service returns an alpha mask; compositing happens locally with the same
// code path as the local pipeline.
package studio

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/snapbg/snapbg/snap"
)

// maxUploadDim bounds the larger image dimension before upload to keep
// transfer latency down; the returned mask is resampled back to the original
// size during compositing.
const maxUploadDim = 1024

// APIError reports a failed API call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("studio api error (status %d): %s", e.StatusCode, e.Message)
	}
	return "studio api error: " + e.Message
}

// Client calls the Studio API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func New(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type alphaRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type alphaResponse struct {
	AlphaBase64 string `json:"alpha_base64"`
	Error       string `json:"error"`
}

// RemoveBackground uploads the image, fetches its alpha mask, and composites
// the mask into the original image locally.
func (c *Client) RemoveBackground(ctx context.Context, in snap.Input) (*image.NRGBA, error) {
	if c.apiKey == "" {
		return nil, &APIError{Message: "api key required"}
	}
	img, err := in.Decode()
	if err != nil {
		return nil, err
	}

	upload := img
	if w, h := img.Rect.Dx(), img.Rect.Dy(); w > maxUploadDim || h > maxUploadDim {
		upload = imaging.Fit(img, maxUploadDim, maxUploadDim, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, upload); err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	body, err := json.Marshal(alphaRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1.0/alpha-channel-base64", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result alphaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &APIError{Message: "invalid response body: " + err.Error()}
	}
	if result.AlphaBase64 == "" {
		return nil, &APIError{Message: "response missing alpha channel"}
	}
	alphaBytes, err := base64.StdEncoding.DecodeString(result.AlphaBase64)
	if err != nil {
		return nil, &APIError{Message: "alpha channel is not valid base64"}
	}
	alphaImg, _, err := image.Decode(bytes.NewReader(alphaBytes))
	if err != nil {
		return nil, &APIError{Message: "alpha channel is not a valid image"}
	}

	return snap.ApplyAlpha(img, toGray(alphaImg)), nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &APIError{StatusCode: resp.StatusCode, Message: "invalid api key"}
	case resp.StatusCode == http.StatusPaymentRequired:
		return &APIError{StatusCode: resp.StatusCode, Message: "insufficient credits"}
	case resp.StatusCode == http.StatusForbidden:
		return &APIError{StatusCode: resp.StatusCode, Message: "credits expired"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &APIError{StatusCode: resp.StatusCode, Message: "rate limit exceeded"}
	case resp.StatusCode != http.StatusOK:
		var body alphaResponse
		msg := "request failed"
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
			msg = body.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

// AvailableCredit returns the account's remaining credit.
func (c *Client) AvailableCredit(ctx context.Context) (map[string]any, error) {
	if c.apiKey == "" {
		return nil, &APIError{Message: "api key required"}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/available-credit", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "failed to get credit"}
	}
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &APIError{Message: "invalid response body: " + err.Error()}
	}
	return result, nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			g.Pix[y*g.Stride+x] = uint8(r >> 8)
		}
	}
	return g
}
