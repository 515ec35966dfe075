// Package clip provides an Embedder backed by a CLIP embedding sidecar over
// HTTP. The sidecar exposes /embed/image (base64 JPEG in) and /embed/text
// (string in); both return a fixed-length vector which this client
// L2-normalizes so that similarity is a plain dot product.
package clip

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"net/http"
	"time"

	"github.com/walkielabs/go-walkie/internal/httpc"
)

// DefaultTimeout bounds a single embedding request.
const DefaultTimeout = 10 * time.Second

// Client talks to the CLIP sidecar.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a CLIP client for the given base URL
// (e.g. "http://127.0.0.1:8600").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpc.NewClient(DefaultTimeout),
	}
}

type imageRequest struct {
	ImageB64 string `json:"image_b64"`
}

type textRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// EmbedImage encodes the image as JPEG and returns its normalized embedding.
func (c *Client) EmbedImage(img image.Image) ([]float32, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("clip: encode image: %w", err)
	}
	body, err := json.Marshal(imageRequest{
		ImageB64: base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	if err != nil {
		return nil, fmt.Errorf("clip: marshal request: %w", err)
	}
	return c.post("/embed/image", body)
}

// EmbedText returns the normalized embedding for the given text.
func (c *Client) EmbedText(text string) ([]float32, error) {
	body, err := json.Marshal(textRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("clip: marshal request: %w", err)
	}
	return c.post("/embed/text", body)
}

func (c *Client) post(path string, body []byte) ([]float32, error) {
	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("clip: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clip: embedding service returned status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("clip: decode response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("clip: empty embedding")
	}

	return normalize(out.Embedding), nil
}

// normalize rescales v to unit L2 norm so dot products are cosine
// similarities.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
