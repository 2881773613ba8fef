package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stridesec/threatflow/internal/attack"
	"github.com/stridesec/threatflow/internal/platform/logger"
)

const maxErrorBodyBytes = 1024

// Fixed namespace so the same technique always maps to the same point and
// re-seeding is an overwrite, not a duplicate.
var pointIDNamespace = uuid.MustParse("7f3b9d44-61ce-4e8a-b7b0-5a4c0de1a9f2")

/*
Client is a minimal REST client for the Qdrant instance the threat-modeling
backend searches against. It upserts technique vectors into an existing
collection; creating or shaping the collection belongs to the backend's
provisioning, not to this tool.
*/
type Client struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if log != nil {
		log = log.With("component", "QdrantClient")
	}
	return &Client{
		log:     log,
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// Ready confirms the instance answers its readiness probe and that the
// target collection exists with a compatible vector size.
func (c *Client) Ready(ctx context.Context) error {
	const op = "ready"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "qdrant ready check failed", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorRequestFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", resp.StatusCode),
		}
	}

	var result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	if err := c.doJSON(ctx, op, http.MethodGet, c.collectionPath(""), nil, &result); err != nil {
		return err
	}
	if size := result.Config.Params.Vectors.Size; size != 0 && size != c.cfg.VectorDim {
		return &OperationError{
			Code:      OperationErrorValidation,
			Operation: op,
			Message: fmt.Sprintf("collection %q vector size mismatch: expected=%d actual=%d",
				c.cfg.Collection, c.cfg.VectorDim, size),
		}
	}
	return nil
}

/*
UpsertTechniques writes technique vectors into the collection in batches of
batchSize (defaults to 100 when non-positive) and returns how many points
were upserted. Vector dimensionality is validated against the configured
collection size before any request goes out.
*/
func (c *Client) UpsertTechniques(ctx context.Context, techniques []attack.Technique, batchSize int) (int, error) {
	const op = "upsert"
	if len(techniques) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	for _, tech := range techniques {
		if strings.TrimSpace(tech.ID) == "" {
			return 0, opErr(op, OperationErrorValidation, "technique id is required", nil)
		}
		if len(tech.Vector) != c.cfg.VectorDim {
			return 0, opErr(op, OperationErrorValidation,
				fmt.Sprintf("technique %q dimension mismatch: expected=%d got=%d", tech.ID, c.cfg.VectorDim, len(tech.Vector)), nil)
		}
	}

	upserted := 0
	for start := 0; start < len(techniques); start += batchSize {
		end := start + batchSize
		if end > len(techniques) {
			end = len(techniques)
		}
		batch := techniques[start:end]

		points := make([]map[string]any, 0, len(batch))
		for _, tech := range batch {
			points = append(points, map[string]any{
				"id":     c.PointID(tech.ID),
				"vector": tech.Vector,
				"payload": map[string]any{
					"technique_id": tech.ID,
					"name":         tech.Name,
					"tactics":      tech.Tactics,
					"description":  tech.Description,
				},
			})
		}
		req := map[string]any{"points": points}
		if err := c.doJSON(ctx, op, http.MethodPut, c.collectionPath("/points?wait=true"), req, nil); err != nil {
			return upserted, err
		}
		upserted += len(batch)
		if c.log != nil {
			c.log.Debug("Upserted technique batch", "collection", c.cfg.Collection, "batch", len(batch), "total", upserted)
		}
	}
	return upserted, nil
}

// PointID derives the stable point UUID for a technique ID.
func (c *Client) PointID(techniqueID string) string {
	return uuid.NewSHA1(pointIDNamespace, []byte(strings.TrimSpace(techniqueID))).String()
}

func (c *Client) collectionPath(suffix string) string {
	return "/collections/" + c.cfg.Collection + suffix
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*maxErrorBodyBytes))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorRequestFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func truncateBody(raw []byte) string {
	if len(raw) > maxErrorBodyBytes {
		raw = raw[:maxErrorBodyBytes]
	}
	return string(raw)
}
