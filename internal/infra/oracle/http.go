package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/grading"
	"github.com/go-resty/resty/v2"
)

// HTTP posts grading batches to an external grading service:
//
//	POST {url} {"questions": [...]}
//
// and expects the oracle response document as the body.
type HTTP struct {
	client *resty.Client
	url    string
}

func NewHTTP(url, token string, timeout time.Duration) *HTTP {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTP{client: client, url: url}
}

type gradeRequest struct {
	Questions []grading.OracleItem `json:"questions"`
}

func (h *HTTP) Grade(ctx context.Context, items []grading.OracleItem) (grading.OracleResponse, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(gradeRequest{Questions: items}).
		Post(h.url)
	if err != nil {
		return grading.OracleResponse{}, fmt.Errorf("grading request: %w", err)
	}
	if resp.IsError() {
		return grading.OracleResponse{}, fmt.Errorf("grading service returned %d: %s", resp.StatusCode(), resp.String())
	}
	return grading.DecodeResponse(resp.Body())
}
