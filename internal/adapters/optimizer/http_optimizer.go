package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"logistics-dashboard-service/internal/platform/obs"
	"logistics-dashboard-service/internal/ports"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidResponse marks a 2xx response that does not match the route contract.
var ErrInvalidResponse = errors.New("invalid optimizer response")

type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("optimizer returned status %d: %s", e.Code, e.Body)
}

// HTTPOptimizer implements ports.RouteOptimizer by POSTing the request to an
// external optimization function. It issues exactly one call per request:
// optimization is not idempotent from the operator's point of view, so a
// failure is surfaced rather than retried.
type HTTPOptimizer struct {
	session  *http.Client
	url      string
	validate *validator.Validate
}

func NewHTTPOptimizer(url string, timeout time.Duration) (*HTTPOptimizer, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("optimizer url is empty")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &HTTPOptimizer{
		session:  &http.Client{Timeout: timeout},
		url:      url,
		validate: validator.New(),
	}, nil
}

// wireResponse tolerates the extra summary fields the optimizer echoes back.
type wireResponse struct {
	Month       string `json:"month,omitempty"`
	TotalRoutes int    `json:"total_routes,omitempty"`
	ports.OptimizationResponse
}

func (o *HTTPOptimizer) Optimize(
	ctx context.Context,
	req ports.OptimizationRequest,
) (_ ports.OptimizationResponse, err error) {
	defer obs.Time(ctx, "optimizer.Optimize")(&err)

	body, err := json.Marshal(req)
	if err != nil {
		return ports.OptimizationResponse{}, fmt.Errorf("optimize: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return ports.OptimizationResponse{}, fmt.Errorf("optimize: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := o.session.Do(httpReq)
	if err != nil {
		return ports.OptimizationResponse{}, fmt.Errorf("optimize: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ports.OptimizationResponse{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var decoded wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.OptimizationResponse{}, fmt.Errorf("optimize: decode response: %w: %w", ErrInvalidResponse, err)
	}

	out := decoded.OptimizationResponse
	for i, r := range out.Routes {
		if err := o.validate.Struct(r); err != nil {
			return ports.OptimizationResponse{}, fmt.Errorf("optimize: route #%d: %w: %w", i+1, ErrInvalidResponse, err)
		}
		if len(r.Path) == 1 {
			return ports.OptimizationResponse{}, fmt.Errorf("optimize: route #%d: %w: path needs at least two points", i+1, ErrInvalidResponse)
		}
	}

	return out, nil
}
