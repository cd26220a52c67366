package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"academy/internal/domain/association"
	"academy/internal/domain/course"
	"academy/internal/domain/plan"
)

// DefaultTimeout bounds each request when no http.Client is supplied.
const DefaultTimeout = 10 * time.Second

// APIError is a failed API call: a non-2xx status, an unreadable body, or success=false.
type APIError struct {
	Status  int
	Message string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("api error: HTTP %d: %s", e.Status, e.Message)
}

// UserMessage returns the server's message, for display to the operator.
func (e *APIError) UserMessage() string {
	return e.Message
}

// Client talks to the academy REST API and implements planeditor.Source.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client for baseURL with a default timeout.
func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: &http.Client{Timeout: DefaultTimeout}}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// do sends one request and decodes the envelope, placing data into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) (string, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read %s %s: %w", method, path, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", &APIError{Status: resp.StatusCode, Message: messageFromStatus(resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = messageFromStatus(resp.StatusCode)
		}
		return "", &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", &APIError{Status: resp.StatusCode, Message: "unexpected response data"}
		}
	}
	return env.Message, nil
}

func messageFromStatus(status int) string {
	if status >= 200 && status <= 299 {
		return "unexpected response body"
	}
	return http.StatusText(status)
}

// ListCourses fetches the full catalogue.
func (c *Client) ListCourses(ctx context.Context) ([]course.Course, error) {
	var list []course.Course
	if _, err := c.do(ctx, http.MethodGet, "/api/courses", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListPlanCourses fetches the courses linked to planID.
func (c *Client) ListPlanCourses(ctx context.Context, planID string) ([]course.Course, error) {
	var list []course.Course
	if _, err := c.do(ctx, http.MethodGet, planCoursesPath(planID), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ApplyPlanCourses submits d and returns the server's confirmation message.
// PRE: d is non-empty
// POST: On error nothing was applied server-side
func (c *Client) ApplyPlanCourses(ctx context.Context, planID string, d association.Diff) (string, error) {
	payload := association.Diff{Add: d.Add, Remove: d.Remove}
	if payload.Add == nil {
		payload.Add = []string{}
	}
	if payload.Remove == nil {
		payload.Remove = []string{}
	}
	return c.do(ctx, http.MethodPost, planCoursesPath(planID), payload, nil)
}

// ListBillingPlans fetches every billing plan.
func (c *Client) ListBillingPlans(ctx context.Context) ([]plan.Plan, error) {
	var list []plan.Plan
	if _, err := c.do(ctx, http.MethodGet, "/api/billing-plans", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func planCoursesPath(planID string) string {
	return "/api/plans/" + url.PathEscape(planID) + "/courses"
}
