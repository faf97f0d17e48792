// Package client is an HTTP client for the task API.
package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	domain "github.com/CodeineSolm/taskmaster/domain/task"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds each request when the context has no deadline.
const DefaultTimeout = 10 * time.Second

// ErrBlankTitle is returned by Create before any request is made.
var ErrBlankTitle = errors.New("title must not be blank")

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], "; "))
	}
	return fmt.Sprintf("%d: %s (%s)", e.StatusCode, e.Message, strings.Join(parts, ", "))
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == fiber.StatusNotFound
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// Client talks to a task API rooted at BaseURL, e.g. "http://localhost:8080".
type Client struct {
	baseURL string
	timeout time.Duration
}

// New creates a client for baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: DefaultTimeout,
	}
}

func (c *Client) url(format string, args ...any) string {
	return c.baseURL + fmt.Sprintf(format, args...)
}

// do sends the request and decodes a successful body into out, if given.
func (c *Client) do(ctx context.Context, a *fiber.Agent, want int, out any) error {
	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	code, body, errs := a.Timeout(timeout).Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request failed: %w", errors.Join(errs...))
	}

	if code != want {
		apiErr := &APIError{StatusCode: code}
		var eb errorBody
		if err := sonic.Unmarshal(body, &eb); err == nil {
			apiErr.Message = eb.Message
			apiErr.Fields = eb.Errors
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// List fetches every task in server order.
func (c *Client) List(ctx context.Context) ([]domain.View, error) {
	var views []domain.View
	if err := c.do(ctx, fiber.Get(c.url("/tasks")), fiber.StatusOK, &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (c *Client) Get(ctx context.Context, id int64) (domain.View, error) {
	var view domain.View
	err := c.do(ctx, fiber.Get(c.url("/tasks/%d", id)), fiber.StatusOK, &view)
	return view, err
}

// Create trims the title and description and refuses a blank title
// locally. An empty description is sent as null.
func (c *Client) Create(ctx context.Context, title, description string) (domain.View, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.View{}, ErrBlankTitle
	}

	req := domain.CreateInput{Title: title}
	if d := strings.TrimSpace(description); d != "" {
		req.Description = &d
	}

	a := fiber.Post(c.url("/tasks")).JSONEncoder(sonic.Marshal).JSON(req)

	var view domain.View
	err := c.do(ctx, a, fiber.StatusCreated, &view)
	return view, err
}

func (c *Client) Update(ctx context.Context, id int64, in domain.UpdateInput) error {
	a := fiber.Put(c.url("/tasks/%d", id)).JSONEncoder(sonic.Marshal).JSON(in)
	return c.do(ctx, a, fiber.StatusNoContent, nil)
}

func (c *Client) Toggle(ctx context.Context, id int64) (domain.View, error) {
	var view domain.View
	err := c.do(ctx, fiber.Patch(c.url("/tasks/%d/toggle", id)), fiber.StatusOK, &view)
	return view, err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, fiber.Delete(c.url("/tasks/%d", id)), fiber.StatusNoContent, nil)
}
