// Package response renders every HTTP reply in the storefront envelope:
// {"status":"success","data":...,"meta":...} or
// {"status":"error","error":{"kind","message","details"}}.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nrbrt02/fast-shopping/pkg/errorbank"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the body of a successful response.
type Envelope struct {
	Status string         `json:"status"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// ErrorEnvelope is the body of a failed response.
type ErrorEnvelope struct {
	Status string         `json:"status"`
	Error  ErrorBody      `json:"error"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// ErrorBody describes a failure. Details carries "reason" for domain errors.
type ErrorBody struct {
	Kind    errorbank.Kind `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Builder accumulates one response and writes it with Build.
type Builder struct {
	ctx    echo.Context
	status int
	data   any
	err    error
	meta   map[string]any
}

func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx}
}

// WithStatus overrides the status code. For errors only codes >= 400 are honoured.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithError switches the response to the error envelope.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

func (b *Builder) WithMeta(key string, value any) *Builder {
	if key == "" {
		return b
	}
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = value
	return b
}

// WithPage records the effective paging window of a list response.
func (b *Builder) WithPage(limit, offset int) *Builder {
	return b.WithMeta("limit", limit).WithMeta("offset", offset)
}

// Build writes the response. HEAD requests get the status code only.
func (b *Builder) Build() error {
	status, body := b.render()
	if b.ctx.Request().Method == http.MethodHead {
		return b.ctx.NoContent(status)
	}
	return b.ctx.JSON(status, body)
}

func (b *Builder) render() (int, any) {
	if b.err == nil {
		status := b.status
		if status == 0 {
			status = http.StatusOK
		}
		return status, Envelope{Status: StatusSuccess, Data: b.data, Meta: b.meta}
	}

	appErr := errorbank.From(b.err)
	status := b.status
	if status < http.StatusBadRequest {
		status = appErr.StatusCode()
	}
	return status, ErrorEnvelope{
		Status: StatusError,
		Error: ErrorBody{
			Kind:    appErr.Kind(),
			Message: appErr.Message(),
			Details: appErr.Details(),
		},
		Meta: b.meta,
	}
}
