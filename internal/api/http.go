package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/middlewares"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/i18n"
)

// maxBodySize bounds JSON and form bodies of API actions.
const maxBodySize = 1 << 20

// Generic error identifiers for failures that are not UserErrors.
const (
	CodeInternal = "internal-error"
	CodeTimeout  = "timeout"
	CodeUnknown  = "unknown-error"
)

// Handler serves the dispatcher over HTTP: GET /api/v1/* reads parameters
// from the query string, POST /api/v1/* from a JSON or form body.
type Handler struct {
	d *Dispatcher
}

func NewHandler(d *Dispatcher) *Handler {
	return &Handler{d: d}
}

func (h *Handler) Routes(r internal.Router) {
	r.Route("/api", func(r internal.Router) {
		r.GET("/v1/*", h.load)
		r.POST("/v1/*", h.action)
		r.POST("/session/logout", h.logout, middlewares.RequireUser())
	})
}

func (h *Handler) load(c internal.Context) error {
	return h.call(c, formParams(c.Request().URL.Query()), AsLoader())
}

func (h *Handler) action(c internal.Context) error {
	raw, err := bodyParams(c.Response(), c.Request())
	if err != nil {
		c.LogDebug("invalid request body", slog.Any("error", err))
		return NewError(CodeBadFormat)
	}
	return h.call(c, raw)
}

func (h *Handler) call(c internal.Context, raw map[string]any, opts ...CallOption) error {
	path := "v1/" + strings.Trim(c.Param("*"), "/")
	res, err := h.d.Call(c, c.UserID(), path, raw, append(opts, WithSession(c))...)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) logout(c internal.Context) error {
	if err := c.DestroySession(); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func bodyParams(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		raw := make(map[string]any)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return raw, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodySize); err != nil {
			return nil, err
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
	}
	return formParams(r.Form), nil
}

// formParams keeps single values as strings and repeated ones as []string.
func formParams(values url.Values) map[string]any {
	raw := make(map[string]any, len(values))
	for key, vs := range values {
		if len(vs) == 1 {
			raw[key] = vs[0]
		} else {
			raw[key] = vs
		}
	}
	return raw
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Param     string `json:"param,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// ErrorHandler renders failures as {"error": {code, message, param, requestId}}.
// UserErrors keep their identifier and get a translated message; anything
// unexpected becomes a logged 500.
func ErrorHandler(c internal.Context, err error) error {
	status := http.StatusInternalServerError
	body := errorBody{RequestID: middlewares.GetRequestID(c)}

	if ue, ok := AsUserError(err); ok {
		status = ue.StatusCode()
		body.Code, body.Param = ue.ID, ue.Param
	} else if he := internal.AsHTTPError(err); he != nil {
		status = he.StatusCode()
		body.Code, body.Param, body.Message = he.ErrorCode, he.Param, he.Message
		if he.RequestID != "" {
			body.RequestID = he.RequestID
		}
	} else if _, ok := middlewares.AsTimeoutError(err); ok {
		status = http.StatusServiceUnavailable
		body.Code = CodeTimeout
	} else {
		body.Code = CodeInternal
	}

	if body.Code == "" {
		body.Code = CodeUnknown
	}
	if body.Message == "" {
		body.Message = message(c, body.Code, body.Param, status)
	}

	if status >= http.StatusInternalServerError {
		c.LogError("request failed",
			slog.String("path", c.Request().URL.Path),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}
	return c.JSON(status, errorResponse{Error: body})
}

// message translates code, falling back to the generic message and finally
// to the status text.
func message(c internal.Context, code, param string, status int) string {
	m := i18n.M{"param": param}
	if msg := c.T(code, m); msg != code {
		return msg
	}
	if msg := c.T(CodeUnknown, m); msg != CodeUnknown {
		return msg
	}
	return http.StatusText(status)
}
