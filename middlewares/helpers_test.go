package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
)

type route struct {
	fn  internal.HandlerFunc
	mws []internal.Middleware
}

func (r route) Routes(rt internal.Router) {
	rt.GET("/", r.fn, r.mws...)
	rt.POST("/", r.fn, r.mws...)
	rt.PUT("/", r.fn, r.mws...)
}

// jsonErrors renders HTTPErrors as {"code": ...} and anything else as 500.
func jsonErrors(c internal.Context, err error) error {
	if httpErr := internal.AsHTTPError(err); httpErr != nil {
		return c.JSON(httpErr.Code, map[string]string{"code": httpErr.ErrorCode, "message": httpErr.Message})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// do serves req through global middleware mws and a handler with route middleware.
func do(t *testing.T, req *http.Request, mws []internal.Middleware, h internal.HandlerFunc, extra ...internal.Option) *httptest.ResponseRecorder {
	t.Helper()

	opts := append([]internal.Option{
		internal.WithMiddleware(mws...),
		internal.WithErrorHandler(jsonErrors),
		internal.WithHandlers(route{fn: h}),
	}, extra...)
	w := httptest.NewRecorder()
	internal.New(opts...).ServeHTTP(w, req)
	return w
}

func ok(c internal.Context) error {
	return c.String(http.StatusOK, "ok")
}
