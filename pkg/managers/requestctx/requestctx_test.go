package requestctx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-arcade/ctxprop/pkg/runtime"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(method, path, requestID string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(fiber.HeaderXRequestID, requestID)
	return req, nil
}

func TestManagerActivateAndRestore(t *testing.T) {
	rt := runtime.New()
	m := New(rt)

	ri := &RequestInfo{RequestID: "req-1", Method: "GET", Path: "/widgets"}
	h := m.Activate(ri)

	active, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, "req-1", active.RequestID)

	require.NoError(t, h.Close())
	_, ok = m.Active()
	assert.False(t, ok)
}

func TestMiddlewareActivatesAndClosesAroundHandler(t *testing.T) {
	rt := runtime.New()
	m := New(rt)

	app := fiber.New()
	app.Use(Middleware(m))

	var sawRequestID string
	var sawActiveDuringHandler bool
	app.Get("/widgets/:id", func(c *fiber.Ctx) error {
		ri, ok := m.Active()
		sawActiveDuringHandler = ok
		if ok {
			sawRequestID = ri.RequestID
		}
		return c.SendStatus(fiber.StatusOK)
	})

	req, err := newRequest("GET", "/widgets/42", "req-77")
	require.NoError(t, err)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.True(t, sawActiveDuringHandler)
	assert.Equal(t, "req-77", sawRequestID)

	_, ok := m.Active()
	assert.False(t, ok, "request context must be closed once the handler chain returns")
}
