// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package requestctx provides the HTTP request-scoped manager named in
// §4.2/C11: a *RequestInfo captured off the inbound fiber.Ctx, nested per
// §4.4, grounded on the teacher's pkg/http/middleware/authorization.go
// (header/claim extraction shape) and pkg/i18n/i18n.go (Locals-based
// request metadata).
package requestctx

import (
	"github.com/go-arcade/ctxprop/pkg/ctxmgr"
	"github.com/gofiber/fiber/v2"
)

// RequestInfo is the slice of an inbound HTTP request worth propagating to
// goroutines spawned while handling it: routing/identity metadata, not the
// request body or the live fiber.Ctx itself (which is only valid for the
// lifetime of the handler call and must never be retained).
type RequestInfo struct {
	RequestID string
	Method    string
	Path      string
	UserAgent string
	ClientIP  string
}

type registerer interface {
	RegisterManager(ctxmgr.Manager)
	ObserverBus() *ctxmgr.ObserverBus
}

// Manager is the HTTP request-scoped context manager.
type Manager struct {
	stack *ctxmgr.ObservedStack
}

// New returns a request-scoped manager, registering itself on rt.
// Activations and deactivations fire through rt's observer bus (§4.5).
func New(rt registerer) *Manager {
	m := &Manager{stack: ctxmgr.NewObservedStack("requestctx", rt.ObserverBus())}
	rt.RegisterManager(m)
	return m
}

func (m *Manager) Name() string { return m.stack.Name }

// InitializeNewContext pushes value, which must be a *RequestInfo, as the
// active request for the calling goroutine.
func (m *Manager) InitializeNewContext(value any) (ctxmgr.Handle, error) {
	return m.stack.Push(value), nil
}

func (m *Manager) ActiveContext() (ctxmgr.Handle, bool) { return m.stack.Active() }

func (m *Manager) ClearActiveContext() { m.stack.Clear() }

// Active returns the active *RequestInfo for the calling goroutine.
func (m *Manager) Active() (*RequestInfo, bool) {
	h, ok := m.stack.Active()
	if !ok {
		return nil, false
	}
	ri, ok := h.Value().(*RequestInfo)
	return ri, ok
}

// Activate pushes ri as the active request for the calling goroutine.
func (m *Manager) Activate(ri *RequestInfo) ctxmgr.Handle {
	return m.stack.Push(ri)
}

// FromFiberCtx extracts a RequestInfo from an inbound fiber request.
func FromFiberCtx(c *fiber.Ctx) *RequestInfo {
	requestID, _ := c.Locals("requestid").(string)
	if requestID == "" {
		requestID = c.Get(fiber.HeaderXRequestID)
	}
	return &RequestInfo{
		RequestID: requestID,
		Method:    c.Method(),
		Path:      c.Path(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		ClientIP:  c.IP(),
	}
}

// Middleware returns a fiber handler that activates a RequestInfo built
// from the inbound request for the duration of the handler chain, closing
// it once the chain returns — the HTTP entry point where a request-scoped
// snapshot becomes available to SupplyAsync/Go/ContextAware callers further
// down the handler.
func Middleware(m *Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := m.Activate(FromFiberCtx(c))
		defer h.Close()
		return c.Next()
	}
}
