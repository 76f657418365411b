package middleware

import (
	"QualityCheck/pkg/log"
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
)

// NewRecoverMiddleware turns returned errors and panics from the rest of the
// chain into a mapped plain-text response.
func (m *middleware) NewRecoverMiddleware(c *fiber.Ctx) (err error) {
	requestID := m.GetRequestID(c)

	defer func() {
		if r := recover(); r != nil {
			err = m.errHandler.HandleWithFields(c, requestID, fmt.Errorf("panic: %v", r), "recover", log.Fields{
				"stack": string(debug.Stack()),
			})
		}
	}()

	if err = c.Next(); err != nil {
		return m.errHandler.Handle(c, requestID, err, c.Route().Path)
	}

	return nil
}
