// Package controllers maps HTTP requests onto the services. Handlers stay
// thin: parse, call, transform, respond. Domain errors carry their own
// HTTP status through exceptions.HTTPStatus.
package controllers

import (
	"fmt"
	"strconv"

	"drivebox/app/exceptions"
	"drivebox/pkg/ctx"
	"drivebox/pkg/logger"
)

// respondError translates a service error into its HTTP response. Anything
// without a domain kind is a 500 and gets logged with its cause; the client
// only ever sees the generic message.
func respondError(c *ctx.Context, err error) {
	status, message := exceptions.HTTPStatus(err)
	if status >= 500 {
		logger.Error("request failed",
			"method", c.Method(), "path", c.Path(), "error", err)
	}
	c.Error(status, message)
}

// parseScope resolves a folder reference from a query or form value. Empty
// and "root" address the root; anything else must be a positive ID.
func parseScope(raw string) (*uint, error) {
	if raw == "" || raw == "root" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil, fmt.Errorf("invalid folder reference %q", raw)
	}
	id := uint(n)
	return &id, nil
}
