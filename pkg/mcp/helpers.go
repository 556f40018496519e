package mcp

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// JSONRPCSuccess returns a successful JSON-RPC 2.0 response.
//
// Example:
//
//	return JSONRPCSuccess(c, req.ID, ToolsListResult{Tools: defs})
func JSONRPCSuccess(c echo.Context, id any, result any) error {
	return c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

// JSONRPCErrorWithContext returns a JSON-RPC 2.0 error response with
// debugging context.
//
// The request's correlation ID is included in the error data so a
// client-reported failure can be matched against the server log.
//
// Example:
//
//	if err := json.Unmarshal(req.Params, &params); err != nil {
//	    return JSONRPCErrorWithContext(c, req.ID, InvalidParams, err)
//	}
func JSONRPCErrorWithContext(c echo.Context, id any, code int, err error) error {
	traceID := c.Response().Header().Get(echo.HeaderXRequestID)
	if traceID == "" {
		traceID = c.Request().Header.Get(echo.HeaderXRequestID)
	}

	return c.JSON(http.StatusOK, JSONRPCError{
		JSONRPC: "2.0",
		ID:      id,
		Error: &ErrorDetail{
			Code:    code,
			Message: err.Error(),
			Data: map[string]any{
				"trace_id":   traceID,
				"error_type": fmt.Sprintf("%T", err),
				"timestamp":  time.Now().Format(time.RFC3339),
			},
		},
	})
}
