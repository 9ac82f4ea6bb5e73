// Package handler contains the Echo HTTP handlers.  Each handler
// struct bundles its dependencies (config, repositories, stores) and
// is constructed once in the router.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// deviceIDHeader identifies the client device for the session and
// cart stores.  Devices generate the id once and send it on every
// request; the value is opaque to the server.
const deviceIDHeader = "X-Device-ID"

// deviceID extracts the device id header, or "" when absent.
func deviceID(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get(deviceIDHeader))
}

// requireDevice responds 400 when no device id header is present.
func requireDevice(c echo.Context) (string, bool) {
	id := deviceID(c)
	if id == "" {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "missing " + deviceIDHeader + " header"})
		return "", false
	}
	return id, true
}

// paramUint parses a numeric path parameter; 0 means absent/invalid.
func paramUint(c echo.Context, name string) uint64 {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// queryUint parses a numeric query parameter; 0 means absent/invalid.
func queryUint(c echo.Context, name string) uint64 {
	n, err := strconv.ParseUint(c.QueryParam(name), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
