package middleware

import (
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
)

const routeKey = "access_log_route"

// LogApi writes one access line per request, keyed by the matched route
// rather than the raw path. Websocket upgrade requests are tagged ws.
// Requests to skipPaths are not logged.
func LogApi(out io.Writer, skipPaths ...string) gin.HandlerFunc {
	if out == nil {
		out = gin.DefaultWriter
	}
	logger := gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    out,
		SkipPaths: skipPaths,
		Formatter: formatAccessLine,
	})
	return func(c *gin.Context) {
		c.Set(routeKey, c.FullPath())
		logger(c)
	}
}

func formatAccessLine(param gin.LogFormatterParams) string {
	route := param.Path
	if fullPath := routeOf(param); fullPath != "" {
		route = fullPath
	}

	kind := "http"
	if param.Request != nil && isWebSocketUpgrade(param.Request.Header.Get("Connection"), param.Request.Header.Get("Upgrade")) {
		kind = "ws"
	}

	user := "-"
	if id, ok := param.Keys["user_id"]; ok {
		user = fmt.Sprint(id)
	}

	line := fmt.Sprintf("[%s] %s | %d | %s %s | %s | %s | user=%s",
		param.TimeStamp.Format("2006-01-02 15:04:05"),
		kind,
		param.StatusCode,
		param.Method,
		route,
		param.Latency,
		param.ClientIP,
		user,
	)
	if param.ErrorMessage != "" {
		line += " | " + strings.TrimSpace(param.ErrorMessage)
	}
	return line + "\n"
}

// routeOf is the pattern the request matched, e.g. /api/v1/presence/:id.
// Unmatched requests have none.
func routeOf(param gin.LogFormatterParams) string {
	route, _ := param.Keys[routeKey].(string)
	return route
}

func isWebSocketUpgrade(connection, upgrade string) bool {
	if !strings.EqualFold(upgrade, "websocket") {
		return false
	}
	for _, token := range strings.Split(connection, ",") {
		if strings.EqualFold(strings.TrimSpace(token), "upgrade") {
			return true
		}
	}
	return false
}
