package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"villa-booking/internal/handler/httperr"
	"villa-booking/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last public httperr.Response a handler attached.
// Private errors that never reached a response are logged and become a 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		for i := len(c.Errors) - 1; i >= 0; i-- {
			err := c.Errors[i]
			if !err.IsType(gin.ErrorTypePublic) {
				continue
			}
			if resp, ok := err.Meta.(httperr.Response); ok {
				c.JSON(resp.Status, resp)
				return
			}
		}

		last := c.Errors.Last()
		slog.Error("unhandled request error",
			"request_id", c.GetString("request_id"),
			"path", c.FullPath(),
			"error", last.Error())

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			c.Status(status)
			c.Writer.WriteHeaderNow()
			return
		}
		resp := httperr.Response{Status: http.StatusInternalServerError}
		resp.Error.Message = "Internal server error"
		c.JSON(resp.Status, resp)
	}
}

func CustomRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := errs.New(fmt.Sprint(r))
				slog.Error("recovered from panic",
					"request_id", c.GetString("request_id"),
					"path", c.Request.URL.Path,
					"error", err.Error(),
					"stack", errs.ExtractStackLines(err, 20))

				resp := httperr.Response{Status: http.StatusInternalServerError}
				resp.Error.Message = "Internal server error"
				c.AbortWithStatusJSON(resp.Status, resp)
			}
		}()
		c.Next()
	}
}
