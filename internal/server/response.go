package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beemapp/beem-server/internal/apperr"
	"github.com/beemapp/beem-server/internal/logger"
)

// All responses share one envelope: a short machine code, a message, and
// an optional payload.
func handleSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code": "ok",
		"msg":  "success",
		"data": data,
	})
}

// handleError maps domain error kinds to HTTP statuses and codes. Unknown
// errors are logged and reported as internal without leaking detail.
func handleError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	msg := err.Error()
	if kind == apperr.KindInternal {
		logger.Error("handler error",
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"err", err,
		)
		msg = "internal error"
	}
	c.JSON(apperr.HTTPStatus(kind), gin.H{
		"code": apperr.Code(kind),
		"msg":  msg,
		"data": nil,
	})
}

// handleParamError reports request binding failures.
func handleParamError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code": apperr.Code(apperr.KindInvalid),
		"msg":  "invalid request: " + err.Error(),
		"data": nil,
	})
}
