package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type JSONResponse struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError writes err with the status of its kind. Storage failures are
// logged and reported without their cause.
func RespondError(c *gin.Context, err error) {
	code := HTTPStatus(err)

	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = StorageError(err)
	}

	message := appErr.Message
	if appErr.Kind == KindStorage {
		ErrorLogger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).WithError(err).Error("request failed")
		message = "internal storage error, please retry"
	}

	c.JSON(code, JSONResponse{
		Status:  false,
		Message: message,
		Errors:  appErr.Fields,
	})
}
