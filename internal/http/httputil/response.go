package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/route-executor/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, err string) {
	c.JSON(status, Response{
		Success: false,
		Error:   err,
	})
}

// HandleSuccess writes a 200 envelope.
func HandleSuccess(c *gin.Context, data interface{}) {
	Success(c, data)
}

func HandleBadRequest(c *gin.Context, err string) {
	HandleHttpError(c, common.HTTPErrorBadRequest(err), nil)
}

func HandleNotFound(c *gin.Context, err string) {
	HandleHttpError(c, common.HTTPErrorNotFound(err), nil)
}

func HandleInternalError(c *gin.Context, err string) {
	HandleHttpError(c, common.HTTPErrorInternalError(err), nil)
}

// HandleHttpError writes herr as the envelope. data, when set, is returned
// alongside the error (a failed execution report, for instance).
func HandleHttpError(c *gin.Context, herr *common.HttpError, data interface{}) {
	c.JSON(herr.StatusCode, Response{
		Success: false,
		Data:    data,
		Code:    herr.Code,
		Error:   herr.Message,
	})
}
