package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/storedesk/pkg/errors"
)

// Page is the list envelope shared by every paginated endpoint.
type Page struct {
	Data    interface{} `json:"data"`
	HasMore bool        `json:"has_more"`
}

// ErrorBody is the payload written for failed requests.
type ErrorBody struct {
	Success bool       `json:"success"`
	Error   *ErrorInfo `json:"error"`
}

// ErrorInfo holds error details to send to clients.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes data as the bare JSON body.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// Paged writes one page of a collection.
func Paged(c *gin.Context, data interface{}, hasMore bool) {
	c.JSON(http.StatusOK, Page{Data: data, HasMore: hasMore})
}

// Ack acknowledges a write that returns no entity.
func Ack(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Error writes a JSON error response derived from an AppError.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorBody{
		Success: false,
		Error: &ErrorInfo{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	})
}
