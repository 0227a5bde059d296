// Package response writes the achievement API envelope:
//
//	{"success": bool, "message": string, "status_code": int, "data": ...}
//
// List responses nest data under {"contents": [...], "pagination": {...}}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pagination metadata returned with paginated responses.
type Pagination struct {
	TotalRow    int64 `json:"total_row"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	IsLastPage  bool  `json:"is_last_page"`
}

type envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
}

type listData struct {
	Contents   interface{} `json:"contents"`
	Pagination Pagination  `json:"pagination"`
}

// OK sends a 200 success envelope.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, StatusCode: http.StatusOK, Data: data})
}

// Paged sends a 200 list envelope with pagination metadata.
func Paged(c *gin.Context, contents interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, envelope{
		Success:    true,
		StatusCode: http.StatusOK,
		Data:       listData{Contents: contents, Pagination: pagination},
	})
}

// Created sends a 201 success envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, StatusCode: http.StatusCreated, Data: data})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 error envelope.
func BadRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error envelope.
func Unauthorized(c *gin.Context) {
	fail(c, http.StatusUnauthorized, "authentication required")
}

// Forbidden sends a 403 error envelope.
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Not Authorized"
	}
	fail(c, http.StatusForbidden, message)
}

// NotFound sends a 404 error envelope.
func NotFound(c *gin.Context) {
	fail(c, http.StatusNotFound, "not found")
}

// NotFoundMsg sends a 404 error envelope with a custom message.
func NotFoundMsg(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, message)
}

// MethodNotAllowed sends a 405 error envelope.
func MethodNotAllowed(c *gin.Context) {
	fail(c, http.StatusMethodNotAllowed, "method not allowed")
}

// Conflict sends a 409 error envelope.
func Conflict(c *gin.Context, message string) {
	fail(c, http.StatusConflict, message)
}

// UnprocessableEntity sends a 422 error envelope.
func UnprocessableEntity(c *gin.Context, message string) {
	fail(c, http.StatusUnprocessableEntity, message)
}

// InternalError sends a 500 error envelope.
func InternalError(c *gin.Context, err error) {
	fail(c, http.StatusInternalServerError, err.Error())
}

func fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, envelope{Success: false, StatusCode: code, Message: message})
}
