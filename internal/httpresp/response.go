package httpresp

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Item wraps a single entity under key, e.g. {"barber": {...}}.
func Item(c *gin.Context, status int, key string, data any) {
	c.JSON(status, gin.H{key: data})
}

// List wraps a collection under key and never renders null.
func List[T any](c *gin.Context, key string, data []T) {
	if data == nil {
		data = []T{}
	}
	c.JSON(http.StatusOK, gin.H{key: data})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
