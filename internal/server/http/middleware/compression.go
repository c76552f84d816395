package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	gingzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// DecompressRequest transparently handles gzip encoded requests.
func DecompressRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Content-Encoding"), "gzip") {
			c.Next()
			return
		}

		originalBody := c.Request.Body
		reader, err := gzip.NewReader(originalBody)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed gzip body"})
			return
		}
		defer reader.Close()
		defer originalBody.Close()

		c.Request.Body = io.NopCloser(reader)
		c.Request.Header.Del("Content-Encoding")
		c.Next()
	}
}

// CompressResponse gzips responses except on the given paths. Websocket
// upgrades must be excluded because the hijacked connection cannot be wrapped.
func CompressResponse(excluded ...string) gin.HandlerFunc {
	return gingzip.Gzip(gingzip.DefaultCompression, gingzip.WithExcludedPaths(excluded))
}
