package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ParseLimitOffset extracts limit/offset query parameters, clamping the limit
// to [1, MaxListLimit] and the offset to >= 0.
func ParseLimitOffset(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultListLimit)))
	if err != nil || limit < 1 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
