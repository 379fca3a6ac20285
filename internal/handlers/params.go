package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cpg716/SuitSync-sub003/internal/httperr"
)

// parseID reads a positive uint path parameter. On failure it has already
// written the 400 response.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_"+name, "Invalid "+name+".")
		return 0, false
	}
	return uint(id), true
}

// parseOptionalID reads a query parameter; empty yields nil.
func parseOptionalID(raw string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, strconv.ErrSyntax
	}
	v := uint(id)
	return &v, nil
}

// parseDateInShop accepts YYYY-MM-DD in the shop location.
func parseDateInShop(loc *time.Location, s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
}

// parseDateTimeInShop accepts RFC 3339, or "YYYY-MM-DD HH:MM" read in the
// shop location.
func parseDateTimeInShop(loc *time.Location, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02 15:04", s, loc)
}
