// internal/devapi/handler.go

// Package devapi is an in-memory development backend that serves the
// TrackPro wire contract for local runs and contract tests. It is not part
// of the client: client packages never import it, and GPX parsing and
// metrics here exist only so uploads round-trip locally.
package devapi

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/page"
	"trackpro-client/internal/pkg/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Handler serves every route of the dev backend from one Store.
type Handler struct {
	store  *Store
	auth   *AuthService
	logger *zap.Logger
}

func NewHandler(store *Store, auth *AuthService, logger *zap.Logger) *Handler {
	return &Handler{store: store, auth: auth, logger: logger}
}

// pathID parses a positive int64 route parameter or answers 400.
func pathID(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ValidationError(c, "invalid "+label)
		return 0, false
	}
	return id, true
}

// pageParams reads page and pageSize; bad values fall back to defaults.
func pageParams(c *gin.Context) (int, int) {
	pageNum, err := strconv.Atoi(c.Query("page"))
	if err != nil || pageNum < 1 {
		pageNum = 1
	}
	pageSize, err := strconv.Atoi(c.Query("pageSize"))
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	return pageNum, min(pageSize, maxPageSize)
}

func paginate[T any](items []T, pageNum, pageSize int) page.Page[T] {
	start := min((pageNum-1)*pageSize, len(items))
	end := min(start+pageSize, len(items))
	return page.New(items[start:end], len(items), pageNum, pageSize)
}

// queryCursor reads an optional int64 cursor; ok is false after a 400.
func queryCursor(c *gin.Context) (*int64, bool) {
	raw := c.Query("cursor")
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid cursor")
		return nil, false
	}
	return &v, true
}

// queryLimit returns 0 when absent or invalid; the store applies defaults.
func queryLimit(c *gin.Context) int {
	v, err := strconv.Atoi(c.Query("limit"))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
