// internal/devapi/activity_handler.go
package devapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/activity"
	"trackpro-client/internal/middleware"
	"trackpro-client/internal/pkg/response"
)

const maxUploadBytes = 25 << 20

// UploadActivity parses a multipart GPX upload ("file", "sportType") and
// stores it with computed metrics.
func (h *Handler) UploadActivity(c *gin.Context) {
	id := middleware.MustGetIdentity(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, "file exceeds 25MB", "")
			return
		}
		response.ValidationError(c, "missing file field")
		return
	}

	f, err := header.Open()
	if err != nil {
		response.ValidationError(c, "failed to read uploaded file")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		response.ValidationError(c, "failed to read uploaded file")
		return
	}

	name, points, err := ParseGPX(content)
	if err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	sport := activity.SportType(strings.ToLower(strings.TrimSpace(c.PostForm("sportType"))))
	if !sport.Valid() {
		sport = activity.SportOther
	}
	metrics, date := ComputeMetrics(points, h.store.now())

	created := h.store.CreateActivity(id.User.ID, activity.ActivityResponse{
		FileName:     header.Filename,
		SportType:    sport,
		Name:         name,
		ActivityDate: date,
		Metrics:      metrics,
		Points:       points,
	})

	h.logger.Info("activity uploaded",
		zap.Int64("user_id", id.User.ID),
		zap.Int64("activity_id", created.ID),
		zap.Int("points", len(points)),
	)
	response.JSON(c, http.StatusCreated, created)
}

func (h *Handler) ListActivities(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	pageNum, pageSize := pageParams(c)
	response.JSON(c, http.StatusOK, paginate(h.store.ListActivities(id.User.ID), pageNum, pageSize))
}

func (h *Handler) GetActivity(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	activityID, ok := pathID(c, "id", "activity id")
	if !ok {
		return
	}

	a, err := h.store.GetActivity(id.User.ID, activityID)
	if err != nil {
		response.NotFound(c, "activity not found")
		return
	}
	response.JSON(c, http.StatusOK, a)
}
