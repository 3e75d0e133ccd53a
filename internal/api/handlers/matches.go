package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/rallyscope/internal/models"
	"github.com/your-org/rallyscope/internal/orchestrator"
	"github.com/your-org/rallyscope/internal/storage"
	"github.com/your-org/rallyscope/pkg/dto"
)

const timeLayout = "2006-01-02T15:04:05Z"

type MatchHandler struct {
	orch        *orchestrator.Orchestrator
	videos      *storage.VideoStore
	maxUploadMB int64
}

func NewMatchHandler(orch *orchestrator.Orchestrator, videos *storage.VideoStore, maxUploadMB int64) *MatchHandler {
	return &MatchHandler{orch: orch, videos: videos, maxUploadMB: maxUploadMB}
}

// Upload accepts a multipart video, stores it and dispatches analysis. The
// reply is 202 with a Location header for status polling; the work happens in
// the background.
func (h *MatchHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing video file"})
		return
	}
	if file.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty video file"})
		return
	}
	if h.maxUploadMB > 0 && file.Size > h.maxUploadMB*1024*1024 {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("video exceeds %d MB limit", h.maxUploadMB),
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable video file"})
		return
	}
	defer src.Close()

	id := uuid.New()
	key := storage.VideoKey(id.String(), file.Filename)
	contentType := file.Header.Get("Content-Type")
	if err := h.videos.PutVideo(c.Request.Context(), key, src, file.Size, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	m, err := h.orch.CreateAndDispatch(c.Request.Context(), id, key, file.Filename)
	if err != nil {
		// No record was created, so the stored object must not linger.
		_ = h.videos.DeleteMatchObjects(c.Request.Context(), id.String())
		writeError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/v1/matches/%s/status", m.ID))
	c.JSON(http.StatusAccepted, dto.UploadResponse{ID: m.ID, Status: string(m.Status)})
}

func (h *MatchHandler) List(c *gin.Context) {
	matches, err := h.orch.ListMatches(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]dto.MatchSummaryResponse, 0, len(matches))
	for i := range matches {
		resp = append(resp, matchToSummary(&matches[i]))
	}
	c.JSON(http.StatusOK, dto.MatchListResponse{Matches: resp, Total: len(resp)})
}

func (h *MatchHandler) Get(c *gin.Context) {
	id, ok := matchID(c)
	if !ok {
		return
	}
	m, err := h.orch.GetMatch(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, matchToDetails(m))
}

func (h *MatchHandler) Status(c *gin.Context) {
	id, ok := matchID(c)
	if !ok {
		return
	}
	status, processedAt, err := h.orch.GetStatus(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MatchStatusResponse{
		ID:          id,
		Status:      string(status),
		ProcessedAt: formatTime(processedAt),
	})
}

// StatusBatch answers one poll round for many matches at once. Ids come as a
// comma-separated query parameter; unknown ids are left out of the reply.
func (h *MatchHandler) StatusBatch(c *gin.Context) {
	raw := c.Query("ids")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing ids parameter"})
		return
	}

	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid match id %q", part)})
			return
		}
		ids = append(ids, id)
	}

	matches, err := h.orch.GetStatuses(c.Request.Context(), ids)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := dto.StatusBatchResponse{Matches: make([]dto.MatchStatusResponse, 0, len(matches))}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, dto.MatchStatusResponse{
			ID:          m.ID,
			Status:      string(m.Status),
			ProcessedAt: formatTime(m.ProcessedAt),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MatchHandler) Statistics(c *gin.Context) {
	m, ok := h.completedMatch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, m.Statistics)
}

func (h *MatchHandler) Events(c *gin.Context) {
	m, ok := h.completedMatch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": m.Events, "total": len(m.Events)})
}

func (h *MatchHandler) Highlights(c *gin.Context) {
	m, ok := h.completedMatch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, m.Highlights)
}

// Video streams the stored upload back to the client.
func (h *MatchHandler) Video(c *gin.Context) {
	id, ok := matchID(c)
	if !ok {
		return
	}
	m, err := h.orch.GetMatch(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	reader, size, contentType, err := h.videos.OpenVideo(c.Request.Context(), m.VideoKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video object not found"})
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, size, contentType, reader, nil)
}

func (h *MatchHandler) Delete(c *gin.Context) {
	id, ok := matchID(c)
	if !ok {
		return
	}
	if err := h.orch.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// completedMatch loads a match for the result sub-resources, which only exist
// once analysis has finished.
func (h *MatchHandler) completedMatch(c *gin.Context) (*models.Match, bool) {
	id, ok := matchID(c)
	if !ok {
		return nil, false
	}
	m, err := h.orch.GetMatch(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if m.Status != models.MatchStatusComplete {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "match analysis not complete",
			"status": string(m.Status),
		})
		return nil, false
	}
	return m, true
}

func matchID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
		return uuid.Nil, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
	case errors.Is(err, orchestrator.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func matchToSummary(m *models.Match) dto.MatchSummaryResponse {
	return dto.MatchSummaryResponse{
		ID:               m.ID,
		Status:           string(m.Status),
		OriginalFilename: m.OriginalFilename,
		DurationSeconds:  m.DurationSeconds,
		CreatedAt:        m.CreatedAt.Format(timeLayout),
		ProcessedAt:      formatTime(m.ProcessedAt),
	}
}

func matchToDetails(m *models.Match) dto.MatchDetailsResponse {
	return dto.MatchDetailsResponse{
		ID:               m.ID,
		Status:           string(m.Status),
		OriginalFilename: m.OriginalFilename,
		DurationSeconds:  m.DurationSeconds,
		FailureReason:    m.FailureReason,
		CreatedAt:        m.CreatedAt.Format(timeLayout),
		ProcessedAt:      formatTime(m.ProcessedAt),
		Statistics:       m.Statistics,
		Shots:            m.Shots,
		Events:           m.Events,
		Highlights:       m.Highlights,
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
