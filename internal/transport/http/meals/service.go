package meals

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mealvision-server/internal/app/services"
	domainimage "mealvision-server/internal/domain/image"
	"mealvision-server/internal/platform/config"
	platformerrors "mealvision-server/internal/platform/errors"
	"mealvision-server/internal/platform/logging"
	httptransport "mealvision-server/internal/transport/http"
)

// Service is the HTTP surface of the analysis pipeline and the meal archive.
type Service struct {
	logger   *logging.Logger
	config   *config.Config
	analysis *services.AnalysisService
}

func NewService(cfg *config.Config, logger *logging.Logger, analysis *services.AnalysisService) (*Service, error) {
	if cfg == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "meals.new", "config is required")
	}
	if logger == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "meals.new", "logger is required")
	}
	if analysis == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "meals.new", "analysis service is required")
	}
	return &Service{logger: logger, config: cfg, analysis: analysis}, nil
}

// Register wires the meal routes into the authenticated API group.
func (s *Service) Register(ctx context.Context, secured *gin.RouterGroup) error {
	secured.POST("/meals/analyze", s.handleAnalyze)
	secured.GET("/meals", s.handleList)
	secured.GET("/meals/:id", s.handleGet)
	secured.DELETE("/meals/:id", s.handleDelete)

	s.logger.InfoTag("HTTP", "meal routes registered")
	return nil
}

type analyzeResponse struct {
	ID             string      `json:"id"`
	ImageURL       string      `json:"imageUrl"`
	Analysis       interface{} `json:"analysis"`
	ArchiveWarning string      `json:"archiveWarning,omitempty"`
}

func (s *Service) handleAnalyze(c *gin.Context) {
	ownerID := httptransport.OwnerID(c)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "missing 'image' form file", nil)
		return
	}
	defer file.Close()

	if header.Size > s.config.Pipeline.MaxFileSize {
		httptransport.RespondError(c, http.StatusRequestEntityTooLarge,
			"image exceeds the upload size limit", nil)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.config.Pipeline.MaxFileSize+1))
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "failed to read upload", nil)
		return
	}
	if int64(len(data)) > s.config.Pipeline.MaxFileSize {
		httptransport.RespondError(c, http.StatusRequestEntityTooLarge,
			"image exceeds the upload size limit", nil)
		return
	}

	mediaType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = guessMediaType(header.Filename)
	}

	raw := domainimage.RawImage{
		Data:      data,
		MediaType: mediaType,
		FileName:  filepath.Base(header.Filename),
	}

	job, err := s.analysis.Analyze(c.Request.Context(), raw, ownerID)
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, analyzeResponse{
		ID:             job.ID,
		ImageURL:       job.Outcome.Artifact.URL,
		Analysis:       job.Outcome.Analysis,
		ArchiveWarning: job.ArchiveWarning,
	}, "analysis complete")
}

func (s *Service) handleList(c *gin.Context) {
	ownerID := httptransport.OwnerID(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httptransport.RespondError(c, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	records, err := s.analysis.History(c.Request.Context(), ownerID, limit)
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, records, "")
}

func (s *Service) handleGet(c *gin.Context) {
	ownerID := httptransport.OwnerID(c)

	record, err := s.analysis.Get(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	if record == nil {
		httptransport.RespondError(c, http.StatusNotFound, "record not found", nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, record, "")
}

func (s *Service) handleDelete(c *gin.Context) {
	ownerID := httptransport.OwnerID(c)

	if err := s.analysis.Delete(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, nil, "record deleted")
}

func guessMediaType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
