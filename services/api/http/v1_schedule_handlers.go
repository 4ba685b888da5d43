package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/telescope-ops/obsadmin/services/internal/db"
	"github.com/telescope-ops/obsadmin/services/internal/models"
	"github.com/telescope-ops/obsadmin/services/internal/pipeline"
	"github.com/telescope-ops/obsadmin/services/internal/schedule"
)

// handleV1Upload runs one schedule sheet through the pipeline
// POST /api/v1/schedule/upload (multipart: file, load_type, access, bulk, dry_run)
func (s *Server) handleV1Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds upload limit"})
		return
	}

	loadType, err := models.ParseLoadType(c.DefaultPostForm("load_type", string(models.LoadFull)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	access, err := models.ParseAccessScope(c.DefaultPostForm("access", string(models.AccessPublic)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bulk, err := formBool(c, "bulk")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bulk parameter"})
		return
	}
	dryRun, err := formBool(c, "dry_run")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dry_run parameter"})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	req := models.UploadRequest{
		File:        data,
		FileName:    header.Filename,
		LoadType:    loadType,
		Access:      access,
		UseBulkFile: bulk,
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	run := s.pipeline.Run
	if dryRun {
		run = s.pipeline.Plan
	}
	report, err := run(ctx, req)
	if err != nil {
		c.JSON(uploadStatus(err), gin.H{"error": err.Error(), "data": report})
		return
	}

	resp := gin.H{"data": report}
	if dryRun && report.Result != nil {
		resp["statements"] = report.Result.Statements()
	}
	c.JSON(http.StatusOK, resp)
}

// uploadStatus maps a failed run to a response code: problems with the
// sheet itself are 422, everything else is a server-side failure.
func uploadStatus(err error) int {
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		return http.StatusInternalServerError
	}
	switch stageErr.Stage {
	case pipeline.StageTokenize:
		return http.StatusUnprocessableEntity
	case pipeline.StageProcess:
		var parseErr *schedule.ParseError
		if errors.As(err, &parseErr) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func formBool(c *gin.Context, name string) (bool, error) {
	v := strings.TrimSpace(c.PostForm(name))
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// handleV1ListNights returns a paginated list of stored schedule nights
// GET /api/v1/schedule/nights?semester=2024A&page=1&limit=50&from_log=...&to_log=...
func (s *Server) handleV1ListNights(c *gin.Context) {
	semester := strings.TrimSpace(c.Query("semester"))
	if semester == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "semester is required"})
		return
	}
	if _, _, err := schedule.SplitSemester(semester); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page := 1
	if p := c.Query("page"); p != "" {
		if val, err := strconv.Atoi(p); err == nil && val > 0 {
			page = val
		}
	}

	limit := s.cfg.DefaultLimit
	if l := c.Query("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 500 {
			limit = val
		}
	}

	q := db.NightsQuery{Semester: semester, Limit: limit, Offset: (page - 1) * limit}
	for _, bound := range []struct {
		name string
		dst  **int64
	}{{"from_log", &q.FromLog}, {"to_log", &q.ToLog}} {
		raw := c.Query(bound.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + bound.name})
			return
		}
		*bound.dst = &v
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result, err := s.catalog.ListNights(ctx, q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result.Nights,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total_count": result.TotalCount,
			"total_pages": (result.TotalCount + limit - 1) / limit,
		},
	})
}
