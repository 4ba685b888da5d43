package http

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/telescope-ops/obsadmin/services/internal/models"
	"github.com/telescope-ops/obsadmin/services/internal/schedule"
)

// handleV1Instruments returns active instruments
// GET /api/v1/reference/instruments
func (s *Server) handleV1Instruments(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	instruments, err := s.catalog.ActiveInstruments(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": instruments,
		"meta": gin.H{"count": len(instruments)},
	})
}

// handleV1Operators returns active telescope operators
// GET /api/v1/reference/operators
func (s *Server) handleV1Operators(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	operators, err := s.catalog.ActiveOperators(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": operators,
		"meta": gin.H{"count": len(operators)},
	})
}

// handleV1Programs returns the program directory of a semester
// GET /api/v1/reference/programs?semester=2024A
func (s *Server) handleV1Programs(c *gin.Context) {
	semester := strings.TrimSpace(c.Query("semester"))
	year, half, err := schedule.SplitSemester(semester)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "semester must look like 2024A"})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	directory, err := s.catalog.ProgramDirectory(ctx, year, half)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	programs := make([]models.Program, 0, len(directory))
	for _, p := range directory {
		programs = append(programs, p)
	}
	sort.Slice(programs, func(i, j int) bool { return programs[i].ProgramID < programs[j].ProgramID })

	c.JSON(http.StatusOK, gin.H{
		"data": programs,
		"meta": gin.H{"semester": strconv.Itoa(year) + half, "count": len(programs)},
	})
}
