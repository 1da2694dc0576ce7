package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wesm/stack-digest/internal/analytics"
	"github.com/wesm/stack-digest/internal/db"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ingestion handlers

func (s *Server) handleStartRun(c *gin.Context) {
	total := s.defaultTotal
	if raw := c.Query("total"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, fmt.Sprintf("invalid total %q", raw))
			return
		}
		total = n
	}

	if !s.running.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "an ingestion run is already in progress",
		})
		return
	}

	id := uuid.New()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)

		if _, err := s.ingester.RunWithID(s.baseCtx, id, total); err != nil {
			s.log.Warn().Err(err).Str("run_id", id.String()).Msg("Ingestion run ended with error")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"run_id":  id.String(),
		"total":   total,
	})
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, err := s.runs.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "run not found",
			})
			return
		}
		s.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  run,
	})
}

// Tag handlers

func (s *Server) handleTopTags(c *gin.Context) {
	topN, ok := intParam(c, "topN")
	if !ok {
		return
	}

	results, err := s.analytics.TopTags(c.Request.Context(), topN)
	if err != nil {
		s.serverError(c, err)
		return
	}
	respondList(c, results, len(results))
}

func (s *Server) handleTagFrequency(c *gin.Context) {
	result, err := s.analytics.TagFrequency(c.Request.Context(), c.Param("tag"))
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (s *Server) handleTopEngagement(c *gin.Context) {
	topN, ok := intParam(c, "topN")
	if !ok {
		return
	}

	results, err := s.analytics.TopEngagement(c.Request.Context(), topN, nil)
	if err != nil {
		s.serverError(c, err)
		return
	}
	respondList(c, results, len(results))
}

func (s *Server) handleTopEngagementByReputation(c *gin.Context) {
	topN, ok := intParam(c, "topN")
	if !ok {
		return
	}
	// A negative threshold admits every owner
	raw := c.Param("reputation")
	minReputation, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(c, fmt.Sprintf("invalid reputation %q", raw))
		return
	}

	results, err := s.analytics.TopEngagement(c.Request.Context(), topN, &minReputation)
	if err != nil {
		s.serverError(c, err)
		return
	}
	respondList(c, results, len(results))
}

// Exception handlers

func (s *Server) handleTopExceptions(c *gin.Context) {
	topN, ok := intParam(c, "topN")
	if !ok {
		return
	}

	results, err := s.analytics.TopExceptions(c.Request.Context(), topN)
	if err != nil {
		s.serverError(c, err)
		return
	}
	respondList(c, results, len(results))
}

func (s *Server) handleExceptionFrequency(c *gin.Context) {
	result, err := s.analytics.ExceptionFrequency(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

// Answer handlers

func (s *Server) handleAnswerQuality(c *gin.Context) {
	topN, ok := intParam(c, "topN")
	if !ok {
		return
	}
	by, ok := sortParam(c)
	if !ok {
		return
	}

	results, err := s.analytics.AnswerQuality(c.Request.Context(), topN, by)
	if err != nil {
		s.serverError(c, err)
		return
	}
	respondList(c, results, len(results))
}

func (s *Server) handleQuestionAnswers(c *gin.Context) {
	raw := c.Param("questionId")
	questionID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || questionID <= 0 {
		badRequest(c, fmt.Sprintf("invalid question id %q", raw))
		return
	}
	by, ok := sortParam(c)
	if !ok {
		return
	}

	results, err := s.analytics.QuestionAnswerQuality(c.Request.Context(), questionID, by)
	if err != nil {
		if errors.Is(err, analytics.ErrQuestionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		s.serverError(c, err)
		return
	}
	respondList(c, results, len(results))
}

// Helpers

// intParam parses a non-negative integer path parameter, answering 400 when
// it is malformed
func intParam(c *gin.Context, name string) (int, bool) {
	raw := c.Param(name)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return n, true
}

func sortParam(c *gin.Context) (analytics.SortBy, bool) {
	by, err := analytics.ParseSortBy(c.Query("sort"))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return by, true
}

func respondList(c *gin.Context, results interface{}, count int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": results,
		"count":   count,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
	})
}

func (s *Server) serverError(c *gin.Context, err error) {
	s.log.Error().Err(err).Str("route", c.FullPath()).Msg("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
