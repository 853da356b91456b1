package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Yates-Labs/concierge/internal/answer"
	"github.com/Yates-Labs/concierge/internal/lead"
	"github.com/Yates-Labs/concierge/internal/orchestrator"
	"github.com/Yates-Labs/concierge/internal/unanswered"
)

const (
	internalErrorMessage    = "internal error"
	questionRequiredMessage = "question is required and must be a string"
)

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) chatHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	body, err := c.GetRawData()
	if err != nil {
		resp := s.resolver.Abandon(errors.Join(answer.ErrMalformedRequest, err))
		c.JSON(http.StatusInternalServerError, chatResponse{Reply: resp.Reply})
		return
	}

	q, err := orchestrator.DecodeQuestion(body)
	switch {
	case errors.Is(err, answer.ErrInvalidQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"error": answer.ErrInvalidQuestion.Error()})
		return
	case err != nil:
		resp := s.resolver.Abandon(err)
		c.JSON(http.StatusInternalServerError, chatResponse{Reply: resp.Reply})
		return
	}

	resp := s.resolver.Resolve(c.Request.Context(), q)
	if resp.Failed() {
		_ = c.Error(resp.Err)
		c.JSON(http.StatusInternalServerError, chatResponse{Reply: resp.Reply})
		return
	}
	c.JSON(http.StatusOK, chatResponse{Reply: resp.Reply})
}

func (s *Server) logUnansweredHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)

	var req struct {
		Question any `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("unreadable log request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
		return
	}

	question, ok := req.Question.(string)
	if !ok || question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": questionRequiredMessage})
		return
	}

	status, err := s.logs.Dispatch(question)
	switch {
	case errors.Is(err, unanswered.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"error": questionRequiredMessage})
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
	default:
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

func (s *Server) leadHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)

	var req lead.Lead
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("unreadable lead request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
		return
	}

	err := s.leads.Submit(c.Request.Context(), req)
	switch {
	case errors.Is(err, lead.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": lead.ErrMissingFields.Error()})
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}
