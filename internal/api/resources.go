package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/apperr"
	"github.com/Zachkp/folio/internal/portfolio"
)

func (s *Server) getDocument(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Read(c.Request.Context()))
}

func (s *Server) putDocument(c *gin.Context) {
	body, ok := s.readJSON(c)
	if !ok {
		return
	}
	var p portfolio.Partial
	if err := json.Unmarshal(body, &p); err != nil {
		s.fail(c, apperr.Wrap(apperr.CodeValidation, "document update must be a JSON object", err))
		return
	}
	if len(p) == 0 {
		s.fail(c, apperr.New(apperr.CodeValidation, "document update names no sections"))
		return
	}
	s.write(c, p, "Data updated successfully", nil)
}

func (s *Server) getSection(c *gin.Context) {
	sec, ok := s.section(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.Section(c.Request.Context(), sec))
}

func (s *Server) putSection(c *gin.Context) {
	sec, ok := s.section(c)
	if !ok {
		return
	}
	body, ok := s.readJSON(c)
	if !ok {
		return
	}
	s.write(c, portfolio.Partial{sec: body}, string(sec)+" updated successfully", nil)
}

func (s *Server) section(c *gin.Context) (portfolio.Section, bool) {
	sec, ok := portfolio.ParseSection(c.Param("section"))
	if !ok {
		s.fail(c, apperr.Newf(apperr.CodeNotFound, "unknown section %q", c.Param("section")))
		return "", false
	}
	return sec, true
}

// readJSON reads the request body and checks it is well-formed JSON.
func (s *Server) readJSON(c *gin.Context) (json.RawMessage, bool) {
	body, err := c.GetRawData()
	if err != nil {
		s.fail(c, apperr.Wrap(apperr.CodeValidation, "could not read request body", err))
		return nil, false
	}
	if !json.Valid(body) {
		s.fail(c, apperr.New(apperr.CodeValidation, "request body is not valid JSON"))
		return nil, false
	}
	return body, true
}
