package api

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/apperr"
	"github.com/Zachkp/folio/internal/portfolio"
)

// uploadRequest carries an image either as a data URI or as raw base64 with
// its MIME type declared separately.
type uploadRequest struct {
	ImageData string `json:"imageData" binding:"required"`
	MimeType  string `json:"mimeType"`
}

func (s *Server) uploadImage(c *gin.Context) {
	slot, ok := s.slot(c)
	if !ok {
		return
	}
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.Wrap(apperr.CodeValidation, "No image data provided", err))
		return
	}
	uri, err := decodeUpload(slot, req)
	if err != nil {
		s.logger.Info("image upload rejected", "slot", slot, "reason", apperr.Message(err))
		s.fail(c, err)
		return
	}
	s.write(c, slot.Patch(&uri), fmt.Sprintf("%s image uploaded successfully", slot), gin.H{"imageData": uri})
}

func (s *Server) deleteImage(c *gin.Context) {
	slot, ok := s.slot(c)
	if !ok {
		return
	}
	s.write(c, slot.Patch(nil), fmt.Sprintf("%s image deleted successfully", slot), nil)
}

func (s *Server) slot(c *gin.Context) (portfolio.ImageSlot, bool) {
	slot, ok := portfolio.ParseImageSlot(c.Param("slot"))
	if !ok {
		s.fail(c, apperr.Newf(apperr.CodeNotFound, "invalid upload type %q", c.Param("slot")))
		return "", false
	}
	return slot, true
}

// decodeUpload validates an upload and returns the data URI to store. The
// declared type must be an image type, the payload must fit the slot's limit
// and the bytes themselves must sniff as an image.
func decodeUpload(slot portfolio.ImageSlot, req uploadRequest) (string, error) {
	declared := strings.TrimSpace(req.MimeType)
	var data []byte
	if strings.HasPrefix(req.ImageData, "data:") {
		mime, payload, err := portfolio.ParseDataURI(req.ImageData)
		if err != nil {
			return "", err
		}
		if declared == "" {
			declared = mime
		}
		data = payload
	} else {
		payload, err := base64.StdEncoding.DecodeString(req.ImageData)
		if err != nil {
			return "", apperr.Wrap(apperr.CodeValidation, "image data is not valid base64", err)
		}
		data = payload
	}

	if declared == "" {
		return "", apperr.New(apperr.CodeValidation, "image MIME type is required")
	}
	if !portfolio.IsImageMIME(declared) {
		return "", apperr.Newf(apperr.CodeValidation, "Please select a valid image file (got %s)", declared)
	}
	if len(data) == 0 {
		return "", apperr.New(apperr.CodeValidation, "image is empty")
	}
	if limit := slot.MaxBytes(); len(data) > limit {
		return "", apperr.Newf(apperr.CodeValidation, "File size must be less than %dMB", limit>>20)
	}
	if detected := mimetype.Detect(data); !portfolio.IsImageMIME(detected.String()) {
		return "", apperr.Newf(apperr.CodeValidation, "file content is %s, not an image", detected.String())
	}
	return portfolio.DataURI(strings.ToLower(declared), data), nil
}
