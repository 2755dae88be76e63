package ui

import (
	"qcview/adapters/excel"
	"qcview/internal/errors"
	"qcview/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

// uploadField is the multipart field carrying the workbook
const uploadField = "file"

// handleWorkbookUpload loads an uploaded workbook and renders it unfiltered
func (s *Server) handleWorkbookUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		s.logger.Warn("upload rejected, no file: %v", err)
		s.renderError(c, errors.InvalidInput("no file uploaded"))
		return
	}
	defer file.Close()

	if err := excel.CheckUpload(header.Filename, header.Size, s.opts.MaxUploadBytes); err != nil {
		s.logger.Warn("upload rejected: %s: %v", header.Filename, err)
		s.renderError(c, err)
		return
	}

	view, err := s.workbench.Load(c.Request.Context(), header.Filename, file)
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.logger.Info("uploaded %s (%d bytes, generation %d)", header.Filename, header.Size, view.Generation)
	s.renderView(c, view)
}

// renderError answers htmx requests with an error fragment and everything
// else with JSON
func (s *Server) renderError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if isHTMXRequest(c) {
		s.renderTemplate(c, status, fragments.Error, gin.H{"Message": err.Error(), "Code": errors.GetCode(err)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}
