package ui

import (
	"html/template"
	"net/http"
	"strings"

	"qcview/app"
	"qcview/domain/sheet"
	"qcview/internal/chart"
	"qcview/internal/errors"
	"qcview/internal/profiling"
	"qcview/internal/render"
	"qcview/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

// chartPanel is one chart surface on the page
type chartPanel struct {
	ID      string // DOM id of the <img>, equal to the slot name
	Label   string
	Src     string // empty when the slot holds no live chart
	Points  int
	Summary profiling.Summary
}

// pageData feeds index.html and the view fragment
type pageData struct {
	HasData       bool
	Filename      string
	Generation    uint64
	TotalRows     int
	MatchedRows   int
	Keyword       string
	Date          string
	Table         template.HTML
	Charts        []chartPanel
	ChartsSkipped bool
	Missing       []sheet.Role
	Warning       string
}

func (s *Server) buildPageData(view *app.View) (pageData, error) {
	if view == nil {
		return pageData{Charts: s.chartPanels(s.workbench.Charts().Handles())}, nil
	}
	handles := make([]*chart.Handle, 0, len(view.Charts.Handles))
	for _, slot := range chart.Slots {
		if h, ok := view.Charts.Handles[slot]; ok {
			handles = append(handles, h)
		}
	}
	data := pageData{Charts: s.chartPanels(handles)}

	table, err := render.TableHTML(view.Table)
	if err != nil {
		return data, errors.Wrap(err, "failed to render table")
	}
	data.HasData = true
	data.Filename = view.Filename
	data.Generation = view.Generation
	data.TotalRows = view.TotalRows
	data.MatchedRows = view.MatchedRows()
	data.Keyword = view.Criteria.Keyword
	data.Date = view.Criteria.Date
	data.Table = table
	data.ChartsSkipped = view.Charts.Skipped
	data.Missing = view.Charts.Missing
	if view.Charts.Skipped {
		data.Warning = chart.MissingHeaderWarning
	}
	return data, nil
}

// chartPanels lists every slot in page order with the handle drawn for it,
// if any. The image URL names the handle so a page never shows a chart
// drawn for another view.
func (s *Server) chartPanels(handles []*chart.Handle) []chartPanel {
	bySlot := make(map[chart.Slot]*chart.Handle, len(handles))
	for _, h := range handles {
		bySlot[h.Slot] = h
	}
	panels := make([]chartPanel, 0, len(chart.Slots))
	for _, slot := range chart.Slots {
		panel := chartPanel{ID: string(slot), Label: slot.Label()}
		if h, ok := bySlot[slot]; ok {
			panel.Src = "/charts/" + string(slot) + ".png?v=" + h.ID.String()
			panel.Points = len(h.Points)
			panel.Summary = h.Summary
		}
		panels = append(panels, panel)
	}
	return panels
}

// handleIndex serves the page with whatever is currently rendered
func (s *Server) handleIndex(c *gin.Context) {
	view, _ := s.workbench.Current()
	data, err := s.buildPageData(view)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, fragments.IndexPage, data)
}

// criteriaFromQuery reads the filter inputs; the keyword is trimmed
func criteriaFromQuery(c *gin.Context) sheet.Criteria {
	return sheet.Criteria{
		Keyword: strings.TrimSpace(c.Query("product")),
		Date:    strings.TrimSpace(c.Query("date")),
	}
}

// handleView re-renders the table and charts for the current filter inputs.
// Nothing is rendered while no workbook is loaded.
func (s *Server) handleView(c *gin.Context) {
	view, err := s.workbench.Filter(c.Request.Context(), criteriaFromQuery(c))
	if errors.Is(err, app.ErrNothingLoaded) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderView(c, view)
}

func (s *Server) renderView(c *gin.Context, view *app.View) {
	data, err := s.buildPageData(view)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, fragments.View, data)
}

// handleChartImage serves the PNG of a slot's live chart handle. A request
// naming a replaced handle gets 410.
func (s *Server) handleChartImage(c *gin.Context) {
	slot := chart.Slot(strings.TrimSuffix(c.Param("file"), ".png"))
	if !slot.Valid() {
		c.Status(http.StatusNotFound)
		return
	}
	h, ok := s.workbench.Charts().Handle(slot)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	if v := c.Query("v"); v != "" && v != h.ID.String() {
		c.Status(http.StatusGone)
		return
	}
	image, ok := h.PNG()
	if !ok {
		c.Status(http.StatusGone)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", image)
}
