package handlers

import (
	"net/http"

	"github.com/arourke/paleofed/internal/api/models"
	"github.com/gin-gonic/gin"
)

// GetVocabTerms godoc
// @Summary Vocabulary declaration
// @Description Returns the rendered field/value names for one vocabulary selector
// @Tags config
// @Produce json
// @Param vocab path string true "vocab selector (neotoma|pbdb|com|dwc)"
// @Success 200 {array} models.VocabTermRow
// @Failure 500 {object} models.ErrorResponse
// @Router /vocab/{vocab} [get]
func (h *Handler) GetVocabTerms(c *gin.Context) {
	terms, err := h.store.VocabTerms(c.Param("vocab"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	out := make([]models.VocabTermRow, 0, len(terms))
	for _, t := range terms {
		out = append(out, models.VocabTermRow{Vocab: t.Vocab, FieldKey: t.FieldKey, Label: t.Label})
	}
	c.JSON(http.StatusOK, out)
}

// GetTimeRules godoc
// @Summary Time rule declarations
// @Description Returns the time rules accepted by the `timerule` parameter
// @Tags config
// @Produce json
// @Success 200 {array} models.TimeRuleRow
// @Failure 500 {object} models.ErrorResponse
// @Router /timerules [get]
func (h *Handler) GetTimeRules(c *gin.Context) {
	rules, err := h.store.TimeRules()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	out := make([]models.TimeRuleRow, 0, len(rules))
	for _, r := range rules {
		out = append(out, models.TimeRuleRow{Name: r.Name, Description: r.Description})
	}
	c.JSON(http.StatusOK, out)
}

// GetOutputBlocks godoc
// @Summary Output block declarations
// @Description Returns the named field groups accepted by the `show` parameter
// @Tags config
// @Produce json
// @Success 200 {array} models.OutputBlockRow
// @Failure 500 {object} models.ErrorResponse
// @Router /output-blocks [get]
func (h *Handler) GetOutputBlocks(c *gin.Context) {
	blocks, err := h.store.OutputBlocks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	out := make([]models.OutputBlockRow, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, models.OutputBlockRow{Name: b.Name, Fields: b.Fields, Description: b.Description})
	}
	c.JSON(http.StatusOK, out)
}
