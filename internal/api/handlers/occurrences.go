package handlers

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/arourke/paleofed/internal/api/models"
	"github.com/arourke/paleofed/internal/composite"
	"github.com/arourke/paleofed/internal/identifier"
	"github.com/arourke/paleofed/internal/record"
	"github.com/arourke/paleofed/internal/transform"
	"github.com/arourke/paleofed/internal/upstream"
	"github.com/gin-gonic/gin"
)

// OccurrenceList godoc
// @Summary Composite occurrence list query
// @Description Fans a list query out to every selected upstream and returns the merged, filtered, ordered result
// @Tags occurrences
// @Produce json,text/csv,text/tab-separated-values,text/plain
// @Param fmt path string true "response format (json|csv|tsv|txt)"
// @Success 200 {object} models.OccurrenceResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /occs/list.{fmt} [get]
func (h *Handler) OccurrenceList(c *gin.Context) {
	h.runComposite(c, composite.KindList)
}

// OccurrenceSingle godoc
// @Summary Composite single-occurrence query
// @Description Resolves one identifier against its owning upstream and returns a single merged record
// @Tags occurrences
// @Produce json,text/csv,text/tab-separated-values,text/plain
// @Param fmt path string true "response format (json|csv|tsv|txt)"
// @Success 200 {object} models.OccurrenceResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /occs/single.{fmt} [get]
func (h *Handler) OccurrenceSingle(c *gin.Context) {
	h.runComposite(c, composite.KindSingle)
}

// runComposite is shared by both endpoints: they differ only in which
// Kind every main subquery is registered under (§6 list vs §7 single).
func (h *Handler) runComposite(c *gin.Context, kind composite.Kind) {
	format := c.Param("fmt")

	ctx, err := transform.Parse(format, c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	driver := composite.New(ctx, h.client, h.upstreamTimeout(), h.cfg.Upstream.MaxRetries)

	if ctx.UpstreamEnabled(identifier.DomainPaleo) {
		driver.AddSubquery(upstream.LabelPaleo, true, kind, upstream.NewPaleobio(h.cfg.Upstream.PaleobioBaseURL))
	}
	if ctx.UpstreamEnabled(identifier.DomainQuaternary) {
		driver.AddSubquery(upstream.LabelQuaternary, true, kind,
			upstream.NewQuaternary(h.cfg.Upstream.QuaternaryBaseURL, h.cfg.Upstream.PaleobioBaseURL))
	}

	driver.Run(c.Request.Context())
	h.queriesTotal.Add(1)

	origin := driver.Results()
	records := make([]record.Record, len(origin))
	subqueryIx := make([]int, len(origin))
	for i, o := range origin {
		records[i] = o.Record
		subqueryIx[i] = o.SubqueryIx
	}

	kept, removed := transform.Apply(ctx, records)
	keptIx := subqueryIx
	if removed > 0 {
		keptIx = matchingIx(records, kept, subqueryIx)
	}
	ordered := transform.Order(kept, keptIx, ctx.Order)

	resp := models.OccurrenceResponse{
		Results:  recordsToMaps(ordered),
		Warnings: driver.Warnings(),
		URLs:     driver.URLs(false),
	}

	renderResponse(c, format, resp)
}

// matchingIx rebuilds the subquery-index slice in parallel with kept after
// Apply has dropped some records, since Order needs same-length slices.
func matchingIx(all, kept []record.Record, allIx []int) []int {
	out := make([]int, 0, len(kept))
	used := make([]bool, len(all))
	for _, k := range kept {
		for i, r := range all {
			if used[i] {
				continue
			}
			if sameRecord(r, k) {
				out = append(out, allIx[i])
				used[i] = true
				break
			}
		}
	}
	return out
}

func sameRecord(a, b record.Record) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func recordsToMaps(records []record.Record) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}

// upstreamTimeout is the composite deadline for one request, taken from
// upstream.timeout_seconds; upstream.request_timeout bounds each GET only.
func (h *Handler) upstreamTimeout() time.Duration {
	return time.Duration(h.cfg.Upstream.TimeoutSeconds) * time.Second
}

// renderResponse writes resp in whichever of json/csv/tsv/txt the client
// asked for. There is no tabular-serialization library in the stack this
// gateway draws on, so csv/tsv ride encoding/csv directly and txt is a
// fixed-width variant of the same column set (§6 response formats).
func renderResponse(c *gin.Context, format string, resp models.OccurrenceResponse) {
	switch format {
	case "csv":
		writeDelimited(c, resp, ',', "text/csv; charset=utf-8")
	case "tsv":
		writeDelimited(c, resp, '\t', "text/tab-separated-values; charset=utf-8")
	case "txt":
		writeText(c, resp)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

// columns collects the union of every result record's keys, sorted for a
// stable column order across a response's rows.
func columns(results []map[string]any) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range results {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func writeDelimited(c *gin.Context, resp models.OccurrenceResponse, delim rune, contentType string) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", contentType)

	w := csv.NewWriter(c.Writer)
	w.Comma = delim
	cols := columns(resp.Results)

	_ = w.Write(cols)
	for _, r := range resp.Results {
		row := make([]string, len(cols))
		for i, col := range cols {
			row[i] = cellString(r[col])
		}
		_ = w.Write(row)
	}
	w.Flush()

	for _, warn := range resp.Warnings {
		_ = w.Write([]string{"# warning", warn})
	}
	w.Flush()
}

// writeText renders the same column set as a fixed-width table, the one
// format this gateway produces that has no direct analogue on the wire
// from either upstream.
func writeText(c *gin.Context, resp models.OccurrenceResponse) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/plain; charset=utf-8")

	cols := columns(resp.Results)
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = len(col)
	}
	rows := make([][]string, len(resp.Results))
	for ri, r := range resp.Results {
		row := make([]string, len(cols))
		for i, col := range cols {
			row[i] = cellString(r[col])
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
		rows[ri] = row
	}

	writeRow(c, cols, widths)
	for _, row := range rows {
		writeRow(c, row, widths)
	}
	for _, warn := range resp.Warnings {
		c.Writer.Write([]byte("# " + warn + "\n"))
	}
}

func writeRow(c *gin.Context, cells []string, widths []int) {
	for i, cell := range cells {
		pad := widths[i] - len(cell)
		c.Writer.Write([]byte(cell))
		for ; pad > 0; pad-- {
			c.Writer.Write([]byte(" "))
		}
		if i < len(cells)-1 {
			c.Writer.Write([]byte("  "))
		}
	}
	c.Writer.Write([]byte("\n"))
}
