package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/arourke/paleofed/internal/api/models"
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Health godoc
// @Summary Health check
// @Description Returns gateway health status
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats godoc
// @Summary Gateway statistics
// @Description Returns runtime statistics including host CPU/memory usage and composite query counts
// @Tags system
// @Produce json
// @Success 200 {object} models.ServerStatsResponse
// @Security ApiKeyAuth
// @Router /stats [get]
func (h *Handler) Stats(c *gin.Context) {
	uptime := time.Since(h.startTime)

	memStats := models.MemoryStats{}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		memStats.TotalMB = float64(vmStat.Total) / 1024 / 1024
		memStats.FreeMB = float64(vmStat.Available) / 1024 / 1024
		memStats.UsedMB = float64(vmStat.Used) / 1024 / 1024
		memStats.UsedPercent = vmStat.UsedPercent
	}

	cpuStats := models.CPUStats{NumCPU: runtime.NumCPU()}
	if cpuPercent, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		cpuStats.UsedPercent = cpuPercent[0]
		cpuStats.IdlePercent = 100.0 - cpuPercent[0]
	}

	c.JSON(http.StatusOK, models.ServerStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		CPU:           cpuStats,
		Memory:        memStats,
		QueriesTotal:  h.queriesTotal.Load(),
	})
}
