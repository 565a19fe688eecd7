package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	cycledomain "github.com/smallbiznis/billrun/internal/billingcycle/domain"
)

func (s *Server) ListBillingCycles(c *gin.Context) {
	items, err := s.cycleRepo.List(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	cycles := make([]cycledomain.BillingCycle, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		cycles = append(cycles, *item)
	}

	c.JSON(http.StatusOK, gin.H{"data": cycles})
}

// ListBillingCycleTimestamps renders cycles as unix seconds for external
// reporting; a zero fulfilled_on means the cycle is still open.
func (s *Server) ListBillingCycleTimestamps(c *gin.Context) {
	items, err := s.cycleRepo.List(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]cycledomain.TimestampView, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		views = append(views, item.Timestamps())
	}

	c.JSON(http.StatusOK, gin.H{"data": views})
}

// TriggerScheduleCheck re-enters the schedule check outside the timer loop.
// The scheduler serializes entries, so this can never double-process a
// cycle.
func (s *Server) TriggerScheduleCheck(c *gin.Context) {
	next, err := s.scheduler.CheckSchedule(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"next_check": next.UTC()})
}
