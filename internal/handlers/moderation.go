package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ripple-app/backend/internal/database"
	"github.com/ripple-app/backend/internal/models"
	"github.com/ripple-app/backend/internal/util"
)

// ModerateText handles POST /api/moderation/check. Exposes the classifier
// so clients can pre-screen drafts.
func (h *Handlers) ModerateText(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	verdict, err := h.classifier.Classify(c.Request.Context(), req.Text)
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"moderation": verdict})
}

// ReportContent handles POST /api/moderation/reports. Every report lands
// in the admin room immediately.
func (h *Handlers) ReportContent(c *gin.Context) {
	reporter, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ContentType string `json:"content_type" binding:"required,oneof=post message"`
		ContentID   string `json:"content_id" binding:"required,uuid"`
		Reason      string `json:"reason" binding:"required,min=1,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	report := models.Report{
		ReporterID:  reporter.ID,
		ContentType: req.ContentType,
		ContentID:   req.ContentID,
		Reason:      req.Reason,
		Status:      models.ReportStatusPending,
	}
	if err := database.DB.Create(&report).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	if req.ContentType == "message" {
		database.DB.Model(&models.Message{}).
			Where("id = ?", req.ContentID).
			Updates(map[string]interface{}{"is_reported": true, "report_reason": req.Reason})
	}

	h.notifier.AdminNotice(map[string]interface{}{
		"type":        "new_report",
		"reportId":    report.ID,
		"contentType": report.ContentType,
		"contentId":   report.ContentID,
		"reason":      report.Reason,
		"reporterId":  reporter.ID,
	})

	c.JSON(http.StatusCreated, gin.H{"report": report})
}

// AdminListReports handles GET /api/admin/reports.
func (h *Handlers) AdminListReports(c *gin.Context) {
	status := c.DefaultQuery("status", models.ReportStatusPending)

	var reports []models.Report
	err := database.DB.
		Preload("Reporter").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&reports).Error
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(reports), "reports": reports})
}

// AdminResolveReport handles POST /api/admin/reports/:id/resolve.
func (h *Handlers) AdminResolveReport(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Resolution string `json:"resolution" binding:"required,min=1,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var report models.Report
	if err := database.DB.First(&report, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "report")
		return
	}

	updates := map[string]interface{}{
		"status":      models.ReportStatusResolved,
		"reviewer_id": admin.ID,
		"resolution":  req.Resolution,
	}
	if err := database.DB.Model(&report).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
