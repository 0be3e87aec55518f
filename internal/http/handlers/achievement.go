package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/obe-achievement/internal/http/response"
	"github.com/yungbote/obe-achievement/internal/services"
)

type AchievementHandler struct {
	achievements services.AchievementService
}

func NewAchievementHandler(achievements services.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievements: achievements}
}

func parseID(c *gin.Context, param, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil || id == uuid.Nil {
		if err == nil {
			err = errNilID
		}
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/enrollments/:id/course-outcomes/:outcome_id
func (h *AchievementHandler) GetCourseOutcome(c *gin.Context) {
	enrollmentID, ok := parseID(c, "id", "invalid_enrollment_id")
	if !ok {
		return
	}
	outcomeID, ok := parseID(c, "outcome_id", "invalid_outcome_id")
	if !ok {
		return
	}
	a, err := h.achievements.CourseOutcome(c.Request.Context(), enrollmentID, outcomeID)
	if err != nil {
		response.RespondEngineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"achievement": a})
}

// GET /api/enrollments/:id/program-outcomes/:outcome_id
func (h *AchievementHandler) GetProgramOutcome(c *gin.Context) {
	enrollmentID, ok := parseID(c, "id", "invalid_enrollment_id")
	if !ok {
		return
	}
	outcomeID, ok := parseID(c, "outcome_id", "invalid_outcome_id")
	if !ok {
		return
	}
	a, err := h.achievements.ProgramOutcome(c.Request.Context(), enrollmentID, outcomeID)
	if err != nil {
		response.RespondEngineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"achievement": a})
}

// GET /api/enrollments/:id/report
func (h *AchievementHandler) GetReport(c *gin.Context) {
	enrollmentID, ok := parseID(c, "id", "invalid_enrollment_id")
	if !ok {
		return
	}
	rep, err := h.achievements.Report(c.Request.Context(), enrollmentID)
	if err != nil {
		response.RespondEngineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": rep})
}

// POST /api/enrollments/:id/scores
func (h *AchievementHandler) RecordScore(c *gin.Context) {
	enrollmentID, ok := parseID(c, "id", "invalid_enrollment_id")
	if !ok {
		return
	}
	var in services.RecordScoreInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	results, err := h.achievements.RecordScore(c.Request.Context(), enrollmentID, in)
	if err != nil {
		response.RespondEngineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"outcomes": results})
}

// POST /api/enrollments/:id/recompute
func (h *AchievementHandler) RecomputeEnrollment(c *gin.Context) {
	enrollmentID, ok := parseID(c, "id", "invalid_enrollment_id")
	if !ok {
		return
	}
	results, err := h.achievements.RecomputeEnrollment(c.Request.Context(), enrollmentID)
	if err != nil {
		response.RespondEngineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"outcomes": results})
}

// POST /api/class-sections/:id/recompute
func (h *AchievementHandler) RecomputeClassSection(c *gin.Context) {
	sectionID, ok := parseID(c, "id", "invalid_class_section_id")
	if !ok {
		return
	}
	rep, err := h.achievements.RecomputeClassSection(c.Request.Context(), sectionID)
	if err != nil {
		response.RespondEngineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": rep})
}

// GET /api/class-sections/:id/course-outcomes/:outcome_id/components
func (h *AchievementHandler) ListComponents(c *gin.Context) {
	sectionID, ok := parseID(c, "id", "invalid_class_section_id")
	if !ok {
		return
	}
	outcomeID, ok := parseID(c, "outcome_id", "invalid_outcome_id")
	if !ok {
		return
	}
	set, err := h.achievements.Components(c.Request.Context(), sectionID, outcomeID)
	if err != nil {
		response.RespondEngineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"components": set})
}

// GET /api/course-plans/:id/thresholds
func (h *AchievementHandler) GetThresholds(c *gin.Context) {
	planID, ok := parseID(c, "id", "invalid_course_plan_id")
	if !ok {
		return
	}
	th, err := h.achievements.Thresholds(c.Request.Context(), planID)
	if err != nil {
		response.RespondEngineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"thresholds": th})
}

type setThresholdRequest struct {
	MinValue *float64 `json:"min_value"`
}

// PUT /api/course-plans/:id/thresholds/:scope
func (h *AchievementHandler) SetThreshold(c *gin.Context) {
	planID, ok := parseID(c, "id", "invalid_course_plan_id")
	if !ok {
		return
	}
	var req setThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MinValue == nil {
		if err == nil {
			err = errMissingMinValue
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.achievements.SetThreshold(c.Request.Context(), planID, c.Param("scope"), *req.MinValue); err != nil {
		response.RespondEngineError(c, err)
		return
	}
	response.RespondNoContent(c)
}
