package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kofiboateng/cschool/internal/app/models/dto"
	"github.com/kofiboateng/cschool/internal/app/services"
	"github.com/kofiboateng/cschool/internal/middleware"
)

// AdmissionController handles admission submissions and decisions
type AdmissionController struct {
	admissionService services.AdmissionService
}

// NewAdmissionController creates a new AdmissionController
func NewAdmissionController(admissionService services.AdmissionService) *AdmissionController {
	return &AdmissionController{
		admissionService: admissionService,
	}
}

// Submit files an admission against a live voucher reservation.
// @Summary Submit an admission
// @Description Creates a pending admission package against a live reservation token. The response carries the student's login name and one-time temporary password.
// @Tags admissions
// @Accept json
// @Produce json
// @Param request body dto.SubmitAdmissionRequest true "Admission package"
// @Success 201 {object} dto.APIResponse{data=dto.AdmissionResponse} "Admission created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Reservation not found or no longer live"
// @Failure 409 {object} dto.ErrorResponse "A pending admission already exists for this voucher"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admissions [post]
func (c *AdmissionController) Submit(ctx *gin.Context) {
	var req dto.SubmitAdmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid admission data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	admission, err := c.admissionService.Submit(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(admission))
}

// GetByID retrieves an admission record.
// @Summary Get admission by ID
// @Description Retrieves an admission record with its applicant details
// @Tags admin-admissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Admission ID"
// @Success 200 {object} dto.APIResponse{data=dto.AdmissionResponse} "Admission retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid admission ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Admission not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/admissions/{id} [get]
func (c *AdmissionController) GetByID(ctx *gin.Context) {
	id, ok := admissionID(ctx)
	if !ok {
		return
	}

	admission, err := c.admissionService.GetByID(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(admission))
}

// Approve accepts a pending admission.
// @Summary Approve an admission
// @Description Consumes the voucher, mints the student's index number and activates the student account. Approving an already approved admission fails.
// @Tags admin-admissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Admission ID"
// @Success 200 {object} dto.APIResponse{data=dto.AdmissionResponse} "Admission approved"
// @Failure 400 {object} dto.ErrorResponse "Invalid admission ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - User does not have permission"
// @Failure 404 {object} dto.ErrorResponse "Admission not found"
// @Failure 409 {object} dto.ErrorResponse "Already processed or voucher contended"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/admissions/{id}/approve [post]
func (c *AdmissionController) Approve(ctx *gin.Context) {
	id, ok := admissionID(ctx)
	if !ok {
		return
	}

	actorID, ok := middleware.AdminID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	admission, err := c.admissionService.Approve(ctx, id, actorID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(admission))
}

// Reject declines a pending admission.
// @Summary Reject an admission
// @Description Rejects a pending admission and recycles its voucher reservation. Rejecting a non-pending admission fails.
// @Tags admin-admissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Admission ID"
// @Success 200 {object} dto.APIResponse{data=dto.AdmissionResponse} "Admission rejected"
// @Failure 400 {object} dto.ErrorResponse "Invalid admission ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - User does not have permission"
// @Failure 404 {object} dto.ErrorResponse "Admission not found"
// @Failure 409 {object} dto.ErrorResponse "Admission already processed"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/admissions/{id}/reject [post]
func (c *AdmissionController) Reject(ctx *gin.Context) {
	id, ok := admissionID(ctx)
	if !ok {
		return
	}

	actorID, ok := middleware.AdminID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	admission, err := c.admissionService.Reject(ctx, id, actorID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(admission))
}

// CurrentPlacement resolves a student's placement from the latest approved
// admission.
// @Summary Get a student's current placement
// @Description Returns the academic year, class and stream the student currently belongs to, derived from the latest approved admission.
// @Tags admin-admissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.PlacementResponse} "Current placement"
// @Failure 400 {object} dto.ErrorResponse "Invalid student ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "No approved admission for this student"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/students/{id}/placement [get]
func (c *AdmissionController) CurrentPlacement(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid student ID")
		errorDetail = errorDetail.WithDetails("Student ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	placement, err := c.admissionService.CurrentPlacement(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(placement))
}

func admissionID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid admission ID")
		errorDetail = errorDetail.WithDetails("Admission ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}
