package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kofiboateng/cschool/internal/app/models/dto"
	"github.com/kofiboateng/cschool/internal/app/services"
	"github.com/kofiboateng/cschool/internal/middleware"
)

// VoucherController handles voucher verification and administration
type VoucherController struct {
	voucherService services.VoucherService
}

// NewVoucherController creates a new VoucherController
func NewVoucherController(voucherService services.VoucherService) *VoucherController {
	return &VoucherController{
		voucherService: voucherService,
	}
}

// Verify checks a voucher number and PIN and, when valid, reserves the
// voucher for the caller.
// @Summary Verify an enrollment voucher
// @Description Checks the voucher number and scratch PIN. A valid voucher is reserved for the caller and a reservation token is returned. Denied attempts return granted=false with a reason kind.
// @Tags vouchers
// @Accept json
// @Produce json
// @Param request body dto.VerifyVoucherRequest true "Voucher credentials"
// @Success 200 {object} dto.APIResponse{data=dto.VoucherSessionResponse} "Verification outcome"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /vouchers/verify [post]
func (c *VoucherController) Verify(ctx *gin.Context) {
	var req dto.VerifyVoucherRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid voucher data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	session, err := c.voucherService.Verify(ctx, &req, ctx.ClientIP(), ctx.GetHeader("User-Agent"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(session))
}

// CheckSession reports whether a reservation token is still live.
// @Summary Check a reservation session
// @Description Returns the reservation state for a token. A stale reservation is reclaimed and reported as not granted.
// @Tags vouchers
// @Accept json
// @Produce json
// @Param token path string true "Reservation token"
// @Success 200 {object} dto.APIResponse{data=dto.VoucherSessionResponse} "Session state"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /vouchers/session/{token} [get]
func (c *VoucherController) CheckSession(ctx *gin.Context) {
	session, err := c.voucherService.CheckSession(ctx, ctx.Param("token"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(session))
}

// ReleaseSession gives up a reservation early.
// @Summary Release a reservation session
// @Description Releases the reservation held by the token so the voucher becomes claimable again. Releasing an unknown or already released token succeeds with released=false.
// @Tags vouchers
// @Accept json
// @Produce json
// @Param token path string true "Reservation token"
// @Success 200 {object} dto.APIResponse{data=dto.ReleaseSessionResponse} "Release outcome"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /vouchers/session/{token} [delete]
func (c *VoucherController) ReleaseSession(ctx *gin.Context) {
	released, err := c.voucherService.ReleaseSession(ctx, ctx.Param("token"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.ReleaseSessionResponse{Released: released}))
}

// CreateBatch mints a batch of vouchers.
// @Summary Mint a voucher batch
// @Description Creates a batch of vouchers bound to an academic year. Plaintext PINs are returned once and never again.
// @Tags admin-vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateVouchersRequest true "Batch parameters"
// @Success 201 {object} dto.APIResponse{data=[]dto.MintedVoucher} "Minted vouchers"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - User does not have permission"
// @Failure 404 {object} dto.ErrorResponse "Academic year not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/vouchers [post]
func (c *VoucherController) CreateBatch(ctx *gin.Context) {
	var req dto.CreateVouchersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid batch data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	actorID, ok := middleware.AdminID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	minted, err := c.voucherService.CreateBatch(ctx, &req, actorID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(minted))
}

// Revoke takes a voucher out of circulation.
// @Summary Revoke a voucher
// @Description Revokes a voucher so it can no longer be verified or reserved. Used vouchers cannot be revoked. Revoking an already revoked voucher succeeds.
// @Tags admin-vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Voucher ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Voucher revoked"
// @Failure 400 {object} dto.ErrorResponse "Invalid voucher ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Voucher not found"
// @Failure 409 {object} dto.ErrorResponse "Voucher already used"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/vouchers/{id}/revoke [post]
func (c *VoucherController) Revoke(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid voucher ID")
		errorDetail = errorDetail.WithDetails("Voucher ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	actorID, ok := middleware.AdminID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	if err := c.voucherService.Revoke(ctx, id, actorID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Voucher revoked"}))
}

// Sweep reclaims stale reservations immediately.
// @Summary Sweep stale reservations
// @Description Releases every reservation whose hold window has lapsed and reports how many were reclaimed.
// @Tags admin-vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SweepResponse} "Sweep outcome"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/vouchers/sweep [post]
func (c *VoucherController) Sweep(ctx *gin.Context) {
	actorID, ok := middleware.AdminID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	count, err := c.voucherService.Sweep(ctx, &actorID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SweepResponse{Count: count}))
}
