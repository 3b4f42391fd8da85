package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kofiboateng/cschool/internal/app/controllers"
	"github.com/kofiboateng/cschool/internal/app/models"
	"github.com/kofiboateng/cschool/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	voucherController *controllers.VoucherController,
	admissionController *controllers.AdmissionController,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	// --- Public applicant routes ---
	vouchers := v1.Group("/vouchers")
	{
		vouchers.POST("/verify", voucherController.Verify)
		vouchers.GET("/session/:token", voucherController.CheckSession)
		vouchers.DELETE("/session/:token", voucherController.ReleaseSession)
	}

	admissions := v1.Group("/admissions")
	{
		admissions.POST("", admissionController.Submit)
	}

	// --- Staff routes ---
	admin := v1.Group("/admin")
	{
		admin.POST("/auth/login", authController.Login)

		protected := admin.Group("")
		protected.Use(authMiddleware.JWTAuth())
		protected.Use(authMiddleware.RoleRequired(string(models.RoleAdmin), string(models.RoleRegistrar)))
		{
			protected.POST("/vouchers", voucherController.CreateBatch)
			protected.POST("/vouchers/:id/revoke", voucherController.Revoke)
			protected.POST("/vouchers/sweep", voucherController.Sweep)

			protected.GET("/admissions/:id", admissionController.GetByID)
			protected.POST("/admissions/:id/approve", admissionController.Approve)
			protected.POST("/admissions/:id/reject", admissionController.Reject)

			protected.GET("/students/:id/placement", admissionController.CurrentPlacement)
		}
	}
}
