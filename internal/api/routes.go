package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"musa-backend-go/internal/config"
	"musa-backend-go/internal/core"
	"musa-backend-go/internal/geocode"
	"musa-backend-go/internal/middleware"
	"musa-backend-go/internal/models"
)

// SetupRoutes wires every route group. Global middleware (logging, recovery,
// CORS) is applied to the engine in main before this is called.
func SetupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authMW *middleware.AuthMiddleware,
	userService core.UserService,
	estateService core.EstateService,
	householdService core.HouseholdService,
	inviteService core.InviteService,
	accessCodeService core.AccessCodeService,
	deviceService core.DeviceService,
	securityService core.SecurityService,
	geocodeClient *geocode.Client,
) {
	userHandler := NewUserHandler(userService, securityService, cfg.GuardActivityListLimit)
	estateHandler := NewEstateHandler(estateService)
	householdHandler := NewHouseholdHandler(householdService, inviteService)
	accessCodeHandler := NewAccessCodeHandler(accessCodeService, cfg.GuardActivityListLimit)
	deviceHandler := NewDeviceHandler(deviceService)
	geocodeHandler := NewGeocodeHandler(geocodeClient)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := router.Group("/api/v1")
	{
		// The emailed device approval link: the token is the credential.
		apiV1.GET("/devices/approve", deviceHandler.Approve)

		users := apiV1.Group("/users", authMW.VerifyToken())
		{
			// Initialize and me work for pending accounts; everything past
			// them needs an approved profile.
			users.POST("/initialize", userHandler.InitializeProfile)
			users.GET("/me", userHandler.Me)
			users.GET("/me/security-logs", authMW.RequireProfile(), userHandler.MySecurityLogs)

			approvers := users.Group("", authMW.RequireProfile(), authMW.RequireApprover())
			{
				approvers.GET("/pending", userHandler.ListPending)
				approvers.POST("/:uid/approve", userHandler.ApproveUser)
				approvers.POST("/:uid/reject", userHandler.RejectUser)
				approvers.POST("/batch-approve", userHandler.BatchApprove)
				approvers.POST("/batch-reject", userHandler.BatchReject)
			}

			users.PUT("/:uid/role", authMW.RequireProfile(), authMW.RequireRole(models.RoleAdmin), userHandler.ChangeRole)
		}

		estates := apiV1.Group("/estates", authMW.VerifyToken())
		{
			// Listing is token-only so registration can offer the estate picker.
			estates.GET("", estateHandler.List)
			estates.POST("", authMW.RequireProfile(), authMW.RequireRole(models.RoleAdmin), estateHandler.Create)
			estates.PUT("/:estateId/lock", authMW.RequireProfile(), authMW.RequireRole(models.RoleAdmin), estateHandler.SetLock)
		}

		households := apiV1.Group("/households", authMW.VerifyToken(), authMW.RequireProfile())
		{
			households.POST("", authMW.RequireRole(models.RoleResident), householdHandler.Create)
			households.GET("/:householdId", householdHandler.Get)
			households.PUT("/:householdId/address", householdHandler.UpdateAddress)
			households.GET("/:householdId/members", householdHandler.ListMembers)
			households.DELETE("/:householdId/members/:memberId", householdHandler.RemoveMember)
			households.POST("/:householdId/invites", householdHandler.CreateInvite)
		}

		invites := apiV1.Group("/invites", authMW.VerifyToken(), authMW.RequireProfile())
		{
			invites.GET("/pending", householdHandler.PendingInvites)
			invites.POST("/:inviteId/accept", householdHandler.AcceptInvite)
			invites.POST("/:inviteId/reject", householdHandler.RejectInvite)
		}

		codes := apiV1.Group("/access-codes", authMW.VerifyToken(), authMW.RequireProfile(), authMW.RequireRole(models.RoleResident))
		{
			codes.POST("", accessCodeHandler.Create)
			codes.GET("", accessCodeHandler.List)
			codes.POST("/:codeId/deactivate", accessCodeHandler.Deactivate)
		}

		guard := apiV1.Group("", authMW.VerifyToken(), authMW.RequireProfile(), authMW.RequireRole(models.RoleGuard))
		{
			guard.POST("/verify", accessCodeHandler.Verify)
			guard.GET("/guard/activity", accessCodeHandler.Activity)
			guard.GET("/guard/stats", accessCodeHandler.Stats)
		}

		devices := apiV1.Group("/devices", authMW.VerifyToken())
		{
			// Device check-in runs at login, before approval, so pending
			// accounts pass through here.
			devices.POST("/check", deviceHandler.Check)
			devices.GET("", deviceHandler.List)
			devices.POST("/:deviceId/request-approval", deviceHandler.RequestApproval)
			devices.POST("/:deviceId/revoke", deviceHandler.Revoke)
		}

		apiV1.GET("/geocode/reverse", authMW.VerifyToken(), geocodeHandler.Reverse)
	}
}
