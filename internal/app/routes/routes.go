package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/speexify/speexify/internal/app/controllers"
	"github.com/speexify/speexify/internal/middleware"
)

// Controllers bundles the controllers the router mounts.
type Controllers struct {
	Auth    *controllers.AuthController
	User    *controllers.UserController
	Session *controllers.SessionController
	Admin   *controllers.AdminController
}

// Setup mounts the API surface. Public auth endpoints sit behind the rate
// limiter; everything under /me, /users, /sessions and /admin requires a
// session, with /admin additionally gated on the real actor being admin.
func Setup(
	router *gin.Engine,
	authMW *middleware.AuthMiddleware,
	authLimiter *middleware.RateLimiter,
	health gin.HandlerFunc,
	c Controllers,
) {
	api := router.Group("/api")
	api.GET("/health", health)

	auth := api.Group("/auth")
	{
		limited := auth.Group("", authLimiter.Middleware())
		limited.POST("/register/start", c.Auth.RegisterStart)
		limited.POST("/register/complete", c.Auth.RegisterComplete)
		limited.POST("/login", c.Auth.Login)
		limited.POST("/password/forgot", c.Auth.ForgotPassword)
		limited.POST("/password/reset", c.Auth.ResetPassword)

		auth.POST("/register", c.Auth.LegacyRegister)
		auth.GET("/me", authMW.OptionalSession(), c.Auth.Me)
		auth.POST("/logout", authMW.RequireSession(), c.Auth.Logout)
	}

	me := api.Group("/me", authMW.RequireSession())
	{
		me.GET("", c.User.GetProfile)
		me.PATCH("", c.User.UpdateProfile)
		me.POST("/password", c.User.ChangePassword)
		me.GET("/summary", c.User.Summary)
	}

	api.GET("/users", authMW.RequireSession(), c.User.ListUsers)

	sessions := api.Group("/sessions", authMW.RequireSession())
	{
		sessions.GET("", c.Session.List)
		sessions.POST("", authMW.RequireAdmin(), c.Session.Create)
		sessions.PATCH("/:id", authMW.RequireAdmin(), c.Session.Update)
		sessions.DELETE("/:id", authMW.RequireAdmin(), c.Session.Delete)
	}

	admin := api.Group("/admin", authMW.RequireSession(), authMW.RequireAdmin())
	{
		admin.GET("/sessions", c.Admin.SearchSessions)
		admin.GET("/users", c.Admin.ListUsers)
		admin.PATCH("/users/:id", c.Admin.UpdateUser)
		admin.POST("/impersonate/stop", c.Admin.StopImpersonation)
		admin.POST("/impersonate/:id", c.Admin.Impersonate)
		admin.GET("/teachers/workload", c.Admin.TeacherWorkload)
	}
}
