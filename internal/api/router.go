package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Rishika-pasricha/Hack-Hub/internal/app"
)

/*
SetupRouter wires every HTTP endpoint through thin closure wrappers so each
handler receives the running *app.App instance.
*/
func SetupRouter(a *app.App) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	m := NewMiddleware(a.Auth(), a.Log())

	r := gin.New()
	r.Use(gin.Recovery(), m.RequestLogger(), Metrics())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	/* ---------- public endpoints ---------- */
	r.POST("/register", func(c *gin.Context) { handleRegister(a, c) })
	r.POST("/login", func(c *gin.Context) { handleLogin(a, c) })
	r.POST("/forgot-password", func(c *gin.Context) { handleForgotPassword(a, c) })
	r.POST("/verify-otp", func(c *gin.Context) { handleVerifyOTP(a, c) })
	r.POST("/reset-password", func(c *gin.Context) { handleResetPassword(a, c) })

	r.GET("/municipality/by-area",
		func(c *gin.Context) { handleMunicipalityLookup(a, c, "area") })
	r.GET("/municipality/by-district",
		func(c *gin.Context) { handleMunicipalityLookup(a, c, "district") })

	public := r.Group("/")
	public.Use(m.OptionalAuth())
	{
		public.GET("/blogs", func(c *gin.Context) { handleListBlogs(a, c) })
		public.GET("/products", func(c *gin.Context) { handleListProducts(a, c) })
	}

	/* ---------- protected endpoints ---------- */
	api := r.Group("/")
	api.Use(m.AuthRequired())
	{
		api.GET("/profile", func(c *gin.Context) { handleGetProfile(a, c) })
		api.PATCH("/profile", func(c *gin.Context) { handleUpdateProfile(a, c) })
		api.DELETE("/account", func(c *gin.Context) { handleDeleteAccount(a, c) })

		api.GET("/blogs/my", func(c *gin.Context) { handleMyBlogs(a, c) })
		api.POST("/blogs/submit", func(c *gin.Context) { handleSubmitBlog(a, c) })
		api.PATCH("/blogs/:id", func(c *gin.Context) { handleEditBlog(a, c) })
		api.DELETE("/blogs/:id", func(c *gin.Context) { handleDeleteBlog(a, c) })
		api.PATCH("/blogs/:id/like", func(c *gin.Context) { handleToggleLike(a, c) })

		api.POST("/issues/submit", func(c *gin.Context) { handleSubmitIssue(a, c) })
		api.GET("/issues/my", func(c *gin.Context) { handleMyIssues(a, c) })
		api.PATCH("/issues/:id/resolve", func(c *gin.Context) { handleResolveIssue(a, c) })

		api.GET("/products/my", func(c *gin.Context) { handleMyProducts(a, c) })
		api.POST("/products/submit", func(c *gin.Context) { handleSubmitProduct(a, c) })
		api.PATCH("/products/:id", func(c *gin.Context) { handleEditProduct(a, c) })
		api.DELETE("/products/:id", func(c *gin.Context) { handleDeleteProduct(a, c) })
		api.POST("/products/:id/report", func(c *gin.Context) { handleReportProduct(a, c) })

		api.GET("/notifications/likes", func(c *gin.Context) { handleNotifications(a, c) })

		/* ----- municipality sub‑group ----- */
		admin := api.Group("/admin")
		admin.Use(m.MunicipalityRequired())
		{
			admin.GET("/pending-blogs", func(c *gin.Context) { handlePendingBlogs(a, c) })
			admin.PATCH("/blogs/:id/approve",
				func(c *gin.Context) { handleModerateBlog(a, c, true) })
			admin.PATCH("/blogs/:id/reject",
				func(c *gin.Context) { handleModerateBlog(a, c, false) })
			admin.GET("/issues", func(c *gin.Context) { handleMunicipalityIssues(a, c) })
		}
	}

	/* ---------- operator endpoints ---------- */
	r.POST("/admin/municipalities/sync", m.OperatorRequired(a.Config().OperatorToken),
		func(c *gin.Context) { handleSyncMunicipalities(a, c) })

	return r
}
