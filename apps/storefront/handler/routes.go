package handler

import (
	"net/http"

	"supplyhub/apps/storefront/middleware"
	"supplyhub/pkg/metrics"
	"supplyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// Register mounts the API under /api/v1 plus /healthz and /metrics.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1", h.auth.Identify())

	catalogWrite := middleware.RequirePermission(middleware.CatalogWrite)
	{
		v1.GET("/categories", h.listCategories)
		v1.GET("/categories/tree", h.categoryTree)
		v1.GET("/categories/slug/:slug", h.getCategoryBySlug)
		v1.GET("/categories/:id", h.getCategory)
		v1.GET("/categories/:id/path", h.categoryPath)
		v1.POST("/categories", catalogWrite, h.createCategory)
		v1.PATCH("/categories/:id", catalogWrite, h.updateCategory)
		v1.DELETE("/categories/:id", catalogWrite, h.deleteCategory)

		v1.GET("/brands", h.listBrands)
		v1.GET("/brands/:id", h.getBrand)
		v1.POST("/brands", catalogWrite, h.createBrand)
		v1.PATCH("/brands/:id", catalogWrite, h.updateBrand)
		v1.DELETE("/brands/:id", catalogWrite, h.deleteBrand)

		v1.GET("/products", h.listPublishedProducts)
		v1.GET("/products/slug/:slug", h.getPublishedProduct)
		v1.POST("/products", catalogWrite, h.createProduct)
		v1.PATCH("/products/:id", catalogWrite, h.updateProduct)
		v1.POST("/products/:id/stock", catalogWrite, h.adjustStock)
		v1.DELETE("/products/:id", catalogWrite, h.deleteProduct)
	}

	orders := v1.Group("/orders")
	{
		orders.GET("", middleware.RequirePermission(middleware.OrdersRead), h.listOrders)
		orders.GET("/:id", middleware.RequirePermission(middleware.OrdersRead), h.getOrder)
		orders.POST("", middleware.RequirePermission(middleware.OrdersWrite), h.createOrder)
		orders.PATCH("/:id", middleware.RequirePermission(middleware.OrdersWrite), h.updateOrder)
		orders.POST("/:id/force-status", middleware.RequirePermission(middleware.OrdersForce), h.forceOrderStatus)
		orders.DELETE("/:id", middleware.RequirePermission(middleware.OrdersWrite), h.deleteOrder)
	}

	quotes := v1.Group("/quotes")
	quoteWrite := middleware.RequirePermission(middleware.QuotesWrite)
	{
		// 游客也可以询价, so creation is public and rate limited.
		quotes.POST("", h.limiter.Limit(middleware.ResQuoteRequest), h.createQuote)
		quotes.GET("", middleware.RequirePermission(middleware.QuotesRead), h.listQuotes)
		quotes.GET("/:id", middleware.RequirePermission(middleware.QuotesRead), h.getQuote)
		quotes.PATCH("/:id", quoteWrite, h.updateQuoteStatus)
		quotes.POST("/:id/respond", quoteWrite, h.respondQuote)
		quotes.POST("/:id/convert", quoteWrite, h.convertQuote)
		quotes.POST("/expire", quoteWrite, h.expireQuotes)
		quotes.DELETE("/:id", quoteWrite, h.deleteQuote)
	}

	customers := v1.Group("/customers", middleware.RequirePermission(middleware.CustomersManage))
	{
		customers.GET("", h.listCustomers)
		customers.POST("", h.createCustomer)
		customers.GET("/:id", h.getCustomer)
		customers.PATCH("/:id", h.updateCustomer)
		customers.DELETE("/:id", h.deleteCustomer)
	}

	v1.POST("/messages", h.limiter.Limit(middleware.ResContactForm), h.createMessage)
	messages := v1.Group("/messages", middleware.RequirePermission(middleware.MessagesManage))
	{
		messages.GET("", h.listMessages)
		messages.GET("/:id", h.openMessage)
		messages.PATCH("/:id", h.updateMessage)
		messages.POST("/:id/reply", h.replyMessage)
		messages.DELETE("/:id", h.deleteMessage)
	}

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.limiter.Limit(middleware.ResLogin), h.register)
		auth.POST("/login", h.limiter.Limit(middleware.ResLogin), h.login)
		auth.POST("/logout", h.logout)
		auth.GET("/me", middleware.RequireAuth(), h.me)
		auth.POST("/password", middleware.RequireAuth(), h.changePassword)
	}

	admin := v1.Group("/admin")
	{
		admin.GET("/stats", middleware.RequirePermission(middleware.StatsRead), h.dashboardStats)
		admin.GET("/products", catalogWrite, h.listAllProducts)
		admin.GET("/products/:id", catalogWrite, h.getProduct)
		admin.GET("/users", middleware.RequirePermission(middleware.UsersManage), h.listUsers)
		admin.PATCH("/users/:id", middleware.RequirePermission(middleware.UsersManage), h.updateUser)
	}
}

func (h *Handler) health(c *gin.Context) {
	if h.opts.Ready != nil {
		if err := h.opts.Ready(c.Request.Context()); err != nil {
			response.Error(c, http.StatusServiceUnavailable, "unavailable: "+err.Error())
			return
		}
	}
	response.Success(c, gin.H{"status": "ok"})
}
