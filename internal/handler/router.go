package handler

import (
	"time"

	"optik-backend/internal/events"
	"optik-backend/internal/middleware"
	"optik-backend/internal/models"
	"optik-backend/internal/service"
	"optik-backend/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	DB             *gorm.DB
	Tokens         *utils.TokenManager
	Publisher      events.Publisher
	Log            *zap.SugaredLogger
	Store          models.StoreInfo
	AllowedOrigins []string
}

// NewRouter wires services and handlers onto a gin engine. Everything lives
// under /api.
func NewRouter(d Deps) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}

	customers := service.NewCustomerService(d.DB)
	orders := service.NewOrderService(d.DB, d.Publisher, d.Log.Named("orders"))
	payments := service.NewPaymentService(d.DB, d.Publisher, d.Log.Named("payments"))
	stock := service.NewStockService(d.DB, d.Publisher, d.Log.Named("stock"))
	users := service.NewUserService(d.DB, d.Tokens, d.Log.Named("users"))

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log.Named("http")))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(d.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = d.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))

	api := r.Group("/api")
	authed := middleware.AuthMiddleware(d.Tokens)
	active := middleware.RequireActiveUser(users)
	adminOnly := middleware.RequireRole(string(models.RoleAdmin))

	publicHandler := NewPublicHandler(d.Store)
	api.GET("/ping", publicHandler.Ping)
	api.GET("/store-info", publicHandler.GetStoreInfo)

	authHandler := NewAuthHandler(users, d.Log.Named("auth"))
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.GET("/me", authed, active, authHandler.Me)
		authRoutes.POST("/logout", authed, active, authHandler.Logout)
		authRoutes.POST("/reset-password", authed, active, authHandler.ResetPassword)
	}

	orderHandler := NewOrderHandler(orders, d.Log.Named("orders"))
	orderRoutes := api.Group("/orders", authed, active)
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.ListOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrder)
		orderRoutes.PATCH("/:id", orderHandler.UpdateOrder)
	}

	paymentHandler := NewPaymentHandler(payments, d.Log.Named("payments"))
	paymentRoutes := api.Group("/payments", authed, active)
	{
		paymentRoutes.POST("", paymentHandler.RecordPayment)
		paymentRoutes.GET("/order/:orderId", paymentHandler.ListPaymentsForOrder)
	}

	customerHandler := NewCustomerHandler(customers, d.Log.Named("customers"))
	customerRoutes := api.Group("/customers", authed, active)
	{
		customerRoutes.POST("", customerHandler.CreateCustomer)
		customerRoutes.GET("", customerHandler.ListCustomers)
		customerRoutes.GET("/:id", customerHandler.GetCustomer)
		customerRoutes.PATCH("/:id", customerHandler.UpdateCustomer)
		customerRoutes.DELETE("/:id", adminOnly, customerHandler.DeleteCustomer)
	}

	inventoryHandler := NewInventoryHandler(stock, d.Log.Named("inventory"))
	api.GET("/stock", authed, active, inventoryHandler.ListStockMovements)
	api.POST("/stock", authed, active, adminOnly, inventoryHandler.CreateStockMovement)
	api.GET("/products", authed, active, inventoryHandler.ListProducts)
	api.POST("/products", authed, active, adminOnly, inventoryHandler.CreateProduct)

	reportHandler := NewReportHandler(orders, d.Log.Named("reports"))
	adminHandler := NewAdminHandler(users, d.Log.Named("admin"))
	adminRoutes := api.Group("", authed, active, adminOnly)
	{
		adminRoutes.GET("/reports/sales", reportHandler.GetSalesReport)
		adminRoutes.GET("/users", adminHandler.ListUsers)
		adminRoutes.PATCH("/users/:id", adminHandler.UpdateUser)
	}

	return r, nil
}
