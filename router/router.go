package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/controllers"
	"github.com/mesa-digital/restaurant-app/kds"
	"github.com/mesa-digital/restaurant-app/middlewares"
	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
	"gorm.io/gorm"
)

// Options carries the shared components the routes are wired to.
type Options struct {
	DB            *gorm.DB
	Sessions      *middlewares.Sessions
	Hub           *kds.Hub
	AccessLog     *services.AccessLogger
	BcryptCost    int
	PublicBaseURL string
	CORSOrigin    string
	LoginPerMin   int
}

func SetupRouter(opts Options) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(opts.CORSOrigin))

	authService, err := services.NewAuthService(opts.DB, opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	tenantService := services.NewTenantService(opts.DB, opts.BcryptCost)
	tableService := services.NewTableService(opts.DB)
	orderService := services.NewOrderService(opts.DB, opts.Hub)
	catalogService := services.NewCatalogService(opts.DB)
	userService := services.NewUserService(opts.DB, opts.BcryptCost)

	userCtrl := controllers.NewUserController(authService, userService, opts.Sessions, opts.AccessLog)
	adminCtrl := controllers.NewAdminController(tenantService)
	tableCtrl := controllers.NewTableController(tableService, orderService)
	orderCtrl := controllers.NewOrderController(orderService)
	cashCtrl := controllers.NewCashController(orderService)
	categoryCtrl := controllers.NewMenuCategoryController(catalogService)
	menuCtrl := controllers.NewMenuController(catalogService)
	customerCtrl := controllers.NewCustomerController(tenantService, tableService, catalogService, orderService)
	qrCtrl := controllers.NewQRCodeController(tenantService, tableService, opts.PublicBaseURL)
	kdsCtrl := controllers.NewKDSController(opts.Hub, opts.CORSOrigin)

	audit := func(action string) gin.HandlerFunc {
		return middlewares.AuditTrail(opts.AccessLog, action)
	}

	r.GET("/ping", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "pong", nil)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	loginLimiter := middlewares.NewRateLimiter(opts.LoginPerMin)
	r.POST("/login", loginLimiter.RateLimit(), userCtrl.Login)
	r.GET("/logout", userCtrl.Logout)
	r.POST("/logout", userCtrl.Logout)
	r.GET("/menu/:tenant_id", customerCtrl.GetMenu)
	r.POST("/menu/:tenant_id/orders", customerCtrl.PlaceOrder)
	r.GET("/qrcode/:tenant_id/:table_number", qrCtrl.GetTableQRCode)

	auth := middlewares.AuthMiddleware(opts.Sessions)
	r.GET("/ws/:topic", middlewares.RequireWebSocket(), auth, middlewares.RequireRole(models.RoleOperator), kdsCtrl.Stream)

	protected := r.Group("/")
	protected.Use(auth)
	{
		protected.GET("/me", userCtrl.Me)
		protected.GET("/qrcodes/:tenant_id", qrCtrl.GetQRCodeSheet)

		superAdmin := protected.Group("/restaurants")
		superAdmin.Use(middlewares.RequireRole(models.RoleSuperAdmin))
		{
			superAdmin.GET("", adminCtrl.ListRestaurants)
			superAdmin.POST("", audit(services.ActionCreateTenant), adminCtrl.CreateRestaurant)
			superAdmin.GET("/:id", adminCtrl.GetRestaurant)
			superAdmin.PATCH("/:id", adminCtrl.UpdateRestaurant)
		}

		staff := protected.Group("/")
		staff.Use(middlewares.RequireRole(models.RoleOperator))
		{
			staff.GET("/tables", tableCtrl.GetAllTables)
			staff.GET("/table/:id", tableCtrl.GetTable)
			staff.POST("/table/:id/close", audit(services.ActionCloseTable), tableCtrl.CloseTable)

			staff.GET("/orders", orderCtrl.GetActiveOrders)
			staff.POST("/orders", orderCtrl.CreateOrder)
			staff.GET("/orders/:id", orderCtrl.GetOrder)
			staff.PUT("/orders/:id/status", orderCtrl.UpdateOrderStatus)

			staff.GET("/categories", categoryCtrl.GetAllCategories)
			staff.GET("/products", menuCtrl.GetAllMenus)
			staff.GET("/products/:id", menuCtrl.GetMenuByID)
		}

		admin := protected.Group("/")
		admin.Use(middlewares.RequireRole(models.RoleAdmin))
		{
			admin.POST("/tables", tableCtrl.CreateTable)
			admin.PATCH("/tables/:id", tableCtrl.UpdateTable)

			admin.GET("/cash-transactions", cashCtrl.GetCashTransactions)

			admin.POST("/categories", categoryCtrl.CreateCategory)
			admin.PATCH("/categories/:id", categoryCtrl.UpdateCategory)
			admin.DELETE("/categories/:id", categoryCtrl.DeleteCategory)

			admin.POST("/products", menuCtrl.CreateMenu)
			admin.PATCH("/products/:id", menuCtrl.UpdateMenu)
			admin.DELETE("/products/:id", menuCtrl.DeleteMenu)

			admin.GET("/users", userCtrl.ListUsers)
			admin.POST("/users", audit(services.ActionCreateUser), userCtrl.CreateUser)
			admin.DELETE("/users/:id", audit(services.ActionDeactivateUser), userCtrl.DeactivateUser)
		}
	}

	return r, nil
}
