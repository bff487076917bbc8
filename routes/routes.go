package routes

import (
	"net/http"

	"solemart/auth"
	"solemart/cart"
	"solemart/invoice"
	"solemart/middleware"
	"solemart/orders"
	"solemart/payments"
	"solemart/products"
	"solemart/ratelim"
	"solemart/users"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.GET("/api/auth/me", middleware.Authenticate(auth.Me))
	router.GET("/api/auth/logout", middleware.OptionalAuth(auth.Logout))
}

func AddProductRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/products", products.GetProducts)
	router.GET("/api/products/:id", products.GetProductByID)
	router.POST("/api/products", middleware.Authenticate(middleware.RequireAdmin(products.CreateProduct)))
	router.PUT("/api/products/:id", middleware.Authenticate(middleware.RequireAdmin(products.UpdateProduct)))
	router.DELETE("/api/products/:id", middleware.Authenticate(middleware.RequireAdmin(products.DeleteProduct)))
}

func AddUserRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/users", middleware.Authenticate(middleware.RequireAdmin(users.GetUsers)))
	router.GET("/api/users/:id", middleware.Authenticate(middleware.RequireAdmin(users.GetUserByID)))
	router.PUT("/api/users/:id", middleware.Authenticate(middleware.RequireAdmin(users.UpdateUser)))
	router.DELETE("/api/users/:id", middleware.Authenticate(middleware.RequireAdmin(users.DeleteUser)))
}

func AddCartRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/cart/add", middleware.Authenticate(cart.AddToCart))
	router.GET("/api/cart", middleware.Authenticate(cart.GetCart))
	router.PUT("/api/cart/update-qty", middleware.Authenticate(cart.UpdateQty))
	router.DELETE("/api/cart/remove/:productId", middleware.Authenticate(cart.RemoveFromCart))
	router.POST("/api/cart/clear", middleware.Authenticate(cart.ClearCart))
}

// getOrderDispatch keeps /api/orders/myorders and /api/orders/:id on one
// wildcard, since httprouter refuses static siblings of a param segment.
func getOrderDispatch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") == "myorders" {
		orders.GetMyOrders(w, r, ps)
		return
	}
	orders.GetOrderByID(w, r, ps)
}

func AddOrderRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, hub *orders.Hub) {
	router.POST("/api/orders", rl.Limit(middleware.Authenticate(payments.Idempotent(orders.CreateOrder))))
	router.GET("/api/orders", middleware.Authenticate(middleware.RequireAdmin(orders.GetOrders)))
	router.GET("/api/orders/:id", middleware.Authenticate(getOrderDispatch))
	router.GET("/api/orders/:id/invoice", middleware.Authenticate(invoice.OrderInvoice))
	router.PUT("/api/orders/:id/status", middleware.Authenticate(middleware.RequireAdmin(orders.UpdateDeliveryStatus)))
	router.GET("/api/admin/orders/feed", orders.FeedHandler(hub))
}

func AddPaymentRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/payment/khalti/create", rl.Limit(middleware.Authenticate(payments.CreateKhaltiPayment)))
	router.POST("/api/payment/khalti/verify", rl.Limit(payments.Idempotent(payments.VerifyKhaltiPayment)))
	router.POST("/api/payment/esewa/pay", rl.Limit(middleware.Authenticate(payments.EsewaPay)))
	router.GET("/api/payment/esewa/qr/:orderid", middleware.Authenticate(payments.EsewaQR))
	router.GET("/api/payment/esewa/success", payments.EsewaSuccess)
	router.GET("/api/payment/esewa/failure", payments.EsewaFailure)
}

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/uploads/*filepath", http.Dir("uploads"))
}

func RoutesWrapper(router *httprouter.Router, rl *ratelim.RateLimiter, hub *orders.Hub) {
	AddAuthRoutes(router, rl)
	AddProductRoutes(router, rl)
	AddUserRoutes(router, rl)
	AddCartRoutes(router, rl)
	AddOrderRoutes(router, rl, hub)
	AddPaymentRoutes(router, rl)
	AddStaticRoutes(router)
}
