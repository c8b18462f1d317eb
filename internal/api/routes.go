package api

import (
	"net/http"

	"alcyxob/fitness-hub/internal/config"
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/metrics"
	"alcyxob/fitness-hub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Dependencies is everything the router needs. RateCounter may be nil, which
// disables rate limiting.
type Dependencies struct {
	Auth          service.AuthService
	Users         service.UserService
	Trainers      service.TrainerService
	Appointments  service.AppointmentService
	Workouts      service.WorkoutService
	Nutrition     service.NutritionService
	MealPlans     service.PlanService
	WorkoutPlans  service.PlanService
	Payments      service.PaymentService
	Subscriptions service.SubscriptionService

	Webhooks    EventParser
	Reconciler  EventApplier
	RateLimit   config.RateLimitConfig
	RateCounter WindowCounter
	Log         logrus.FieldLogger
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.Auth)
	userHandler := NewUserHandler(deps.Users)
	trainerHandler := NewTrainerHandler(deps.Trainers)
	appointmentHandler := NewAppointmentHandler(deps.Appointments)
	workoutHandler := NewWorkoutHandler(deps.Workouts)
	nutritionHandler := NewNutritionHandler(deps.Nutrition)
	mealPlanHandler := NewPlanHandler(deps.MealPlans)
	workoutPlanHandler := NewPlanHandler(deps.WorkoutPlans)
	paymentHandler := NewPaymentHandler(deps.Payments)
	subscriptionHandler := NewSubscriptionHandler(deps.Subscriptions)
	webhookHandler := NewWebhookHandler(deps.Webhooks, deps.Reconciler, deps.Log)

	router.Use(RequestID(), RequestLogger(deps.Log), Metrics(), gin.Recovery())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Signed by the processor; no bearer token.
	router.POST("/webhooks/stripe", webhookHandler.Stripe)

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		authGroup.Use(RateLimit(deps.RateLimit, deps.RateCounter, deps.Log))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(deps.Auth))
	{
		users := protected.Group("/users")
		{
			users.GET("/me", userHandler.Me)
			users.PATCH("/me", userHandler.UpdateMe)
			users.POST("/me/avatar", userHandler.CreateAvatarUpload)
			users.GET("", RoleMiddleware(domain.RoleAdmin), userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.DELETE("/:id", userHandler.Delete)
		}

		trainers := protected.Group("/trainers")
		{
			trainers.GET("", trainerHandler.ListProfiles)
			trainers.POST("", trainerHandler.CreateProfile)
			trainers.GET("/:id", trainerHandler.GetProfile)
			trainers.PATCH("/:id", trainerHandler.UpdateProfile)
			trainers.DELETE("/:id", trainerHandler.DeleteProfile)

			trainers.GET("/:id/clients", trainerHandler.GetClients)
			trainers.POST("/:id/clients", trainerHandler.AddClient)
			trainers.DELETE("/:id/clients/:clientId", trainerHandler.RemoveClient)
		}

		appointments := protected.Group("/appointments")
		{
			appointments.GET("", appointmentHandler.List)
			appointments.POST("", appointmentHandler.Create)
			appointments.GET("/:id", appointmentHandler.Get)
			appointments.PATCH("/:id", appointmentHandler.Update)
			appointments.DELETE("/:id", appointmentHandler.Delete)
			appointments.PATCH("/:id/cancel", appointmentHandler.Cancel)
			appointments.POST("/:id/feedback", appointmentHandler.SubmitFeedback)
		}

		workouts := protected.Group("/workouts")
		{
			workouts.GET("", workoutHandler.List)
			workouts.POST("", workoutHandler.Create)
			workouts.GET("/:id", workoutHandler.Get)
			workouts.PATCH("/:id", workoutHandler.Update)
			workouts.DELETE("/:id", workoutHandler.Delete)
		}

		nutrition := protected.Group("/nutrition-logs")
		{
			nutrition.GET("", nutritionHandler.List)
			nutrition.POST("", nutritionHandler.Create)
			nutrition.GET("/:id", nutritionHandler.Get)
			nutrition.PATCH("/:id", nutritionHandler.Update)
			nutrition.DELETE("/:id", nutritionHandler.Delete)
		}

		for path, h := range map[string]*PlanHandler{"/meal-plans": mealPlanHandler, "/workout-plans": workoutPlanHandler} {
			plans := protected.Group(path)
			plans.GET("", h.List)
			plans.POST("", h.Create)
			plans.GET("/:id", h.Get)
			plans.PATCH("/:id", h.Update)
			plans.DELETE("/:id", h.Delete)
		}

		payments := protected.Group("/payments")
		{
			payments.GET("", paymentHandler.List)
			payments.POST("/customer", paymentHandler.EnsureCustomer)
			payments.POST("/setup-intent", paymentHandler.CreateSetupIntent)
			payments.GET("/methods", paymentHandler.ListMethods)
			payments.POST("/methods/:methodId/attach", paymentHandler.AttachMethod)
			payments.DELETE("/methods/:methodId", paymentHandler.DetachMethod)
			payments.POST("/checkout", paymentHandler.Checkout)
			payments.GET("/:id", paymentHandler.Get)
			payments.POST("/:id/refund", paymentHandler.Refund)
		}

		subscriptions := protected.Group("/subscriptions")
		{
			subscriptions.GET("/me", subscriptionHandler.Current)
			subscriptions.POST("", subscriptionHandler.Create)
			subscriptions.PATCH("/:id/cancel", subscriptionHandler.Cancel)
			subscriptions.POST("/plans", RoleMiddleware(domain.RoleAdmin), subscriptionHandler.CreatePlan)
		}
	}
}
