package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/leaftown/property-api/internal/application/auth"
	"github.com/leaftown/property-api/internal/application/listing"
	"github.com/leaftown/property-api/internal/application/upload"
	"github.com/leaftown/property-api/internal/config"
	"github.com/leaftown/property-api/internal/domain"
	"github.com/leaftown/property-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/leaftown/property-api/internal/infrastructure/jwt"
	s3infra "github.com/leaftown/property-api/internal/infrastructure/s3"
	"github.com/leaftown/property-api/internal/infrastructure/smtp"
	"github.com/leaftown/property-api/internal/infrastructure/sns"
	"github.com/leaftown/property-api/internal/transport/http/handler"
	appmiddleware "github.com/leaftown/property-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo      *dynamo.UserRepo
	OtpRepo       *dynamo.OtpRepo
	ProfileRepo   *dynamo.SellerProfileRepo
	ApartmentRepo *dynamo.ApartmentRepo
	PlotRepo      *dynamo.PlotRepo
	ImageRepo     *dynamo.ImageRepo
	S3Store       *s3infra.Store
	Mailer        smtp.Mailer
	SMSSender     sns.SMSSender
	JWTProvider   *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10, applied to OTP and registration endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		OtpRepo:     deps.OtpRepo,
		JWTProvider: deps.JWTProvider,
		SMSSender:   deps.SMSSender,
		Mailer:      deps.Mailer,
		OTPTTL:      cfg.OTPTTL,
	})
	listingSvc := listing.NewService(listing.ServiceDeps{
		ApartmentRepo: deps.ApartmentRepo,
		PlotRepo:      deps.PlotRepo,
		ProfileRepo:   deps.ProfileRepo,
	})
	uploadSvc := upload.NewService(deps.S3Store, deps.ImageRepo)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, cfg.RefreshTokenTTL, cfg.AppEnv == "production")
	listingH := handler.NewListingHandler(listingSvc)
	uploadH := handler.NewUploadHandler(uploadSvc)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.With(sensitiveRL.Limit).Post("/register", authH.Register)
			r.With(sensitiveRL.Limit).Post("/send-otp", authH.SendOTP)
			r.With(sensitiveRL.Limit).Post("/verify-otp", authH.VerifyOTP)
			r.Post("/refresh", authH.Refresh)
			r.With(authMw).Post("/logout", authH.Logout)
		})

		// Listings are publicly readable; mutations require a seller token.
		r.Get("/apartments", listingH.ListApartments)
		r.Get("/apartments/{id}", listingH.GetApartment)
		r.Get("/plots", listingH.ListPlots)
		r.Get("/plots/{id}", listingH.GetPlot)
		r.Get("/images/{id}", uploadH.Download)
		r.Get("/images/{id}/url", uploadH.URL)

		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(appmiddleware.RequireRole(domain.RoleSeller))

			r.Post("/apartments", listingH.CreateApartment)
			r.Put("/apartments/{id}", listingH.UpdateApartment)
			r.Delete("/apartments/{id}", listingH.DeleteApartment)

			r.Post("/plots", listingH.CreatePlot)
			r.Put("/plots/{id}", listingH.UpdatePlot)
			r.Delete("/plots/{id}", listingH.DeletePlot)

			r.Post("/images", uploadH.Upload)
			r.Delete("/images/{id}", uploadH.Delete)
		})
	})

	return r
}
