package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"blogssom/internal/auth"
	"blogssom/internal/config"
	"blogssom/internal/handlers"
	"blogssom/internal/middleware"
	"blogssom/internal/models"
	"blogssom/internal/repository"
	"blogssom/internal/services"
)

func RegisterUserRoutes(router chi.Router, db *sql.DB, cfg *config.Config) {
	users := repository.NewUserRepository(db)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTLifetime)
	passwords := auth.NewPasswordManager(cfg.BcryptCost, cfg.MaxConcurrentHashes)
	notifier := &services.Notifier{Sender: &services.SMTPSender{
		Host:   cfg.SMTPHost,
		Port:   cfg.SMTPPort,
		User:   cfg.SMTPUser,
		Pass:   cfg.SMTPPassword,
		From:   cfg.SMTPFrom,
		UseTLS: cfg.SMTPUseTLS,
	}}

	authn := &middleware.Authenticator{
		Tokens:     tokens,
		Passwords:  passwords,
		Users:      users,
		CookieName: cfg.CookieName,
		Production: cfg.IsProduction(),
	}

	authHandler := handlers.NewAuthHandler(users, tokens, passwords, notifier, cfg)
	userHandler := handlers.NewUserHandler(users, cfg)

	router.Route("/users", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/forgotPassword", authHandler.ForgotPassword)
		r.Patch("/resetPassword/{token}", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authn.Protect)

			r.Get("/logout", authHandler.Logout)
			r.Get("/me", userHandler.Me)
			r.Patch("/updateMyPassword", authHandler.UpdatePassword)

			r.Group(func(r chi.Router) {
				r.Use(authn.RequireRole(models.RoleAdmin))

				r.Get("/", userHandler.ListUsers)
				r.Post("/", userHandler.CreateUser)
				r.Get("/{id}", userHandler.GetUser)
				r.Delete("/{id}", userHandler.DeleteUser)
			})
		})
	})
}
