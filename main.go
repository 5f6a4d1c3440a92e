package main

import (
	"net/http"
	"os"

	"github.com/pec-ai/auth/internal/account"
	accountstore "github.com/pec-ai/auth/internal/account/store"
	"github.com/pec-ai/auth/internal/auth"
	"github.com/pec-ai/auth/internal/config"
	"github.com/pec-ai/auth/internal/otp"
	otpstore "github.com/pec-ai/auth/internal/otp/store"
	"github.com/pec-ai/auth/internal/platform/database"
	"github.com/pec-ai/auth/internal/sms"
	"github.com/pec-ai/auth/internal/status"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var goEnv string = "development"

func main() {
	if goEnv != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Info().Str("environment", goEnv).Msg("Starting server")

	config.SetConfig(goEnv)

	if goEnv == "production" && config.Conf.SMS.ExposeCodes {
		log.Fatal().Msg("sms.expose_codes must not be enabled in production")
	}

	db, err := database.NewDB()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	accountService := account.NewService(accountstore.NewStore(db))
	otpService := otp.NewService(otpstore.NewStore(db), config.Conf.SMS.CodeTTL)
	authService := auth.NewService(accountService, otpService, sms.NewLogSender(), auth.Config{
		Secret:     config.Conf.Auth.Secret,
		Issuer:     config.Conf.Auth.Issuer,
		AccessTTL:  config.Conf.Auth.AccessTTL,
		RefreshTTL: config.Conf.Auth.RefreshTTL,
	})

	mux := http.NewServeMux()
	auth.NewHandler(authService, config.Conf.SMS.ExposeCodes).RegisterRoutes(mux)
	status.NewHandler(db).RegisterRoutes(mux)

	port := config.Conf.Server.Port
	if port == "" {
		port = "3000"
	}
	addr := ":" + port

	log.Info().Str("addr", addr).Msg("Server is running")
	if err := http.ListenAndServe(addr, authService.Middleware(mux)); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
