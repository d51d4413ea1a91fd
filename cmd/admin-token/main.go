// Команда admin-token выпускает JWT оператора для административных маршрутов.
//
//	CONFIG_PATH=config/config.yaml go run ./cmd/admin-token -subject ops
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/magabrotheeeer/token-billing/internal/config"
	"github.com/magabrotheeeer/token-billing/internal/lib/jwt"
	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
)

func main() {
	subject := flag.String("subject", "operator", "идентификатор оператора в токене")
	role := flag.String("role", jwt.RoleAdmin, "роль в токене")
	flag.Parse()

	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: sl.ParseLevel(cfg.LogLevel)}))

	if cfg.JWTSecretKey == "" {
		logger.Error("jwttoken.jwt_secret_key is empty")
		os.Exit(1)
	}

	token, err := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL).GenerateToken(*subject, *role)
	if err != nil {
		logger.Error("failed to generate token", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("token issued", slog.String("subject", *subject), slog.Duration("ttl", cfg.TokenTTL))
	fmt.Println(token)
}
