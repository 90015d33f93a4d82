package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/agrovalle/semillas-api/internal/application/allocation"
	"github.com/agrovalle/semillas-api/internal/application/ledger"
	"github.com/agrovalle/semillas-api/internal/application/lifecycle"
	"github.com/agrovalle/semillas-api/internal/application/query"
	"github.com/agrovalle/semillas-api/internal/infrastructure/postgres"
	httpRouter "github.com/agrovalle/semillas-api/internal/interfaces/http"
	"github.com/agrovalle/semillas-api/pkg/config"
	"github.com/agrovalle/semillas-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	loteRepo := postgres.NewLoteRepository(pool)
	movRepo := postgres.NewMovimientoRepository(pool)
	invRepo := postgres.NewInventarioRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	ledgerUC := ledger.NewUseCase(txRunner, loteRepo, movRepo)
	lifecycleUC := lifecycle.NewUseCase(txRunner, loteRepo)
	allocUC := allocation.NewUseCase(txRunner)
	queryUC := query.NewUseCase(loteRepo, movRepo, invRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		LedgerUC:    ledgerUC,
		LifecycleUC: lifecycleUC,
		AllocUC:     allocUC,
		QueryUC:     queryUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
