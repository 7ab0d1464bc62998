// Servicio de conversión de pedidos de tienda a facturas normalizadas para
// el servicio de contabilidad Acumulus.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/facturalink/acumulus-bridge/internal/application/billing"
	"github.com/facturalink/acumulus-bridge/internal/application/complete"
	"github.com/facturalink/acumulus-bridge/internal/application/vat"
	"github.com/facturalink/acumulus-bridge/internal/domain/repository"
	"github.com/facturalink/acumulus-bridge/internal/infrastructure/acumulus"
	"github.com/facturalink/acumulus-bridge/internal/infrastructure/pdf"
	"github.com/facturalink/acumulus-bridge/internal/infrastructure/postgres"
	apphttp "github.com/facturalink/acumulus-bridge/internal/interfaces/http"
	"github.com/facturalink/acumulus-bridge/pkg/config"
	"github.com/facturalink/acumulus-bridge/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("error cargando configuración: " + err.Error())
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	log.Info().Str("env", cfg.App.Env).Msg("iniciando " + cfg.App.Name)

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	settings := completorSettings(cfg.Invoice)
	if err := settings.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración de facturación inválida")
	}
	resolver := vat.NewResolver(cfg.Vat.Rates, cfg.Vat.PriceTolerance, cfg.Vat.VatTolerance)

	// Base de datos opcional: sin ella el servicio convierte pero no registra.
	var entryRepo repository.EntryRepository
	if cfg.DB.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := postgres.NewPool(ctx, cfg.DB)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("error conectando a PostgreSQL")
		}
		defer pool.Close()
		entryRepo = postgres.NewEntryRepository(pool)
		log.Info().Msg("conexión a PostgreSQL establecida")
	} else {
		log.Info().Msg("sin base de datos configurada: las conversiones no se registran")
	}

	envelopeBuilder := acumulus.NewEnvelopeBuilder(acumulus.Contract{
		ContractCode: cfg.Acumulus.ContractCode,
		UserName:     cfg.Acumulus.UserName,
		Password:     cfg.Acumulus.Password,
		TestMode:     cfg.Acumulus.TestMode,
	})

	convertUC := billing.NewConvertInvoiceUseCase(
		resolver,
		settings,
		envelopeBuilder,
		pdf.NewPreviewGenerator(),
		entryRepo,
		logger.Component(log, "billing"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    cfg.App.Name + " API",
	}))

	apphttp.Router(app, apphttp.RouterDeps{
		ConvertInvoice: convertUC,
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Fatal().Err(err).Msg("error en el servidor HTTP")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("apagando servidor...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("error durante el apagado")
	}
	log.Info().Msg("servidor detenido")
}

// completorSettings traduce la configuración externa a las opciones del
// completor. Los enums se validan con Settings.Validate en el arranque.
func completorSettings(ic config.InvoiceConfig) complete.Settings {
	return complete.Settings{
		NumberSource:                 ic.NumberSource,
		DateSource:                   ic.DateSource,
		ConceptMode:                  ic.ConceptMode,
		DefaultCostCenter:            ic.CostCenter,
		DefaultAccountNumber:         ic.AccountNumber,
		CostCenterByPaymentMethod:    ic.CostCenterOverrides,
		AccountNumberByPaymentMethod: ic.AccountNumberOverrides,
		TemplateDue:                  ic.TemplateDue,
		TemplatePaid:                 ic.TemplatePaid,
		DefaultCountryCode:           ic.DefaultCountryCode,
		AnonymizeCustomer:            ic.AnonymizeCustomer,
		EmailAsPdfEnabled:            ic.EmailAsPdfEnabled,
		EmailFrom:                    ic.EmailFrom,
		EmailBcc:                     ic.EmailBcc,
		EmailSubject:                 ic.EmailSubject,
		MarginProducts:               ic.MarginProducts,
		DefaultNature:                ic.DefaultNature,
		ReconcileTolerance:           ic.ReconcileTolerance,
	}
}
