// @title        Charge Ledger API
// @version      1.0
// @description  Libro de inventario por lotes (charges): entradas, mermas, reubicaciones, fusiones y vista de stock.
// @BasePath     /
// @securityDefinitions.apikey Bearer
// @in           header
// @name         Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/charge-ledger/docs"
	"github.com/jhoicas/charge-ledger/internal/application/inventory"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
	"github.com/jhoicas/charge-ledger/internal/infrastructure/erp"
	"github.com/jhoicas/charge-ledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/charge-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/charge-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/charge-ledger/internal/infrastructure/sqlite"
	httpRouter "github.com/jhoicas/charge-ledger/internal/interfaces/http"
	"github.com/jhoicas/charge-ledger/pkg/config"
	"github.com/jhoicas/charge-ledger/pkg/logger"
)

// backend persistencia elegida por STORE_DRIVER.
type backend struct {
	txRunner  inventory.TxRunner
	charges   repository.ChargeRepository
	movements repository.MovementRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	loc, err := cfg.Ledger.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria del ledger")
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("abrir persistencia")
	}
	defer store.close()

	locker := inventory.NewKeyLocker(cfg.Ledger.LockTimeout)
	chargeUC := inventory.NewChargeUseCase(store.txRunner, store.charges, locker, time.Now, log.Component("charges"))
	transferUC := inventory.NewTransferUseCase(store.txRunner, store.charges, locker, time.Now, log.Component("transfers"))
	overviewUC := inventory.NewOverviewUseCase(store.txRunner, time.Now, loc, cfg.Ledger.CriticalThresholdDays, log.Component("overview"))

	// PDF: informe del historial de movimientos
	reports := infrapdf.NewMarotoReportGenerator(cfg.Ledger.ReportLocale, loc)
	historyUC := inventory.NewHistoryUseCase(store.movements, reports, time.Now, loc)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    docs.SwaggerInfo.Title,
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ChargeUC:   chargeUC,
		TransferUC: transferUC,
		OverviewUC: overviewUC,
		HistoryUC:  historyUC,
		JWTSecret:  cfg.JWT.Secret,
		Log:        log.Component("http"),
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

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		articles, err := startupArticles(cfg, log)
		if err != nil {
			s.Close()
			return nil, err
		}
		for _, a := range articles {
			if err := s.PutArticle(ctx, a); err != nil {
				s.Close()
				return nil, err
			}
		}
		repos := s.Repos()
		return &backend{
			txRunner:  s,
			charges:   repos.Charges,
			movements: repos.Movements,
			close: func() {
				if err := s.Close(); err != nil {
					log.Error().Err(err).Msg("cerrar SQLite")
				}
			},
		}, nil
	case config.DriverMemory:
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
		articles, err := startupArticles(cfg, log)
		if err != nil {
			return nil, err
		}
		s := memory.NewStore()
		for _, a := range articles {
			s.AddArticle(a)
		}
		return &backend{txRunner: s, charges: s.Charges(), movements: s.Movements(), close: func() {}}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool, log.Component("migrate")); err != nil {
		pool.Close()
		return nil, err
	}
	return &backend{
		txRunner:  postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		charges:   postgres.NewChargeRepository(pool, cfg.Ledger.LockTimeout),
		movements: postgres.NewMovementRepository(pool),
		close:     pool.Close,
	}, nil
}

// startupArticles carga el export del ERP indicado en STORE_ARTICLES_CSV (si hay).
func startupArticles(cfg *config.Config, log *logger.Logger) ([]entity.Article, error) {
	if cfg.Store.ArticlesCSV == "" {
		return nil, nil
	}
	articles, err := erp.LoadArticles(cfg.Store.ArticlesCSV)
	if err != nil {
		return nil, err
	}
	log.Info().Int("articles", len(articles)).Str("path", cfg.Store.ArticlesCSV).Msg("maestro de artículos cargado")
	return articles, nil
}
