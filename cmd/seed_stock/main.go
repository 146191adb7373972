// seed_stock carga saldos iniciales de inventario desde un XML (UTF-8 o ISO-8859-1).
//
// Uso:
//
//	go run ./cmd/seed_stock saldos.xml              # escribe saldos.sql junto al XML
//	go run ./cmd/seed_stock --out - saldos.xml      # SQL por stdout
//	go run ./cmd/seed_stock --apply saldos.xml      # aplica directamente en PostgreSQL (DB_*)
//
// Cada línea entra como ajuste positivo con referencia "opening_balance" y recalcula el CUMP.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-core/pkg/config"
	"github.com/jhoicas/stock-core/pkg/logger"
)

func main() {
	apply := pflag.Bool("apply", false, "aplicar en PostgreSQL en lugar de generar SQL")
	out := pflag.String("out", "", "ruta del script SQL (\"-\" para stdout)")
	pflag.Parse()

	xmlPath := "saldos.xml"
	if pflag.NArg() > 0 {
		xmlPath = pflag.Arg(0)
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	ob, err := parseOpeningBalance(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if *apply {
		if err := applyOpeningBalance(ob); err != nil {
			fmt.Fprintf(os.Stderr, "Aplicar saldos: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var w io.Writer = os.Stdout
	outPath := *out
	if outPath == "" {
		outPath = strings.TrimSuffix(xmlPath, filepath.Ext(xmlPath)) + ".sql"
	}
	if outPath != "-" {
		file, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		w = file
	}
	if err := writeSQL(w, ob); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	if outPath != "-" {
		fmt.Printf("Generado %s: %d tiendas, %d productos, %d saldos\n", outPath, len(ob.Stores), len(ob.Products), len(ob.Lines))
	}
}

// applyOpeningBalance registra catálogos y saldos en una sola transacción por archivo.
func applyOpeningBalance(ob *openingBalance) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed_stock"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()
	if cfg.Storage.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migraciones: %w", err)
		}
	}

	stores := postgres.NewStoreRepository(pool)
	for i := range ob.Stores {
		if err := stores.Upsert(ctx, &ob.Stores[i]); err != nil {
			return fmt.Errorf("tienda %s: %w", ob.Stores[i].ID, err)
		}
	}
	products := postgres.NewProductRepository(pool)
	for i := range ob.Products {
		if err := products.Upsert(ctx, &ob.Products[i]); err != nil {
			return fmt.Errorf("producto %s: %w", ob.Products[i].ID, err)
		}
	}

	mutator := inventory.NewStockMutator(func() time.Time { return ob.Date })
	err = postgres.NewTxRunner(pool).Run(ctx, func(tx inventory.Repos) error {
		movements := make([]*entity.MovementRecord, 0, len(ob.Lines))
		for _, l := range ob.Lines {
			level, err := mutator.Receive(ctx, tx.Stock, l.StoreID, l.ProductID, l.Quantity, l.UnitCost)
			if err != nil {
				return err
			}
			log.Debug().Str("store_id", l.StoreID).Str("product_id", l.ProductID).
				Str("quantity", level.Quantity.String()).Str("average_cost", level.AverageCost.String()).
				Msg("saldo aplicado")
			movements = append(movements, mutator.NewMovement(inventory.MovementInput{
				Type:          entity.MovementAdjustment,
				StoreID:       l.StoreID,
				ProductID:     l.ProductID,
				QuantityDelta: l.Quantity,
				UnitCost:      l.UnitCost,
				ReferenceType: entity.ReferenceOpeningBalance,
				CreatedBy:     ob.User,
				Comment:       "Saldo inicial",
			}))
		}
		return tx.Movements.Append(ctx, movements...)
	})
	if err != nil {
		return err
	}
	log.Info().Int("stores", len(ob.Stores)).Int("products", len(ob.Products)).Int("lines", len(ob.Lines)).
		Msg("saldos iniciales aplicados")
	return nil
}
