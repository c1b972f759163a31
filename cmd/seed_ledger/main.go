// seed_ledger importa movimientos de leña desde un CSV al libro local en PostgreSQL.
// Cada fila pasa por la misma derivación y validación que el formulario; las rechazadas se listan.
//
// Uso: go run ./cmd/seed_ledger [-latin1] [-user codigo] [ruta/libro.csv]
// Por defecto busca ledger.csv en el directorio actual.
// Cabecera: operation,species,unit,qty,kg,production_date,dry_state,shipping_to,sp_form,date (cualquier subconjunto con operation).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/woodstock-api/internal/application/ledger"
	"github.com/jhoicas/woodstock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/woodstock-api/pkg/config"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV está en ISO-8859-1 (exportaciones de planillas antiguas)")
	userCode := flag.String("user", "seed", "código de usuario que figura como autor de los registros")
	flag.Parse()

	csvPath := "ledger.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var in io.Reader = f
	if *latin1 {
		in = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}

	ctx := ledger.WithUserCode(context.Background(), *userCode)
	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// una sola transacción: un error de formato o de guardado revierte todo el archivo
	var res ledger.ImportResult
	err = postgres.NewTxRunner(pool).WithinTx(ctx, func(ctx context.Context, q postgres.Querier) error {
		repo := postgres.NewLedgerRecordRepository(q, cfg.Store.ContainerID, cfg.Stock.Location)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		identity := ledger.ContextIdentity{}
		events := ledger.NewEventProcessor(
			ledger.NewDerivationEngine(cfg.Stock, log),
			ledger.NewSubmissionValidator(cfg.Stock, identity, log),
			repo, identity, log,
		)
		var ierr error
		res, ierr = ledger.NewImporter(events, log).Import(ctx, in)
		return ierr
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Importar %s: %v\n", csvPath, err)
		os.Exit(1)
	}

	for _, r := range res.Rejected {
		fmt.Printf("  fila %d rechazada: %s\n", r.Line, r.Reason)
	}
	fmt.Printf("Importado %s en %q: %d registros, %d rechazados\n", csvPath, cfg.Store.ContainerID, res.Imported, len(res.Rejected))
}
