package service

import (
	"testing"
	"time"

	"cruce-web/internal/config"
	"cruce-web/internal/database"
	"cruce-web/internal/queries"
	"cruce-web/internal/repository"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const fixtureTemplate = `
WITH Final2 AS (
    SELECT
        I.Referencia, I.CodigoBarra, I.CodigoMarca, I.Marca, I.Nombre,
        I.Nombre_Fabricante, I.CodigoFabricante, I.CategoriaCodigo, I.CategoriaNombre,
        I.Linea, I.CantidadInicial, I.ExistenciaActual, I.correccion,
        I.NumeroTransferencia, I.FechaLlegada, I.observacion, I.CodigoRecibe
    FROM fixture I
    WHERE I.FechaLlegada >= :fechaStart
      AND I.CantidadInicial > :minCantidad
      /*__REF_FILTER__*/
)
SELECT * FROM Final2;
`

// newFixtureService wires a CruceService to an in-memory SQLite database holding five transfers.
func newFixtureService(t *testing.T) *CruceService {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)

	db.MustExec(`CREATE TABLE fixture (
		Referencia TEXT, CodigoBarra TEXT, CodigoMarca TEXT, Marca TEXT, Nombre TEXT,
		Nombre_Fabricante TEXT, CodigoFabricante TEXT, CategoriaCodigo TEXT, CategoriaNombre TEXT,
		Linea TEXT, CantidadInicial INTEGER, ExistenciaActual INTEGER, correccion INTEGER,
		NumeroTransferencia TEXT, FechaLlegada TEXT, observacion TEXT, CodigoRecibe TEXT
	)`)
	rows := []struct {
		ref, code, category, date, receiving string
		qty, stock, correction             int
	}{
		{"REF-A", "A1", "BEBIDAS", "2024-05-10", "999999", 3, 4, 0},
		{"REF-B", "B1", "SNACKS", "2024-01-20", "999999", 7, 2, 1},
		{"REF-A", "A1", "BEBIDAS", "2023-03-15", "X01", 5, 4, 0},
		{"OTRA", "C1", "LIMPIEZA", "2023-06-01", "999999", 2, 0, 0},
		{"REF-D", "D1", "SNACKS", "2022-12-31", "999999", 9, 1, 0},
	}
	for _, r := range rows {
		db.MustExec(`INSERT INTO fixture VALUES (?, ?, '01', 'Marca', 'Nombre', 'Fab', '42', '0101', ?, 'Linea', ?, ?, ?, 'T-1', ?, '', ?)`,
			r.ref, r.code, r.category, r.qty, r.stock, r.correction, r.date, r.receiving)
	}

	cfg := &config.Config{
		DBDriver:       config.DriverSQLite,
		Instances:      []config.Instance{{Alias: "fixture", ServerName: ":memory:"}},
		QueryTimeout:   5 * time.Second,
		QueryChunkSize: 2,
		CacheTTL:       time.Minute,
	}
	registry := database.NewRegistry(cfg)
	registry.Put("fixture", db)
	t.Cleanup(func() { registry.Close() })

	builder := repository.NewQueryBuilder(queries.StaticTemplate(fixtureTemplate), 0)
	return NewCruceService(cfg, registry, builder, NewMemoryTableCache())
}
