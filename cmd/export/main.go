// Command export runs the cruce report once and writes it to an xlsx or csv file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cruce-web/internal/config"
	"cruce-web/internal/database"
	"cruce-web/internal/models"
	"cruce-web/internal/queries"
	"cruce-web/internal/repository"
	"cruce-web/internal/service"
	"cruce-web/internal/utils"
)

func main() {
	instance := flag.String("instance", "", "Instance alias (default: first configured)")
	format := flag.String("format", models.FormatXLSX, "Output format: xlsx or csv")
	output := flag.String("out", "", "Output file (default: cruce_<timestamp>.<format> in EXPORT_PATH)")
	chunked := flag.Bool("chunked", true, "Fetch in chunks of QUERY_CHUNK_SIZE rows")
	dateOption := flag.Int("fecha", int(models.DefaultDateOption), "Date range: 1 = since 2023-01-01, 2 = since 2024-01-01")
	itemCode := flag.String("codigo", "", "Exact item barcode")
	reference := flag.String("referencia", "", "Reference prefix or LIKE pattern")
	category := flag.String("categoria", "", "Exact category name")
	line := flag.String("linea", "", "Exact line")
	manufacturer := flag.String("fabrica", "", "Exact manufacturer code")
	exclude := flag.String("excluir", "", "Comma separated receiving codes to exclude")
	uncorrected := flag.Bool("sin-correccion", false, "Only rows without correction")
	flag.Parse()

	log := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	utils.SetLogLevel(cfg.LogLevel)

	exporter, ext, err := service.ExporterFor(strings.ToLower(*format))
	if err != nil {
		log.Fatalf("Invalid format: %v", err)
	}

	filters := models.QueryFilterSet{
		ItemCode:         *itemCode,
		Reference:        *reference,
		Category:         *category,
		Line:             *line,
		ManufacturerCode: *manufacturer,
		ExcludeReceiving: *exclude,
		OnlyUncorrected:  *uncorrected,
		DateOption:       models.DateOption(*dateOption),
	}

	registry := database.NewRegistry(cfg)
	defer registry.Close()
	builder := repository.NewQueryBuilder(queries.NewTemplateSource(cfg.TemplatePath), cfg.MinQuantity)
	cruceService := service.NewCruceService(cfg, registry, builder, service.NewMemoryTableCache())

	mode := service.ModeAll
	if *chunked {
		mode = service.ModeChunked
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout)
	defer cancel()

	started := time.Now()
	table, err := cruceService.RunQuery(ctx, *instance, filters, mode)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	path := *output
	if path == "" {
		path = filepath.Join(cfg.ExportPath, fmt.Sprintf("cruce_%s.%s", started.Format("20060102_150405"), ext))
	}
	if err := exporter.ExportCruceFile(table, path); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	fmt.Fprintf(os.Stdout, "%d rows written to %s in %s\n", len(table), path, time.Since(started).Round(time.Millisecond))
}
