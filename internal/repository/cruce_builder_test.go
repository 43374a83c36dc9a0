package repository

import (
	"errors"
	"strings"
	"testing"

	"cruce-web/internal/models"
	"cruce-web/internal/queries"
)

func TestBuildEmbeddedTemplate(t *testing.T) {
	b := NewQueryBuilder(queries.EmbeddedTemplate{}, 0)

	q, err := b.Build(models.QueryFilterSet{Category: "BEBIDAS", DateOption: models.DateFrom2023})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := strings.Count(q.SQL, "CategoriaNombre = :categoriaFilter"); n != 1 {
		t.Errorf("Expected one category condition, got %d", n)
	}
	if !strings.Contains(q.SQL, "BETWEEN '2023-01-01' AND GETDATE()") {
		t.Error("Expected literal start date in the transfer stage")
	}
	if !strings.Contains(q.SQL, "c.Cantidad > 0") {
		t.Error("Expected literal quantity threshold")
	}
	if strings.Contains(q.SQL, "__REF_FILTER__") || strings.Contains(q.SQL, "refLike") {
		t.Error("Expected reference marker to be removed")
	}
	if !strings.HasSuffix(q.SQL, "FROM Final2 WHERE 1=1 AND Final2.CategoriaNombre = :categoriaFilter ORDER BY Final2.FechaLlegada ASC") {
		t.Errorf("Unexpected final block: %q", q.SQL[len(q.SQL)-120:])
	}
	if strings.Contains(q.SQL, ";") {
		t.Error("Expected trailing semicolon to be dropped")
	}
	if q.Params[CategoryParam] != "BEBIDAS" {
		t.Errorf("Expected category param, got %v", q.Params)
	}
}

func TestBuildNeverLeavesUnboundPlaceholders(t *testing.T) {
	b := NewQueryBuilder(queries.EmbeddedTemplate{}, 1)

	sets := []models.QueryFilterSet{
		{},
		{Reference: "abc"},
		{Reference: "   "},
		{ItemCode: "1", Category: "C", Line: "L", ManufacturerCode: "F", OnlyUncorrected: true},
		{ExcludeReceiving: " , "},
		{ExcludeReceiving: "x,y,z", Reference: "%a_b%", DateOption: models.DateFrom2023},
	}

	for _, f := range sets {
		q, err := b.Build(f)
		if err != nil {
			t.Fatalf("unexpected error for %+v: %v", f, err)
		}
		if missing := UnboundPlaceholders(q.SQL, q.Params); len(missing) != 0 {
			t.Errorf("Expected no unbound placeholders for %+v, got %v", f, missing)
		}
		if strings.Contains(q.SQL, "NOT IN ()") {
			t.Errorf("Expected no empty NOT IN for %+v", f)
		}
		if n := strings.Count(strings.ToUpper(q.SQL), "ORDER BY"); n != 1 {
			t.Errorf("Expected exactly one ORDER BY, got %d", n)
		}
	}
}

func TestBuildReferenceParam(t *testing.T) {
	b := NewQueryBuilder(queries.EmbeddedTemplate{}, 0)
	q, err := b.Build(models.QueryFilterSet{Reference: " CAM-01 "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Params[ReferenceParam] != "cam-01%" {
		t.Errorf("Expected %q, got %v", "cam-01%", q.Params[ReferenceParam])
	}
	if !strings.Contains(q.SQL, "BETWEEN '2024-01-01'") {
		t.Error("Expected default date option to start in 2024")
	}
}

func TestBuildKeepsExistingOrdering(t *testing.T) {
	tpl := queries.StaticTemplate("WITH Final2 AS (SELECT * FROM t WHERE d >= :fechaStart) SELECT * FROM Final2 ORDER BY CodigoBarra DESC;")
	q, err := NewQueryBuilder(tpl, 0).Build(models.QueryFilterSet{Line: "HOGAR"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "WITH Final2 AS (SELECT * FROM t WHERE d >= '2024-01-01') SELECT * FROM Final2 WHERE 1=1 AND Final2.Linea = :lineaFilter ORDER BY CodigoBarra DESC"
	if q.SQL != want {
		t.Errorf("Expected %q, got %q", want, q.SQL)
	}
}

func TestBuildRejectsInvalidDateOption(t *testing.T) {
	_, err := NewQueryBuilder(queries.EmbeddedTemplate{}, 0).Build(models.QueryFilterSet{DateOption: 3})
	var fErr *models.FilterValidationError
	if !errors.As(err, &fErr) {
		t.Fatalf("Expected FilterValidationError, got %v", err)
	}
}

func TestBuildRejectsDanglingTemplatePlaceholder(t *testing.T) {
	tpl := queries.StaticTemplate("SELECT * FROM Final2 WHERE x = :mystery")
	_, err := NewQueryBuilder(tpl, 0).Build(models.QueryFilterSet{})
	var qErr *models.QueryError
	if !errors.As(err, &qErr) {
		t.Fatalf("Expected QueryError, got %v", err)
	}
}
