package repository

import (
	"fmt"
	"strconv"
	"strings"

	"cruce-web/internal/models"
	"cruce-web/internal/queries"
)

// QueryBuilder assembles the report query from a template and a filter set.
// The template text is never modified; every Build renders a fresh copy.
type QueryBuilder struct {
	source      queries.TemplateSource
	alias       string
	minQuantity int
}

func NewQueryBuilder(source queries.TemplateSource, minQuantity int) *QueryBuilder {
	return &QueryBuilder{source: source, alias: queries.FinalAlias, minQuantity: minQuantity}
}

// Build renders the final SQL and its parameter map.
// Only the start date and the quantity threshold are written as literals; both come from closed sets.
func (b *QueryBuilder) Build(filters models.QueryFilterSet) (models.AssembledQuery, error) {
	f := filters.Normalized()

	startDate, err := f.DateOption.StartDate()
	if err != nil {
		return models.AssembledQuery{}, err
	}

	tpl, err := b.source.Template()
	if err != nil {
		return models.AssembledQuery{}, &models.QueryError{Msg: "cannot load query template", Err: err}
	}

	sql := strings.TrimSpace(tpl)
	sql = strings.TrimSpace(strings.TrimRight(sql, ";"))
	sql = strings.ReplaceAll(sql, queries.StartDateToken, "'"+startDate+"'")
	sql = strings.ReplaceAll(sql, queries.MinQuantityToken, strconv.Itoa(b.minQuantity))

	sql, params := InjectReferenceFilter(sql, f.Reference)
	sql, err = StripUnboundPlaceholder(sql, params)
	if err != nil {
		return models.AssembledQuery{}, err
	}

	block := splitFinal(EnsureFinalClause(sql, b.alias), b.alias)

	conditions, condParams := BuildConditions(f)
	if len(conditions) > 0 {
		block.head = strings.TrimRight(block.head, " ") + " AND " + strings.Join(conditions, " AND ") + " "
	}
	for k, v := range condParams {
		params[k] = v
	}

	ordering := block.rest
	if !block.found {
		ordering = block.head
	}
	sql = strings.TrimRight(block.String(), " ")
	if !orderByRe.MatchString(ordering) {
		sql += fmt.Sprintf(" ORDER BY %s.%s ASC", b.alias, models.ColArrivalDate)
	}

	if err := ensureBound(sql, params); err != nil {
		return models.AssembledQuery{}, err
	}

	return models.AssembledQuery{SQL: sql, Params: params}, nil
}
