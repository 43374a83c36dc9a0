package repository

import (
	"fmt"
	"strings"

	"cruce-web/internal/models"
	"cruce-web/internal/queries"
)

// Parameter names bound by the final-stage conditions.
const (
	ItemCodeParam         = "codigoFilter"
	CategoryParam         = "categoriaFilter"
	LineParam             = "lineaFilter"
	ManufacturerCodeParam = "fabricaFilter"
	exclusionParamPrefix  = "crExc_"
)

// BuildConditions turns a filter set into AND-able conditions over the final stage plus their parameters.
// Blank fields add nothing.
func BuildConditions(filters models.QueryFilterSet) ([]string, map[string]interface{}) {
	alias := queries.FinalAlias
	f := filters.Normalized()

	var conditions []string
	params := map[string]interface{}{}

	equal := func(column, param, value string) {
		if value == "" {
			return
		}
		conditions = append(conditions, fmt.Sprintf("%s.%s = :%s", alias, column, param))
		params[param] = value
	}

	equal(models.ColItemCode, ItemCodeParam, f.ItemCode)
	equal(models.ColCategory, CategoryParam, f.Category)
	equal(models.ColLine, LineParam, f.Line)
	equal(models.ColManufacturerCode, ManufacturerCodeParam, f.ManufacturerCode)

	if f.OnlyUncorrected {
		conditions = append(conditions, fmt.Sprintf("%s.%s = 0", alias, models.ColCorrection))
	}

	if clause, excParams := ExclusionCondition(f.ExcludeReceiving, alias); clause != "" {
		conditions = append(conditions, clause)
		for k, v := range excParams {
			params[k] = v
		}
	}

	return conditions, params
}

// ExclusionCondition builds a NOT IN over the receiving codes listed in raw.
// It returns an empty clause when raw holds no codes, so an empty list never becomes NOT IN ().
func ExclusionCondition(raw, alias string) (string, map[string]interface{}) {
	codes := models.QueryFilterSet{ExcludeReceiving: raw}.ExcludedCodes()
	if len(codes) == 0 {
		return "", nil
	}

	placeholders := make([]string, len(codes))
	params := make(map[string]interface{}, len(codes))
	for i, code := range codes {
		key := fmt.Sprintf("%s%d", exclusionParamPrefix, i)
		placeholders[i] = ":" + key
		params[key] = code
	}

	clause := fmt.Sprintf("UPPER(LTRIM(RTRIM(%s.%s))) NOT IN (%s)",
		alias, models.ColReceivingCode, strings.Join(placeholders, ", "))
	return clause, params
}
