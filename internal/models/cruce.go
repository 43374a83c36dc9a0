package models

import (
	"fmt"
	"sort"
	"strings"
)

// DateOption selects the fixed start of the transfer date range. The end is always "now".
type DateOption int

const (
	DateFrom2023 DateOption = 1
	DateFrom2024 DateOption = 2
)

// DefaultDateOption matches the range preselected in the operator view.
const DefaultDateOption = DateFrom2024

// StartDate returns the literal start date for the option.
func (o DateOption) StartDate() (string, error) {
	switch o {
	case DateFrom2023:
		return "2023-01-01", nil
	case DateFrom2024:
		return "2024-01-01", nil
	default:
		return "", &FilterValidationError{Field: "fecha_option", Value: fmt.Sprint(int(o)), Reason: "must be 1 or 2"}
	}
}

// QueryFilterSet is a filter request for the cross report.
// Every field is optional: a blank string means no constraint.
type QueryFilterSet struct {
	ItemCode         string     `json:"codigo_barra" validate:"max=64"`
	Reference        string     `json:"referencia" validate:"max=128"`
	Category         string     `json:"categoria" validate:"max=128"`
	Line             string     `json:"linea" validate:"max=128"`
	ManufacturerCode string     `json:"codigo_fabrica" validate:"max=64"`
	ExcludeReceiving string     `json:"excluir_codigo_recibe" validate:"max=2048"`
	OnlyUncorrected  bool       `json:"solo_sin_correccion"`
	DateOption       DateOption `json:"fecha_option" validate:"oneof=1 2"`
}

// Normalized returns a copy with surrounding whitespace removed from every text field.
func (f QueryFilterSet) Normalized() QueryFilterSet {
	f.ItemCode = strings.TrimSpace(f.ItemCode)
	f.Reference = strings.TrimSpace(f.Reference)
	f.Category = strings.TrimSpace(f.Category)
	f.Line = strings.TrimSpace(f.Line)
	f.ManufacturerCode = strings.TrimSpace(f.ManufacturerCode)
	f.ExcludeReceiving = strings.TrimSpace(f.ExcludeReceiving)
	if f.DateOption == 0 {
		f.DateOption = DefaultDateOption
	}
	return f
}

// WithoutRowFilters keeps only the date range, which is what a full import uses.
func (f QueryFilterSet) WithoutRowFilters() QueryFilterSet {
	return QueryFilterSet{DateOption: f.DateOption}
}

// ExcludedCodes splits the comma separated exclusion input into trimmed upper case codes.
// Empty tokens are dropped, so "", "," and " , " all yield nil.
func (f QueryFilterSet) ExcludedCodes() []string {
	var codes []string
	for _, token := range strings.Split(f.ExcludeReceiving, ",") {
		code := strings.ToUpper(strings.TrimSpace(token))
		if code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// AssembledQuery is the final SQL text plus the parameters bound to its named placeholders.
type AssembledQuery struct {
	SQL    string                 `json:"sql"`
	Params map[string]interface{} `json:"params"`
}

// ParamNames returns the parameter names in a stable order.
func (q AssembledQuery) ParamNames() []string {
	names := make([]string, 0, len(q.Params))
	for name := range q.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Record is one raw row as returned by the driver, keyed by column name.
type Record map[string]interface{}

// RawTable is the materialized driver result before post-aggregation.
type RawTable struct {
	Columns []string
	Rows    []Record
}

// Report column names, in the order the report is presented and exported.
const (
	ColItemCode         = "CodigoBarra"
	ColReference        = "Referencia"
	ColBrandCode        = "CodigoMarca"
	ColBrand            = "Marca"
	ColName             = "Nombre"
	ColManufacturer     = "Nombre_Fabricante"
	ColManufacturerCode = "CodigoFabricante"
	ColCategoryCode     = "CategoriaCodigo"
	ColCategory         = "CategoriaNombre"
	ColLine             = "Linea"
	ColInitialQty       = "CantidadInicial"
	ColGroupedInitial   = "Cantidad_Inicial_Agrupada"
	ColCurrentStock     = "ExistenciaActual"
	ColCorrection       = "correccion"
	ColTransferNumber   = "NumeroTransferencia"
	ColArrivalDate      = "FechaLlegada"
	ColNote             = "observacion"
	ColReceivingCode    = "CodigoRecibe"
	ColRemaining        = "Queda"
	ColSold             = "Vendido"
)

var ReportColumns = []string{
	ColItemCode, ColReference, ColBrandCode, ColBrand, ColName,
	ColManufacturer, ColManufacturerCode, ColCategoryCode, ColCategory,
	ColLine, ColInitialQty, ColGroupedInitial, ColCurrentStock,
	ColCorrection, ColTransferNumber, ColArrivalDate, ColNote,
	ColReceivingCode, ColRemaining, ColSold,
}

// RequiredColumns must be present in every result set coming from the database.
// The grouped total and both percentages are derived, so they are not required.
var RequiredColumns = []string{
	ColItemCode, ColReference, ColBrandCode, ColBrand, ColName,
	ColManufacturer, ColManufacturerCode, ColCategoryCode, ColCategory,
	ColLine, ColInitialQty, ColCurrentStock, ColCorrection,
	ColTransferNumber, ColArrivalDate, ColNote, ColReceivingCode,
}

// ResultRow is one flattened report record.
// GroupedInitial, Remaining and Sold are always derived by post-aggregation.
type ResultRow struct {
	ItemCode         string  `json:"CodigoBarra"`
	Reference        string  `json:"Referencia"`
	BrandCode        string  `json:"CodigoMarca"`
	Brand            string  `json:"Marca"`
	Name             string  `json:"Nombre"`
	Manufacturer     string  `json:"Nombre_Fabricante"`
	ManufacturerCode string  `json:"CodigoFabricante"`
	CategoryCode     string  `json:"CategoriaCodigo"`
	Category         string  `json:"CategoriaNombre"`
	Line             string  `json:"Linea"`
	InitialQty       float64 `json:"CantidadInicial"`
	GroupedInitial   float64 `json:"Cantidad_Inicial_Agrupada"`
	CurrentStock     float64 `json:"ExistenciaActual"`
	Correction       int     `json:"correccion"`
	TransferNumber   string  `json:"NumeroTransferencia"`
	ArrivalDate      string  `json:"FechaLlegada"`
	Note             string  `json:"observacion"`
	ReceivingCode    string  `json:"CodigoRecibe"`
	Remaining        Percent `json:"Queda"`
	Sold             Percent `json:"Vendido"`
}

// Values returns the row in ReportColumns order, with percentages formatted.
func (r ResultRow) Values() []interface{} {
	return []interface{}{
		r.ItemCode, r.Reference, r.BrandCode, r.Brand, r.Name,
		r.Manufacturer, r.ManufacturerCode, r.CategoryCode, r.Category,
		r.Line, r.InitialQty, r.GroupedInitial, r.CurrentStock,
		r.Correction, r.TransferNumber, r.ArrivalDate, r.Note,
		r.ReceivingCode, r.Remaining.String(), r.Sold.String(),
	}
}

// ResultTable is an ordered set of report rows grouped by item code.
type ResultTable []ResultRow

// Clone returns a copy that shares no row storage with t.
func (t ResultTable) Clone() ResultTable {
	if t == nil {
		return nil
	}
	out := make(ResultTable, len(t))
	copy(out, t)
	return out
}

// Filter returns the rows for which keep reports true, in their original order.
func (t ResultTable) Filter(keep func(ResultRow) bool) ResultTable {
	out := make(ResultTable, 0, len(t))
	for _, row := range t {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}
