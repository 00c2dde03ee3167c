package entities

// Column names of the CNAS compensated medicines CSV that the explorer relies on.
const (
	ColumnName         = "Denumire medicament"
	ColumnCode         = "Cod medicament"
	ColumnSubstance    = "Substanta activa"
	ColumnCompensation = "Lista de compensare"
	ColumnAgeCategory  = "CategorieVarsta"
	ColumnDiseaseCodes = "Coduri_Boli"

	// ColumnCustom flags rows authored by the user instead of coming from the dataset.
	ColumnCustom = "isCustom"
)

// Row maps a column name to its cell value. Rows are never mutated once parsed.
type Row map[string]string

// Get returns the cell value or "" when the column is missing.
func (r Row) Get(column string) string {
	return r[column]
}

// Code returns the identifying medicine code of the row.
func (r Row) Code() string {
	return r[ColumnCode]
}

// Name returns the medicine name of the row.
func (r Row) Name() string {
	return r[ColumnName]
}

// IsCustom reports whether the row was added by the user.
func (r Row) IsCustom() bool {
	return r[ColumnCustom] == "true"
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
