package entity

// Article dato maestro externo; el ledger solo lo referencia por ID.
type Article struct {
	ID     string
	Number string // número de artículo en el ERP
	Name   string
	Unit   string
}
