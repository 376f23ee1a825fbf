package entity

import "time"

// Charge representa un lote (Charge) de un artículo con MHD y zona de almacenamiento.
// ID y ArticleID son inmutables; el resto de campos descriptivos puede editarse.
// El stock no se guarda aquí: se deriva de los movimientos.
type Charge struct {
	ID            string
	ArticleID     string
	BestByDate    time.Time  // MHD, fecha de calendario
	IsFrozenArea  bool       // zona declarada: TK si true
	SlaughterDate *time.Time // fecha de sacrificio (opcional)
	SupplierID    string     // proveedor (opcional)
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time // borrado lógico; los movimientos existentes se conservan
}

// DeclaredArea zona declarada del charge.
func (c *Charge) DeclaredArea() StorageArea {
	return AreaFor(c.IsFrozenArea)
}

// Deleted indica si el charge fue dado de baja.
func (c *Charge) Deleted() bool {
	return c.DeletedAt != nil
}

// Clone copia profunda (los punteros de fecha no se comparten).
func (c *Charge) Clone() *Charge {
	if c == nil {
		return nil
	}
	cp := *c
	if c.SlaughterDate != nil {
		d := *c.SlaughterDate
		cp.SlaughterDate = &d
	}
	if c.DeletedAt != nil {
		d := *c.DeletedAt
		cp.DeletedAt = &d
	}
	return &cp
}

// ChargePatch cambios permitidos sobre un charge existente. Campos nil no se tocan.
type ChargePatch struct {
	ArticleID          *string // solo se acepta si coincide con el actual
	BestByDate         *time.Time
	IsFrozenArea       *bool
	SlaughterDate      *time.Time
	ClearSlaughterDate bool
	SupplierID         *string // "" borra el proveedor
}

// Empty indica si el patch no cambia nada.
func (p ChargePatch) Empty() bool {
	return p.ArticleID == nil && p.BestByDate == nil && p.IsFrozenArea == nil &&
		p.SlaughterDate == nil && !p.ClearSlaughterDate && p.SupplierID == nil
}

// ChargeFilter filtros para listar charges.
type ChargeFilter struct {
	ArticleID      string
	ChargeID       string
	IncludeDeleted bool
}
