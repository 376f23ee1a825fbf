package entity

// StorageArea zona de almacenamiento de un charge: congelado (TK) o no congelado (NON_TK).
type StorageArea string

const (
	StorageAreaTK    StorageArea = "TK"     // Tiefkühl
	StorageAreaNonTK StorageArea = "NON_TK" // no congelado
)

// StorageAreas todas las zonas, en el orden global usado para bloqueos y listados.
var StorageAreas = []StorageArea{StorageAreaNonTK, StorageAreaTK}

// Valid indica si la zona pertenece al enum cerrado.
func (a StorageArea) Valid() bool {
	return a == StorageAreaTK || a == StorageAreaNonTK
}

// IsFrozen true para TK.
func (a StorageArea) IsFrozen() bool { return a == StorageAreaTK }

// AreaFor devuelve la zona declarada para el flag isFrozenArea de un charge.
func AreaFor(isFrozenArea bool) StorageArea {
	if isFrozenArea {
		return StorageAreaTK
	}
	return StorageAreaNonTK
}

// ParseStorageArea convierte el texto del API; vacío o desconocido devuelve false.
func ParseStorageArea(s string) (StorageArea, bool) {
	a := StorageArea(s)
	return a, a.Valid()
}
