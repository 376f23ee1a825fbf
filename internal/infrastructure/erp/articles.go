// Package erp lee el export del maestro de artículos del ERP.
package erp

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

// Columnas reconocidas en la cabecera (alemán del ERP o inglés).
var columnAliases = map[string]string{
	"id":            "id",
	"artikelid":     "id",
	"number":        "number",
	"artikelnummer": "number",
	"artikelnr":     "number",
	"name":          "name",
	"bezeichnung":   "name",
	"unit":          "unit",
	"einheit":       "unit",
}

// ReadArticles decodifica un export Windows-1252 separado por ';' con fila de cabecera.
// Sin columna id se usa el número de artículo como ID. Filas sin número se ignoran.
func ReadArticles(r io.Reader) ([]entity.Article, error) {
	cr := csv.NewReader(transform.NewReader(r, charmap.Windows1252.NewDecoder()))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("export de artículos vacío")
		}
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	cols := make(map[string]int)
	for i, h := range header {
		if key, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			cols[key] = i
		}
	}
	if _, ok := cols["number"]; !ok {
		return nil, fmt.Errorf("cabecera sin columna de número de artículo: %v", header)
	}

	field := func(rec []string, key string) string {
		i, ok := cols[key]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []entity.Article
	seen := make(map[string]bool)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("leer artículos: %w", err)
		}
		a := entity.Article{
			ID:     field(rec, "id"),
			Number: field(rec, "number"),
			Name:   field(rec, "name"),
			Unit:   field(rec, "unit"),
		}
		if a.Number == "" {
			continue
		}
		if a.ID == "" {
			a.ID = a.Number
		}
		if a.Unit == "" {
			a.Unit = "kg"
		}
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out, nil
}

// LoadArticles abre path y lo decodifica con ReadArticles.
func LoadArticles(path string) ([]entity.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir export de artículos: %w", err)
	}
	defer f.Close()
	return ReadArticles(f)
}
