// seed_articles genera el script SQL que puebla el maestro de artículos
// a partir del export del ERP (CSV Windows-1252 separado por ';').
//
// Uso: go run ./cmd/seed_articles [ruta/artikel.csv]
// Por defecto busca artikel.csv en el directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/0002_seed_articles.sql
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jhoicas/charge-ledger/internal/infrastructure/erp"
)

func main() {
	csvPath := "artikel.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	articles, err := erp.LoadArticles(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer artículos: %v\n", err)
		os.Exit(1)
	}
	if len(articles) == 0 {
		fmt.Fprintln(os.Stderr, "El export no contiene artículos")
		os.Exit(1)
	}

	// Orden estable por ID
	sort.Slice(articles, func(i, j int) bool { return articles[i].ID < articles[j].ID })

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "0002_seed_articles.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	out.WriteString("-- Maestro de artículos\n")
	fmt.Fprintf(out, "-- Generado desde %s\n\n", filepath.Base(csvPath))
	out.WriteString("INSERT INTO articles (id, number, name, unit) VALUES\n")
	for i, a := range articles {
		sep := ","
		if i == len(articles)-1 {
			sep = ""
		}
		fmt.Fprintf(out, "  ('%s', '%s', '%s', '%s')%s\n",
			escapeSQL(a.ID), escapeSQL(a.Number), escapeSQL(a.Name), escapeSQL(a.Unit), sep)
	}
	out.WriteString("ON CONFLICT (id) DO UPDATE SET number = EXCLUDED.number, name = EXCLUDED.name, unit = EXCLUDED.unit;\n")

	fmt.Printf("Generado %s: %d artículos\n", outPath, len(articles))
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
