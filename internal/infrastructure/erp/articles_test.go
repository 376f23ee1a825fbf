package erp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func win1252(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func TestReadArticles_CabeceraAlemanaYUmlauts(t *testing.T) {
	raw := win1252(t, "Artikelnummer;Bezeichnung;Einheit\n"+
		"1001;Rinderhüfte;kg\n"+
		"1002; Schweinebauch ;\n"+
		";sin número;kg\n"+
		"1001;duplicado;kg\n")

	list, err := ReadArticles(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "1001", list[0].ID)
	assert.Equal(t, "Rinderhüfte", list[0].Name)
	assert.Equal(t, "Schweinebauch", list[1].Name)
	assert.Equal(t, "kg", list[1].Unit, "unidad por defecto")
}

func TestReadArticles_ColumnaID(t *testing.T) {
	raw := win1252(t, "id;number;name\nA-1;1001;Hack\n")
	list, err := ReadArticles(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A-1", list[0].ID)
	assert.Equal(t, "1001", list[0].Number)
}

func TestReadArticles_SinColumnaNumero(t *testing.T) {
	_, err := ReadArticles(bytes.NewReader([]byte("foo;bar\n1;2\n")))
	assert.Error(t, err)

	_, err = ReadArticles(bytes.NewReader(nil))
	assert.Error(t, err)
}
