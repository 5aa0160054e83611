package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/ledgerly/internal/encoding"
)

func readAll(t *testing.T, input []byte) string {
	t.Helper()

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "title;amount\nCafé;12,50\nLivros técnicos;-3,00\n"
	assert.Equal(t, input, readAll(t, []byte(input)))
}

func TestNewUTF8Reader_Windows1252(t *testing.T) {
	// "Café;Opção\n" with é = 0xE9, ç = 0xE7, ã = 0xE3.
	input := []byte{'C', 'a', 'f', 0xE9, ';', 'O', 'p', 0xE7, 0xE3, 'o', '\n'}
	assert.Equal(t, "Café;Opção\n", readAll(t, input))
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("date,title\n")...)
	assert.Equal(t, "date,title\n", readAll(t, input))
}

func TestNewUTF8Reader_UTF16LE(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("date;título\n")
	require.NoError(t, err)

	assert.Equal(t, "date;título\n", readAll(t, []byte(encoded)))
}

func TestNewUTF8Reader_LargeUTF8(t *testing.T) {
	// Multi-byte runes straddle the detection sample boundary.
	input := strings.Repeat("ção;", 3000)
	assert.Equal(t, input, readAll(t, []byte(input)))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		sample []byte
		want   encoding.Charset
	}{
		{name: "Empty", sample: nil, want: encoding.UTF8},
		{name: "ASCII", sample: []byte("a,b,c"), want: encoding.UTF8},
		{name: "BOM", sample: []byte{0xEF, 0xBB, 0xBF, 'a'}, want: encoding.UTF8BOM},
		{name: "UTF16BE", sample: []byte{0xFE, 0xFF, 0x00, 'a'}, want: encoding.UTF16BE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encoding.Detect(tt.sample))
		})
	}
}

func TestDetect_InvalidUTF8IsSingleByte(t *testing.T) {
	got := encoding.Detect([]byte("Caf\xe9 cr\xe8me br\xfbl\xe9e"))
	assert.NotEqual(t, encoding.UTF8, got)
}
