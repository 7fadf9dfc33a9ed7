package sales

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	Delimiter = "\t"

	maxLineSize = 4 * 1024 * 1024
)

var (
	// ErrMalformed arquivo sem as colunas obrigatórias ou com linhas inválidas
	ErrMalformed = errors.New("malformed sales file")
	// ErrEncoding bytes que não correspondem à codificação esperada
	ErrEncoding = errors.New("unexpected sales file encoding")
)

// Encoding codificação dos arquivos exportados pelo ERP: Windows-1252, ou seja,
// ISO-8859-1 mais travessões e aspas curvas em 0x80-0x9F.
var Encoding = charmap.Windows1252

// Unmarshal decodifica o conteúdo completo de um arquivo de vendas
func Unmarshal(data []byte) (*Table, error) {
	if err := checkEncoding(data); err != nil {
		return nil, err
	}

	table := &Table{LineEnding: detectLineEnding(data)}

	scanner := bufio.NewScanner(transform.NewReader(bytes.NewReader(data), Encoding.NewDecoder()))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		lineNo    int
		dateIdx   = -1
		custIdx   = -1
		amountIdx = -1
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if table.Header == nil {
			header, err := parseHeader(line)
			if err != nil {
				return nil, err
			}
			table.Header = header
			dateIdx = indexOf(header, ColumnDate)
			custIdx = indexOf(header, ColumnCustomer)
			for _, name := range AmountColumns {
				if i := indexOf(header, name); i >= 0 {
					amountIdx = i
					table.AmountColumn = header[i]
					break
				}
			}
			switch {
			case dateIdx < 0:
				return nil, fmt.Errorf("%w: missing required column %q", ErrMalformed, ColumnDate)
			case custIdx < 0:
				return nil, fmt.Errorf("%w: missing required column %q", ErrMalformed, ColumnCustomer)
			case amountIdx < 0:
				return nil, fmt.Errorf("%w: missing amount column (%s)", ErrMalformed, strings.Join(AmountColumns, " or "))
			}
			continue
		}

		values := strings.Split(line, Delimiter)
		if len(values) > len(table.Header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrMalformed, lineNo, len(values), len(table.Header))
		}
		for len(values) < len(table.Header) {
			values = append(values, "")
		}

		day, err := ParseDate(values[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
		}
		amount, err := ParseAmount(values[amountIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
		}

		fields := make(map[string]string, len(values))
		for i, v := range values {
			fields[table.Header[i]] = v
		}
		table.Records = append(table.Records, SalesRecord{
			Date:       day,
			CustomerID: strings.TrimSpace(values[custIdx]),
			TotalSale:  amount,
			Fields:     fields,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if table.Header == nil {
		return nil, fmt.Errorf("%w: missing header line", ErrMalformed)
	}
	return table, nil
}

// Marshal serializa a tabela no mesmo layout de entrada (TAB + Windows-1252)
func Marshal(t *Table) ([]byte, error) {
	eol := t.LineEnding
	if eol == "" {
		eol = "\n"
	}

	var b strings.Builder
	b.WriteString(strings.Join(t.Header, Delimiter))
	b.WriteString(eol)
	for _, r := range t.Records {
		b.WriteString(strings.Join(r.Values(t.Header), Delimiter))
		b.WriteString(eol)
	}

	out, err := Encoding.NewEncoder().String(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return []byte(out), nil
}

// parseHeader mantém os nomes exatamente como no arquivo
func parseHeader(line string) ([]string, error) {
	header := strings.Split(line, Delimiter)
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if seen[h] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformed, h)
		}
		seen[h] = true
	}
	return header, nil
}

// checkEncoding rejeita BOMs, bytes de controle, bytes sem caractere no Windows-1252
// e conteúdo que já é UTF-8 multibyte
func checkEncoding(data []byte) error {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return fmt.Errorf("%w: UTF-8 byte order mark found", ErrEncoding)
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return fmt.Errorf("%w: UTF-16 byte order mark found", ErrEncoding)
	}

	isUTF8 := utf8.Valid(data)
	highBytes := false
	for i, c := range data {
		switch {
		case c == '\t' || c == '\n' || c == '\r':
		case c < 0x20 || c == 0x7F:
			return fmt.Errorf("%w: control byte 0x%02X at offset %d", ErrEncoding, c, i)
		case undefinedCP1252(c) && !isUTF8:
			return fmt.Errorf("%w: byte 0x%02X at offset %d is not a Windows-1252 character", ErrEncoding, c, i)
		case c >= 0x80:
			highBytes = true
		}
	}
	if highBytes && isUTF8 {
		return fmt.Errorf("%w: content is UTF-8, expected ISO-8859-1", ErrEncoding)
	}
	return nil
}

func detectLineEnding(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i > 0 && data[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

func undefinedCP1252(c byte) bool {
	switch c {
	case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
		return true
	}
	return false
}

// indexOf localiza uma coluna obrigatória ignorando espaços em volta do nome
func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}
