package importer

import (
	"strings"
)

type column int

const (
	colDate column = iota
	colTitle
	colAmount
	colDebit
	colCredit
	colType
	colCategory
)

// aliases lists accepted header names per column, compared case-insensitively.
var aliases = map[column][]string{
	colDate:     {"date", "data", "data mov.", "booking date"},
	colTitle:    {"title", "description", "descrição", "descricao", "memo"},
	colAmount:   {"amount", "montante", "movimento", "value"},
	colDebit:    {"debit", "débito", "debito"},
	colCredit:   {"credit", "crédito", "credito"},
	colType:     {"type", "tipo"},
	colCategory: {"category", "categoria"},
}

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountSingle means one amount column, signed unless a type column is present.
	amountSingle amountMode = iota
	// amountSplit means separate debit and credit columns.
	amountSplit
)

// layout is a header resolved to column positions.
type layout struct {
	cols map[column]int
	mode amountMode
}

func (l layout) has(c column) bool {
	_, ok := l.cols[c]
	return ok
}

// cell returns the trimmed value of c in row, or "" when absent.
func (l layout) cell(row []string, c column) string {
	idx, ok := l.cols[c]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// detectLayout resolves a header row. It needs date, title and either an amount
// column or a debit/credit pair.
func detectLayout(row []string) (layout, bool) {
	l := layout{cols: make(map[column]int)}

	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == "" {
			continue
		}

		for c, names := range aliases {
			if _, seen := l.cols[c]; seen {
				continue
			}

			for _, alias := range names {
				if name == alias {
					l.cols[c] = i
				}
			}
		}
	}

	if !l.has(colDate) || !l.has(colTitle) {
		return layout{}, false
	}

	switch {
	case l.has(colAmount):
		l.mode = amountSingle
	case l.has(colDebit) && l.has(colCredit):
		l.mode = amountSplit
	default:
		return layout{}, false
	}

	return l, true
}

func (l layout) hasAmount(row []string) bool {
	return l.cell(row, colAmount) != "" || l.cell(row, colDebit) != "" || l.cell(row, colCredit) != ""
}
