package export

import (
	"encoding/csv"
	"io"

	"finanse/internal/core"
)

const utf8BOM = "\uFEFF"

var csvHeader = []string{"Data", "Opis", "Kategoria", "Typ", "Kwota (PLN)"}

// TypeLabel is the Polish column value for a transaction type.
func TypeLabel(t core.TransactionType) string {
	if t == core.Income {
		return "Przychód"
	}
	return "Wydatek"
}

// WriteCSV writes a semicolon separated sheet with a UTF-8 BOM, so that
// spreadsheet programs pick up the encoding and the decimal comma.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range txs {
		row := []string{
			t.Date.Format("02.01.2006"),
			t.Description,
			t.Category,
			TypeLabel(t.Type),
			t.Amount.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
