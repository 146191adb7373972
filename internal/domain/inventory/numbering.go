package inventory

import (
	"fmt"
	"regexp"
	"strconv"
)

// Prefijos de numeración por tipo de documento.
const (
	PrefixGoodsReceipt   = "BR"
	PrefixTransfer       = "TR"
	PrefixInventoryCount = "INV"
)

var numberPattern = regexp.MustCompile(`^(BR|TR|INV)-(\d{4})-(\d{4,})$`)

// FormatDocumentNumber construye PREFIX-YYYY-NNNN (secuencia con 4 dígitos mínimo).
func FormatDocumentNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%04d", prefix, year, seq)
}

// ParseDocumentNumber separa prefijo, año y secuencia. ok=false si el formato no coincide.
func ParseDocumentNumber(number string) (prefix string, year int, seq int64, ok bool) {
	m := numberPattern.FindStringSubmatch(number)
	if m == nil {
		return "", 0, 0, false
	}
	year, _ = strconv.Atoi(m[2])
	seq, _ = strconv.ParseInt(m[3], 10, 64)
	return m[1], year, seq, true
}
