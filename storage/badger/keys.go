package badger

import (
	"bytes"
	"encoding/binary"

	"github.com/poiesic/skumatch/core"
)

// Key prefixes for different data types
const (
	catalogItemPrefix = "catitm:"
	historyPrefix     = "hist:"
	quotePrefix       = "quote:"
	quoteIDSeq        = "quoteseq"
)

// quoteSKUTerminator separates the SKU from the quote ID so that one SKU is
// never a key prefix of another.
const quoteSKUTerminator = 0x00

// makeCatalogItemKey generates a key for a catalog item by SKU.
// Format: catitm:sku
func makeCatalogItemKey(sku string) []byte {
	return append([]byte(catalogItemPrefix), sku...)
}

// makeHistoryPrefix generates the prefix shared by all mappings of one
// requirement. Format: hist:hash:
func makeHistoryPrefix(requirement string) []byte {
	buf := make([]byte, 0, len(historyPrefix)+9)
	buf = append(buf, historyPrefix...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(core.IDFromContent(requirement)))
	return append(buf, ':')
}

// makeHistoryKey generates a key for a (requirement, sku) mapping.
// Format: hist:hash:sku
func makeHistoryKey(requirement, sku string) []byte {
	return append(makeHistoryPrefix(requirement), sku...)
}

// makeQuoteSKUPrefix generates the prefix shared by all quotes of one SKU.
// Format: quote:sku\x00
func makeQuoteSKUPrefix(sku string) []byte {
	buf := make([]byte, 0, len(quotePrefix)+len(sku)+9)
	buf = append(buf, quotePrefix...)
	buf = append(buf, sku...)
	return append(buf, quoteSKUTerminator)
}

// makeQuoteKey generates a key for a quote.
// Format: quote:sku\x00id, id written BigEndian so keys sort by insertion.
func makeQuoteKey(sku string, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(makeQuoteSKUPrefix(sku), uint64(id))
}

// makeQuoteSeekKey returns the greatest possible key for a SKU, used to
// start reverse iteration.
func makeQuoteSeekKey(sku string) []byte {
	return append(makeQuoteSKUPrefix(sku), bytes.Repeat([]byte{0xff}, 8)...)
}
