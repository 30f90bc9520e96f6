// Package etl loads trade data files into the store: pre-aggregated
// JSON statistics, processed reference CSVs and raw shipment CSVs.
package etl

// HS chapters covering machinery, electronics, instruments and other
// manufactured equipment. Everything else is a raw material.
var equipmentChapters = map[string]bool{
	"37": true, "38": true, "82": true, "83": true, "84": true,
	"85": true, "86": true, "87": true, "88": true, "89": true,
	"90": true, "91": true, "92": true, "93": true, "94": true,
	"95": true, "96": true,
}

// CategoryForHSCode maps an HS code to the coarse category bucket by
// its 2-digit chapter.
func CategoryForHSCode(hsCode string) string {
	if len(hsCode) < 2 {
		return "raw_material"
	}
	if equipmentChapters[hsCode[:2]] {
		return "equipment"
	}
	return "raw_material"
}
