package writers

import "mlst/internal/output"

func init() {
	RegisterReport(output.FormatText, output.WriteText)
	RegisterReport(output.FormatJSON, output.WriteJSON)
	RegisterReport(output.FormatJSONL, output.WriteJSONL)
}
