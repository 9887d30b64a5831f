package csvimport

import (
	"encoding/csv"
	"io"
	"strconv"

	"dealership_backend/internal/leads/domain"
)

// Write renders leads in the import template so an export can be edited
// and imported again.
func Write(w io.Writer, leads []domain.Lead) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return err
	}

	for _, lead := range leads {
		year := ""
		if lead.Vehicle.Year > 0 {
			year = strconv.Itoa(lead.Vehicle.Year)
		}
		record := []string{
			lead.Contact.FullName,
			lead.Contact.Phone,
			lead.Vehicle.Make,
			lead.Vehicle.Model,
			year,
			strconv.Itoa(lead.Vehicle.Mileage),
			lead.Vehicle.Color,
			lead.Vehicle.Trim,
			lead.Vehicle.Region,
			lead.Vehicle.AskingPrice.StringFixed(2),
			lead.Source,
			string(lead.Priority),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
