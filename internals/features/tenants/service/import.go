package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	propertyService "majibill_backend/internals/features/properties/service"
	"majibill_backend/internals/features/tenants/dto"
	"majibill_backend/internals/helpers/apperr"
)

const MaxImportRows = 2000

type importColumns struct {
	name, house, phone, reading int
}

var defaultColumns = importColumns{name: 0, house: 1, phone: 2, reading: 3}

// headerColumns maps a header row to column positions. ok is false when the
// row does not look like a header.
func headerColumns(row []string) (importColumns, bool) {
	cols := importColumns{name: -1, house: -1, phone: -1, reading: -1}
	for i, cell := range row {
		switch strings.ToLower(strings.Join(strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(cell)), " ")) {
		case "name", "tenant", "tenant name":
			cols.name = i
		case "house", "house label", "house no", "house number", "unit":
			cols.house = i
		case "phone", "phone number", "mobile", "tel":
			cols.phone = i
		case "initial reading", "reading", "meter reading", "initial":
			cols.reading = i
		}
	}
	if cols.name < 0 || cols.house < 0 || cols.phone < 0 {
		return defaultColumns, false
	}
	return cols, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ImportTenants adds one tenant per CSV row (name, house label, phone,
// optional initial reading). Each row commits on its own; failures are
// reported per row and do not stop the run.
func (o *Occupancy) ImportTenants(ctx context.Context, adminID, propertyID uuid.UUID, filename string, data []byte) (*dto.ImportReport, error) {
	if _, err := propertyService.LoadProperty(o.db.WithContext(ctx), adminID, propertyID); err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, ErrImportMalformed.Wrap(err)
	}

	cols := defaultColumns
	first := 0
	if len(records) > 0 {
		if hc, ok := headerColumns(records[0]); ok {
			cols, first = hc, 1
		}
	}
	rows := records[first:]
	if len(rows) > MaxImportRows {
		return nil, ErrImportTooLarge.Withf("the file has %d rows, the limit is %d", len(rows), MaxImportRows)
	}

	report := &dto.ImportReport{Rows: []dto.ImportRow{}}
	for i, row := range rows {
		line := first + i + 1
		in := AddTenantInput{
			PropertyID: propertyID,
			Name:       cell(row, cols.name),
			HouseLabel: cell(row, cols.house),
			Phone:      cell(row, cols.phone),
		}
		if in.Name == "" && in.HouseLabel == "" && in.Phone == "" {
			continue
		}
		report.Total++
		out := dto.ImportRow{Line: line, Name: in.Name, HouseLabel: in.HouseLabel, Phone: in.Phone}

		if raw := cell(row, cols.reading); raw != "" {
			v, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
			if err != nil {
				out.Status, out.Error = dto.ImportFailed, "initial reading is not a number"
				report.Failed++
				report.Rows = append(report.Rows, out)
				continue
			}
			in.InitialReading = &v
		}

		t, err := o.AddTenant(ctx, adminID, in)
		if err != nil {
			out.Status = dto.ImportFailed
			if ae, ok := apperr.As(err); ok && ae.Kind != apperr.KindIntegrity && ae.Kind != apperr.KindUnknown {
				out.Error = ae.Message
			} else {
				log.Printf("[OCCUPANCY] import line %d: %v", line, err)
				out.Error = "could not save this row"
			}
			report.Failed++
		} else {
			out.Status = dto.ImportCreated
			out.TenantID = &t.TenantID
			report.Created++
		}
		report.Rows = append(report.Rows, out)
	}
	if report.Total == 0 {
		return nil, ErrImportEmpty
	}

	if o.archiver != nil {
		key, err := o.archiver.Archive(ctx, adminID.String(), filename, data, "text/csv")
		if err != nil {
			log.Printf("[OCCUPANCY] import archive admin=%s: %v", adminID, err)
		} else {
			report.ArchiveKey = key
		}
	}
	log.Printf("[OCCUPANCY] admin=%s import %q: %d created, %d failed", adminID, filename, report.Created, report.Failed)
	return report, nil
}
