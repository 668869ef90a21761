package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/lead-enrich/internal/model"
)

func baseRecord() *model.RestaurantRecord {
	return &model.RestaurantRecord{
		FEIN:           "123456789",
		LLCName:        "BUMPER CROP LLC DBA FIG",
		RestaurantName: "FIG",
		Address:        "232 Meeting St",
		City:           "Charleston",
		State:          "SC",
		Zip:            "29401",
		Phone:          "843-805-5900",
		Email:          "info@eatatfig.com",
		County:         "Charleston",
		Expdate:        "2026-12-31",
		Website:        "eatatfig.com",
	}
}

func TestFormatRow_NoOwner(t *testing.T) {
	row := FormatRow(baseRecord())

	assert.Equal(t, Row{
		FEIN:    "123456789",
		Name:    "FIG",
		Address: "232 Meeting St, Charleston, SC 29401",
		City:    "Charleston",
		State:   "SC",
		Zip:     "29401",
		Phone:   "843-805-5900",
		Email:   "info@eatatfig.com",
		County:  "Charleston",
		Expdate: "2026-12-31",
		Website: "eatatfig.com",
		LLCName: "BUMPER CROP LLC DBA FIG",
	}, row)
}

func TestFormatRow_NoStreetLeavesAddressEmpty(t *testing.T) {
	rec := baseRecord()
	rec.Address = ""
	row := FormatRow(rec)
	assert.Empty(t, row.Address)
	assert.Equal(t, "Charleston", row.City)
}

func TestFormatRow_PersonalAddressPreferred(t *testing.T) {
	rec := baseRecord()
	rec.Owners = []model.PersonInfo{{
		Name: "Mike Lata", Phone: "843-555-1111", Source: model.SourceWhitepages,
		PersonalAddress: "1 Bay St", PersonalCity: "Mt Pleasant", PersonalState: "SC",
		PersonalPhone: "843-555-0100",
	}}
	row := FormatRow(rec)

	assert.Equal(t, "Mike Lata", row.OwnerName)
	assert.Equal(t, "1 Bay St, Mt Pleasant, SC", row.Address)
	assert.Equal(t, "Mt Pleasant", row.City)
	assert.Empty(t, row.Zip)
	assert.Equal(t, "843-555-0100", row.Phone)
	assert.Equal(t, "whitepages", row.ContactSource)
}

func TestFormatRow_PhoneAndEmailPriority(t *testing.T) {
	tests := []struct {
		name      string
		owner     model.PersonInfo
		wantPhone string
		wantEmail string
	}{
		{
			name:      "owner phone over record phone",
			owner:     model.PersonInfo{Name: "A", Phone: "111", Email: "a@x.com"},
			wantPhone: "111",
			wantEmail: "a@x.com",
		},
		{
			name:      "record values when owner has none",
			owner:     model.PersonInfo{Name: "A", Source: model.SourcePerplexity},
			wantPhone: "843-805-5900",
			wantEmail: "info@eatatfig.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := baseRecord()
			rec.Owners = []model.PersonInfo{tt.owner}
			row := FormatRow(rec)
			assert.Equal(t, tt.wantPhone, row.Phone)
			assert.Equal(t, tt.wantEmail, row.Email)
			assert.Equal(t, tt.owner.Source.String(), row.ContactSource)
			assert.Equal(t, "232 Meeting St, Charleston, SC 29401", row.Address)
		})
	}
}

func TestRow_ValuesMatchColumns(t *testing.T) {
	row := FormatRow(baseRecord())
	vals := row.Values()
	assert.Len(t, vals, len(OutputColumns))
	assert.Equal(t, "FIG", vals[1])
	assert.Equal(t, "BUMPER CROP LLC DBA FIG", vals[12])
	assert.Equal(t, "", vals[13])
}
