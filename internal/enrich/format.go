package enrich

import (
	"strings"

	"github.com/sells-group/lead-enrich/internal/model"
)

// OutputColumns is the output header, in order.
var OutputColumns = []string{
	"FEIN", "Name", "OwnerName", "Address", "City", "State", "Zip",
	"Phone", "Email", "County", "Expdate", "Website", "LLC_Name", "ContactSource",
}

// Row is one output line. Address, City, State and Zip describe where the
// owner lives when known, otherwise the restaurant.
type Row struct {
	FEIN          string
	Name          string
	OwnerName     string
	Address       string
	City          string
	State         string
	Zip           string
	Phone         string
	Email         string
	County        string
	Expdate       string
	Website       string
	LLCName       string
	ContactSource string
}

// Values returns the row's fields in OutputColumns order.
func (r Row) Values() []string {
	return []string{
		r.FEIN, r.Name, r.OwnerName, r.Address, r.City, r.State, r.Zip,
		r.Phone, r.Email, r.County, r.Expdate, r.Website, r.LLCName, r.ContactSource,
	}
}

// FormatRow projects a processed record into its output row.
func FormatRow(rec *model.RestaurantRecord) Row {
	row := Row{
		FEIN:    rec.FEIN,
		Name:    rec.RestaurantName,
		Phone:   rec.Phone,
		Email:   rec.Email,
		County:  rec.County,
		Expdate: rec.Expdate,
		Website: rec.Website,
		LLCName: rec.LLCName,
	}

	owner := rec.Owner()
	if owner != nil && owner.PersonalAddress != "" {
		row.City, row.State, row.Zip = owner.PersonalCity, owner.PersonalState, owner.PersonalZip
		row.Address = combineAddress(owner.PersonalAddress, row.City, row.State, row.Zip)
	} else {
		row.City, row.State, row.Zip = rec.City, rec.State, rec.Zip
		if rec.Address != "" {
			row.Address = combineAddress(rec.Address, row.City, row.State, row.Zip)
		}
	}

	if owner == nil {
		return row
	}

	row.OwnerName = owner.Name
	row.ContactSource = owner.Source.String()
	switch {
	case owner.PersonalPhone != "":
		row.Phone = owner.PersonalPhone
	case owner.Phone != "":
		row.Phone = owner.Phone
	}
	if owner.Email != "" {
		row.Email = owner.Email
	}
	return row
}

// combineAddress renders "street, city, state zip".
func combineAddress(street, city, state, zip string) string {
	return strings.TrimSpace(street + ", " + city + ", " + state + " " + zip)
}
