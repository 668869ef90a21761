// Package model defines the records that flow through the enrichment pipeline.
package model

// Coordinates is a latitude/longitude pair parsed from the input row.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RestaurantRecord is one input row in canonical form. It is mutated only by
// the record processor during its single pass and is read-only afterwards.
type RestaurantRecord struct {
	FEIN           string       `json:"fein"`
	LLCName        string       `json:"llc_name"`
	RestaurantName string       `json:"restaurant_name"` // resolved display name
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	Address        string       `json:"address"`
	City           string       `json:"city"`
	State          string       `json:"state"`
	Zip            string       `json:"zip"`
	Phone          string       `json:"phone"`
	Email          string       `json:"email"`
	County         string       `json:"county"`
	Expdate        string       `json:"expdate"`
	Website        string       `json:"website"`

	// PersonsFromCSV holds the inline contact columns in input order.
	PersonsFromCSV []PersonInfo `json:"persons_from_csv,omitempty"`
	// Owners holds at most one discovered owner.
	Owners []PersonInfo `json:"owners,omitempty"`
}

// HasCoordinates reports whether the record carries a usable location. A zero
// latitude or longitude is treated as missing.
func (r *RestaurantRecord) HasCoordinates() bool {
	return r.Coordinates != nil && r.Coordinates.Lat != 0 && r.Coordinates.Lng != 0
}

// Owner returns the retained owner, or nil.
func (r *RestaurantRecord) Owner() *PersonInfo {
	if len(r.Owners) == 0 {
		return nil
	}
	return &r.Owners[0]
}
