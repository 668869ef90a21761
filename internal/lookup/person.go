package lookup

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/cache"
	"github.com/sells-group/lead-enrich/pkg/whitepages"
)

// PersonalInfo is a person's own contact details, distinct from the
// business's.
type PersonalInfo struct {
	Address string `json:"personal_address,omitempty"`
	City    string `json:"personal_city,omitempty"`
	State   string `json:"personal_state,omitempty"`
	Zip     string `json:"personal_zip,omitempty"`
	Phone   string `json:"personal_phone,omitempty"`
}

func (p PersonalInfo) empty() bool {
	return p == PersonalInfo{}
}

// PersonLookup finds personal contact details for a named person.
type PersonLookup struct {
	client whitepages.Client
	svc    *service
}

// NewPersonLookup returns a PersonLookup. A nil client disables it.
func NewPersonLookup(client whitepages.Client, opts Options) *PersonLookup {
	return &PersonLookup{client: client, svc: newService(ServiceWhitepages, opts)}
}

// LookupPerson returns the first match for name in city/state, or nil.
// Missing arguments short-circuit without a network call.
func (p *PersonLookup) LookupPerson(ctx context.Context, name, city, state string) *PersonalInfo {
	if p == nil || p.client == nil {
		return nil
	}
	name, city, state = strings.TrimSpace(name), strings.TrimSpace(city), strings.TrimSpace(state)
	if name == "" || city == "" || state == "" {
		zap.L().Debug("lookup: person lookup missing arguments",
			zap.String("name", name), zap.String("city", city), zap.String("state", state))
		return nil
	}

	stateCode := strings.ToUpper(state)
	if len(stateCode) > 2 {
		stateCode = stateCode[:2]
	}

	key := cache.NewKey("whitepages_person", name, city, state)
	info, ok := call(ctx, p.svc, key, "find_person", func(ctx context.Context) (PersonalInfo, bool, error) {
		resp, err := p.client.FindPerson(ctx, whitepages.PersonRequest{
			Name: name, City: city, StateCode: stateCode,
		})
		if err != nil {
			return PersonalInfo{}, false, err
		}
		if len(resp.Results) == 0 {
			return PersonalInfo{}, false, nil
		}

		person := resp.Results[0]
		var info PersonalInfo
		if len(person.Locations) > 0 {
			loc := person.Locations[0]
			info.Address = loc.StandardAddressLine1
			info.City = loc.City
			info.State = loc.StateCode
			info.Zip = loc.PostalCode
		}
		if len(person.Phones) > 0 {
			info.Phone = person.Phones[0].PhoneNumber
		}
		return info, !info.empty(), nil
	})
	if !ok {
		return nil
	}
	return &info
}
