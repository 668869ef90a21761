package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/internal/lookup"
	"github.com/sells-group/lead-enrich/internal/model"
)

func newMocks() (*mockPlaces, *mockNames, *mockPeople, *Processor) {
	pl, nm, pp := &mockPlaces{}, &mockNames{}, &mockPeople{}
	return pl, nm, pp, NewProcessor(pl, nm, pp, 0, 0)
}

func TestExtractDBA(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BUMPER CROP LLC DBA FIG", "FIG"},
		{"Bumper Crop LLC dba The Ordinary ", "The Ordinary"},
		{"ACME DBA  Husk Bar", "Husk Bar"},
		{"ACME HOLDINGS LLC", ""},
		{"DBAXTER LLC", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDBA(tt.in))
		})
	}
}

func TestProcess_DBASkipsLookups(t *testing.T) {
	pl, nm, pp, p := newMocks()
	nm.On("FindOwners", mock.Anything, mock.MatchedBy(func(q lookup.OwnerQuery) bool {
		return q.RestaurantName == "FIG" && q.LLCName == "BUMPER CROP LLC DBA FIG"
	})).Return(nil)

	rec := &model.RestaurantRecord{
		LLCName:     "BUMPER CROP LLC DBA FIG",
		Coordinates: &model.Coordinates{Lat: 32.78, Lng: -79.93},
	}
	p.Process(context.Background(), rec)

	assert.Equal(t, "FIG", rec.RestaurantName)
	assert.Empty(t, rec.Owners)
	pl.AssertNotCalled(t, "FindRestaurant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	nm.AssertNotCalled(t, "ResolveName", mock.Anything, mock.Anything)
	pp.AssertNotCalled(t, "LookupPerson", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	nm.AssertExpectations(t)
}

func TestProcess_PlaceLookupWins(t *testing.T) {
	pl, nm, _, p := newMocks()
	pl.On("FindRestaurant", mock.Anything, 32.78, -79.93, lookup.DefaultRadius).Return(&lookup.Place{Name: "Husk"})
	nm.On("FindOwners", mock.Anything, mock.Anything).Return(nil)

	rec := &model.RestaurantRecord{
		LLCName:     "ACME HOLDINGS LLC",
		Coordinates: &model.Coordinates{Lat: 32.78, Lng: -79.93},
	}
	p.Process(context.Background(), rec)

	assert.Equal(t, "Husk", rec.RestaurantName)
	nm.AssertNotCalled(t, "ResolveName", mock.Anything, mock.Anything)
	pl.AssertExpectations(t)
}

func TestProcess_FallsBackToNameResolver(t *testing.T) {
	pl, nm, _, p := newMocks()
	pl.On("FindRestaurant", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	nm.On("ResolveName", mock.Anything, lookup.NameQuery{
		LLCName: "ACME HOLDINGS LLC", Address: "544 King St", City: "Charleston", State: "SC", Website: "acme.com",
	}).Return("The Ordinary")
	nm.On("FindOwners", mock.Anything, mock.Anything).Return(nil)

	rec := &model.RestaurantRecord{
		LLCName:     "ACME HOLDINGS LLC",
		Coordinates: &model.Coordinates{Lat: 1, Lng: 2},
		Address:     "544 King St", City: "Charleston", State: "SC", Website: "acme.com",
	}
	p.Process(context.Background(), rec)

	assert.Equal(t, "The Ordinary", rec.RestaurantName)
	pl.AssertExpectations(t)
	nm.AssertExpectations(t)
}

func TestProcess_NoCoordinatesSkipsPlaces(t *testing.T) {
	pl, nm, _, p := newMocks()
	nm.On("ResolveName", mock.Anything, mock.Anything).Return("")
	nm.On("FindOwners", mock.Anything, mock.MatchedBy(func(q lookup.OwnerQuery) bool {
		return q.RestaurantName == "ACME HOLDINGS LLC"
	})).Return(nil)

	for _, coords := range []*model.Coordinates{nil, {Lat: 0, Lng: -79.93}} {
		rec := &model.RestaurantRecord{LLCName: "ACME HOLDINGS LLC", Coordinates: coords}
		p.Process(context.Background(), rec)
		assert.Equal(t, "ACME HOLDINGS LLC", rec.RestaurantName, "legal name is the last resort")
	}
	pl.AssertNotCalled(t, "FindRestaurant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_CSVMatchWithPhone(t *testing.T) {
	_, nm, pp, p := newMocks()
	nm.On("ResolveName", mock.Anything, mock.Anything).Return("")
	nm.On("FindOwners", mock.Anything, mock.Anything).Return([]string{"Jane Doe"})

	rec := &model.RestaurantRecord{
		LLCName:        "DOE FOODS LLC",
		PersonsFromCSV: []model.PersonInfo{{Name: "Jane A. Doe", Phone: "555-1234"}},
	}
	p.Process(context.Background(), rec)

	owner := rec.Owner()
	require.NotNil(t, owner)
	assert.Equal(t, "Jane Doe", owner.Name)
	assert.Equal(t, "555-1234", owner.Phone)
	assert.Equal(t, model.SourceCSV, owner.Source)
	assert.Empty(t, owner.Email)
	pp.AssertNotCalled(t, "LookupPerson", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_EmailKeptWhenNameInAddress(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"Jane@FigCharleston.com", "Jane@FigCharleston.com"},
		{"info@figcharleston.com", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			_, nm, _, p := newMocks()
			nm.On("ResolveName", mock.Anything, mock.Anything).Return("")
			nm.On("FindOwners", mock.Anything, mock.Anything).Return([]string{"jane"})

			rec := &model.RestaurantRecord{
				LLCName:        "FIG LLC",
				Email:          tt.email,
				PersonsFromCSV: []model.PersonInfo{{Name: "Jane", Phone: "555-0001"}},
			}
			p.Process(context.Background(), rec)

			require.NotNil(t, rec.Owner())
			assert.Equal(t, tt.want, rec.Owner().Email)
		})
	}
}

func TestProcess_UnmatchedCandidateIsPerplexityOwner(t *testing.T) {
	_, nm, _, p := newMocks()
	nm.On("ResolveName", mock.Anything, mock.Anything).Return("")
	nm.On("FindOwners", mock.Anything, mock.Anything).Return([]string{"Mike Lata", "Sean Brock"})

	rec := &model.RestaurantRecord{
		LLCName: "FIG LLC",
		PersonsFromCSV: []model.PersonInfo{
			{Name: "Sean Brock"},
			{Name: "Jason Stanhope", Phone: "555-0002"},
		},
	}
	p.Process(context.Background(), rec)

	require.Len(t, rec.Owners, 1)
	assert.Equal(t, "Mike Lata", rec.Owners[0].Name)
	assert.Equal(t, model.SourcePerplexity, rec.Owners[0].Source)
	assert.Empty(t, rec.Owners[0].Phone)
}

func TestProcess_LaterCandidateWithPhoneWins(t *testing.T) {
	_, nm, _, p := newMocks()
	nm.On("ResolveName", mock.Anything, mock.Anything).Return("")
	nm.On("FindOwners", mock.Anything, mock.Anything).Return([]string{"Mike Lata", "Jason Stanhope"})

	rec := &model.RestaurantRecord{
		LLCName:        "FIG LLC",
		PersonsFromCSV: []model.PersonInfo{{Name: "Jason Stanhope", Phone: "555-0002"}},
	}
	p.Process(context.Background(), rec)

	require.Len(t, rec.Owners, 1)
	assert.Equal(t, "Jason Stanhope", rec.Owners[0].Name)
	assert.Equal(t, model.SourceCSV, rec.Owners[0].Source)
}

func TestProcess_CSVFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		persons []model.PersonInfo
		want    string
	}{
		{
			name:    "first with phone",
			persons: []model.PersonInfo{{Name: "A Person"}, {Name: "B Person", Phone: "555"}},
			want:    "B Person",
		},
		{
			name:    "first by name",
			persons: []model.PersonInfo{{Name: "A Person"}, {Name: "B Person"}},
			want:    "A Person",
		},
		{
			name:    "nameless first",
			persons: []model.PersonInfo{{Phone: "555"}},
			want:    "",
		},
		{
			name: "no contacts",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, nm, _, p := newMocks()
			nm.On("ResolveName", mock.Anything, mock.Anything).Return("")
			nm.On("FindOwners", mock.Anything, mock.Anything).Return(nil)

			rec := &model.RestaurantRecord{LLCName: "X LLC", PersonsFromCSV: tt.persons}
			p.Process(context.Background(), rec)

			if tt.want == "" {
				assert.Empty(t, rec.Owners)
				return
			}
			require.Len(t, rec.Owners, 1)
			assert.Equal(t, tt.want, rec.Owners[0].Name)
			assert.Equal(t, model.SourceCSV, rec.Owners[0].Source)
		})
	}
}

func TestProcess_OwnerIsCopied(t *testing.T) {
	_, nm, _, p := newMocks()
	nm.On("ResolveName", mock.Anything, mock.Anything).Return("")
	nm.On("FindOwners", mock.Anything, mock.Anything).Return(nil)

	rec := &model.RestaurantRecord{
		LLCName:        "X LLC",
		PersonsFromCSV: []model.PersonInfo{{Name: "A Person", Phone: "555"}},
	}
	p.Process(context.Background(), rec)

	require.Len(t, rec.Owners, 1)
	rec.Owners[0].Phone = "changed"
	assert.Equal(t, "555", rec.PersonsFromCSV[0].Phone)
}

func TestProcess_PersonalPhoneUpgradesSource(t *testing.T) {
	_, nm, pp, p := newMocks()
	nm.On("ResolveName", mock.Anything, mock.Anything).Return("")
	nm.On("FindOwners", mock.Anything, mock.Anything).Return([]string{"Jane Doe"})
	pp.On("LookupPerson", mock.Anything, "Jane Doe", "Austin", "TX").Return(&lookup.PersonalInfo{
		Address: "9 Elm St", City: "Austin", State: "TX", Zip: "78701", Phone: "512-555-0100",
	})

	rec := &model.RestaurantRecord{
		LLCName: "DOE FOODS LLC", City: "Austin", State: "TX", Phone: "512-555-9999",
		PersonsFromCSV: []model.PersonInfo{{Name: "Jane Doe", Phone: "555-1234"}},
	}
	p.Process(context.Background(), rec)

	owner := rec.Owner()
	require.NotNil(t, owner)
	assert.Equal(t, model.SourceWhitepages, owner.Source)
	assert.Equal(t, "512-555-0100", owner.PersonalPhone)
	assert.Equal(t, "9 Elm St", owner.PersonalAddress)
	assert.Equal(t, "512-555-0100", FormatRow(rec).Phone)
	pp.AssertExpectations(t)
}

func TestProcess_PersonalAddressWithoutPhoneKeepsSource(t *testing.T) {
	_, nm, pp, p := newMocks()
	nm.On("ResolveName", mock.Anything, mock.Anything).Return("")
	nm.On("FindOwners", mock.Anything, mock.Anything).Return([]string{"Mike Lata"})
	pp.On("LookupPerson", mock.Anything, "Mike Lata", "Charleston", "SC").Return(&lookup.PersonalInfo{
		Address: "1 Bay St", City: "Charleston", State: "SC",
	})

	rec := &model.RestaurantRecord{LLCName: "FIG LLC", City: "Charleston", State: "SC"}
	p.Process(context.Background(), rec)

	owner := rec.Owner()
	require.NotNil(t, owner)
	assert.Equal(t, model.SourcePerplexity, owner.Source)
	assert.Equal(t, "1 Bay St", owner.PersonalAddress)
}

func TestProcess_PersonalLookupNeedsCityAndState(t *testing.T) {
	_, nm, pp, p := newMocks()
	nm.On("ResolveName", mock.Anything, mock.Anything).Return("")
	nm.On("FindOwners", mock.Anything, mock.Anything).Return([]string{"Mike Lata"})

	rec := &model.RestaurantRecord{LLCName: "FIG LLC", City: "Charleston"}
	p.Process(context.Background(), rec)

	require.NotNil(t, rec.Owner())
	pp.AssertNotCalled(t, "LookupPerson", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
