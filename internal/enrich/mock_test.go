package enrich

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-enrich/internal/lookup"
)

// --- Place Mock ---

type mockPlaces struct {
	mock.Mock
}

func (m *mockPlaces) FindRestaurant(ctx context.Context, lat, lng float64, radius int) *lookup.Place {
	args := m.Called(ctx, lat, lng, radius)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*lookup.Place)
}

// --- Name Mock ---

type mockNames struct {
	mock.Mock
}

func (m *mockNames) ResolveName(ctx context.Context, q lookup.NameQuery) string {
	args := m.Called(ctx, q)
	return args.String(0)
}

func (m *mockNames) FindOwners(ctx context.Context, q lookup.OwnerQuery) []string {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

// --- Person Mock ---

type mockPeople struct {
	mock.Mock
}

func (m *mockPeople) LookupPerson(ctx context.Context, name, city, state string) *lookup.PersonalInfo {
	args := m.Called(ctx, name, city, state)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*lookup.PersonalInfo)
}
