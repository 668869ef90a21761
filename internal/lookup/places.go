package lookup

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/internal/cache"
	"github.com/sells-group/lead-enrich/internal/resilience"
	"github.com/sells-group/lead-enrich/pkg/google"
)

// DefaultRadius is the Nearby Search radius in meters.
const DefaultRadius = 50

// Place is the first restaurant found near a point.
type Place struct {
	Name     string `json:"name"`
	PlaceID  string `json:"place_id"`
	Vicinity string `json:"vicinity"`
}

// PlaceLookup finds restaurants near coordinates.
type PlaceLookup struct {
	client google.Client
	svc    *service
}

// NewPlaceLookup returns a PlaceLookup. A nil client disables it.
func NewPlaceLookup(client google.Client, opts Options) *PlaceLookup {
	return &PlaceLookup{client: client, svc: newService(ServicePlaces, opts)}
}

// FindRestaurant returns the first restaurant within radius meters of
// (lat, lng), or nil. A non-positive radius uses DefaultRadius.
func (p *PlaceLookup) FindRestaurant(ctx context.Context, lat, lng float64, radius int) *Place {
	if p == nil || p.client == nil {
		return nil
	}
	if radius <= 0 {
		radius = DefaultRadius
	}

	key := cache.NewKey(ServicePlaces,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lng, 'f', -1, 64),
		strconv.Itoa(radius),
	)
	place, ok := call(ctx, p.svc, key, "nearby_search", func(ctx context.Context) (Place, bool, error) {
		resp, err := p.client.NearbySearch(ctx, google.NearbySearchRequest{
			Lat: lat, Lng: lng, Radius: radius, Type: "restaurant",
		})
		if err != nil {
			return Place{}, false, err
		}

		switch resp.Status {
		case google.StatusOK:
		case google.StatusZeroResults:
			return Place{}, false, nil
		case google.StatusUnknownError:
			return Place{}, false, resilience.NewTransientError(
				eris.Errorf("google: status %s", resp.Status), 0)
		default:
			return Place{}, false, eris.Errorf("google: status %s: %s", resp.Status, resp.ErrorMessage)
		}
		if len(resp.Results) == 0 || resp.Results[0].Name == "" {
			return Place{}, false, nil
		}

		r := resp.Results[0]
		return Place{Name: r.Name, PlaceID: r.PlaceID, Vicinity: r.Vicinity}, true, nil
	})
	if !ok {
		return nil
	}
	return &place
}
