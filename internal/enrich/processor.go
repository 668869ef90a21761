package enrich

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/lookup"
	"github.com/sells-group/lead-enrich/internal/match"
	"github.com/sells-group/lead-enrich/internal/model"
)

var dbaRe = regexp.MustCompile(`(?i)\bDBA\s+(.+)$`)

// PlaceFinder finds a restaurant near a point.
type PlaceFinder interface {
	FindRestaurant(ctx context.Context, lat, lng float64, radius int) *lookup.Place
}

// NameFinder resolves display names and owner candidates.
type NameFinder interface {
	ResolveName(ctx context.Context, q lookup.NameQuery) string
	FindOwners(ctx context.Context, q lookup.OwnerQuery) []string
}

// PersonFinder looks up a person's own contact details.
type PersonFinder interface {
	LookupPerson(ctx context.Context, name, city, state string) *lookup.PersonalInfo
}

// Processor runs the resolution steps for one record at a time. It holds no
// per-record state and is safe for concurrent use.
type Processor struct {
	places    PlaceFinder
	names     NameFinder
	people    PersonFinder
	radius    int
	threshold float64
}

// NewProcessor creates a Processor. radius and threshold fall back to
// lookup.DefaultRadius and match.DefaultThreshold when non-positive.
func NewProcessor(places PlaceFinder, names NameFinder, people PersonFinder, radius int, threshold float64) *Processor {
	if radius <= 0 {
		radius = lookup.DefaultRadius
	}
	if threshold <= 0 {
		threshold = match.DefaultThreshold
	}
	return &Processor{
		places:    places,
		names:     names,
		people:    people,
		radius:    radius,
		threshold: threshold,
	}
}

// Process resolves the display name, discovers and reconciles an owner, and
// attaches the owner's personal details, mutating rec in place.
func (p *Processor) Process(ctx context.Context, rec *model.RestaurantRecord) {
	log := zap.L().With(zap.String("fein", rec.FEIN), zap.String("llc", rec.LLCName))

	rec.RestaurantName = p.resolveName(ctx, rec)
	log.Debug("name resolved", zap.String("name", rec.RestaurantName))

	candidates := p.names.FindOwners(ctx, lookup.OwnerQuery{
		RestaurantName: rec.RestaurantName,
		LLCName:        rec.LLCName,
		Address:        rec.Address,
		City:           rec.City,
		State:          rec.State,
	})

	owner := reconcile(rec, candidates, p.threshold)
	if owner == nil {
		log.Debug("no owner found")
		return
	}

	if rec.City != "" && rec.State != "" {
		if info := p.people.LookupPerson(ctx, owner.Name, rec.City, rec.State); info != nil {
			owner.PersonalAddress = info.Address
			owner.PersonalCity = info.City
			owner.PersonalState = info.State
			owner.PersonalZip = info.Zip
			owner.PersonalPhone = info.Phone
			if info.Phone != "" {
				owner.Upgrade(model.SourceWhitepages)
			}
		}
	}

	rec.Owners = []model.PersonInfo{*owner}
	log.Debug("owner retained",
		zap.String("owner", owner.Name),
		zap.Stringer("source", owner.Source),
	)
}

func (p *Processor) resolveName(ctx context.Context, rec *model.RestaurantRecord) string {
	if name := ExtractDBA(rec.LLCName); name != "" {
		return name
	}

	if rec.HasCoordinates() {
		if place := p.places.FindRestaurant(ctx, rec.Coordinates.Lat, rec.Coordinates.Lng, p.radius); place != nil && place.Name != "" {
			return place.Name
		}
	}

	if name := p.names.ResolveName(ctx, lookup.NameQuery{
		LLCName: rec.LLCName,
		Address: rec.Address,
		City:    rec.City,
		State:   rec.State,
		Website: rec.Website,
	}); name != "" {
		return name
	}

	return rec.LLCName
}

// ExtractDBA returns the trade name after a "DBA" token in a legal name,
// e.g. "BUMPER CROP LLC DBA FIG" yields "FIG".
func ExtractDBA(legal string) string {
	m := dbaRe.FindStringSubmatch(legal)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// reconcile picks at most one owner. A candidate whose fuzzy match in the
// CSV contacts carries a phone wins outright; otherwise the first candidate
// is kept. Without candidates the CSV contacts are used directly. The
// returned value is a copy.
func reconcile(rec *model.RestaurantRecord, candidates []string, threshold float64) *model.PersonInfo {
	var owner *model.PersonInfo

	for _, name := range candidates {
		if name == "" {
			continue
		}
		m, _ := match.BestMatch(name, rec.PersonsFromCSV, threshold)
		if m != nil && m.Phone != "" {
			o := model.PersonInfo{Name: name, Phone: m.Phone, Source: model.SourceCSV}
			if rec.Email != "" && strings.Contains(strings.ToLower(rec.Email), strings.ToLower(m.Name)) {
				o.Email = rec.Email
			}
			return &o
		}
		if owner == nil {
			owner = &model.PersonInfo{Name: name, Source: model.SourcePerplexity}
		}
	}
	if owner != nil || len(rec.PersonsFromCSV) == 0 {
		return owner
	}

	for _, person := range rec.PersonsFromCSV {
		if person.Name != "" && person.Phone != "" {
			o := person
			return &o
		}
	}
	if first := rec.PersonsFromCSV[0]; first.Name != "" {
		return &first
	}
	return nil
}
