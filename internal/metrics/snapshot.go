package metrics

import "github.com/rotisserie/eris"

// Snapshot is a point-in-time view of the counters, keyed by service.
type Snapshot struct {
	Requests     map[string]int // attempts sent per service
	Failures     map[string]int // attempts per service with transient/terminal outcome
	CacheHits    map[string]int
	InputTokens  int
	OutputTokens int
}

// Snapshot gathers the current counter values.
func (r *Recorder) Snapshot() (Snapshot, error) {
	snap := Snapshot{
		Requests:  map[string]int{},
		Failures:  map[string]int{},
		CacheHits: map[string]int{},
	}
	if r == nil {
		return snap, nil
	}

	families, err := r.registry.Gather()
	if err != nil {
		return snap, eris.Wrap(err, "metrics: gather")
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			v := int(m.GetCounter().GetValue())

			switch mf.GetName() {
			case namespace + "_upstream_requests_total":
				o := labels["outcome"]
				if o == OutcomeOpen {
					continue // rejected locally, never sent
				}
				snap.Requests[labels["service"]] += v
				if o == OutcomeTransient || o == OutcomeTerminal {
					snap.Failures[labels["service"]] += v
				}
			case namespace + "_cache_lookups_total":
				if labels["result"] == "hit" {
					snap.CacheHits[labels["service"]] += v
				}
			case namespace + "_llm_tokens_total":
				switch labels["direction"] {
				case "input":
					snap.InputTokens += v
				case "output":
					snap.OutputTokens += v
				}
			}
		}
	}
	return snap, nil
}
