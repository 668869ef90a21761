package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sells-group/lead-enrich/internal/cost"
	"github.com/sells-group/lead-enrich/internal/enrich"
	"github.com/sells-group/lead-enrich/internal/lookup"
	"github.com/sells-group/lead-enrich/internal/metrics"
)

// renderSummary formats the run totals and per-service usage.
func renderSummary(res *enrich.Result, snap metrics.Snapshot, rates cost.Rates) string {
	s := res.Summary

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendRows([]table.Row{
		{"Run", res.RunID},
		{"Records", strconv.Itoa(s.Total)},
		{"Succeeded", strconv.Itoa(s.Succeeded)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Owners found", strconv.Itoa(s.OwnersFound)},
		{"Owners with phone", strconv.Itoa(s.OwnersWithPhone)},
		{"Elapsed", formatElapsed(res.Elapsed)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	services := []string{lookup.ServicePlaces, lookup.ServicePerplexity, lookup.ServiceWhitepages}
	st := table.NewWriter()
	st.SetStyle(table.StyleRounded)
	st.Style().Format.Footer = text.FormatDefault
	st.AppendHeader(table.Row{"Service", "Calls", "Failures", "Cache hits"})
	for _, svc := range services {
		st.AppendRow(table.Row{
			svc,
			strconv.Itoa(snap.Requests[svc]),
			strconv.Itoa(snap.Failures[svc]),
			strconv.Itoa(snap.CacheHits[svc]),
		})
	}
	usage := cost.Usage{
		PlacesCalls:     snap.Requests[lookup.ServicePlaces],
		PerplexityCalls: snap.Requests[lookup.ServicePerplexity],
		InputTokens:     snap.InputTokens,
		OutputTokens:    snap.OutputTokens,
		WhitepagesCalls: snap.Requests[lookup.ServiceWhitepages],
	}
	st.AppendFooter(table.Row{"Estimated cost", "", "", fmt.Sprintf("$%.4f", cost.NewCalculator(rates).Total(usage))})
	st.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	return tw.Render() + "\n" + st.Render()
}
