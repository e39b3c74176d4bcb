package aggregator

import (
	"context"
	"time"

	"github.com/sells-group/edgar-profiler/internal/model"
	"github.com/sells-group/edgar-profiler/internal/parsers"
)

// firstWave returns the seven independent extractor tasks. Key persons run
// afterwards because they read three of these results.
func (a *Aggregator) firstWave(bundle *model.Bundle, now time.Time) []task {
	return []task{
		{"filing_metadata", func(ctx context.Context) func(*model.Profile) {
			md := parsers.FilingMetadata(bundle)
			return func(p *model.Profile) { p.FilingMetadata = *md }
		}},
		{"material_events", func(ctx context.Context) func(*model.Profile) {
			ev := parsers.Analyze8K(bundle.FilingsOfType(model.Form8K), now)
			return func(p *model.Profile) { p.MaterialEvents = *ev }
		}},
		{"corporate_governance", a.governanceTask(bundle)},
		{"insider_trading", a.insiderTask(bundle)},
		{"institutional_ownership", a.institutionalTask(bundle)},
		{"financial_time_series", func(ctx context.Context) func(*model.Profile) {
			if len(bundle.Facts) == 0 {
				return func(p *model.Profile) {
					p.FinancialTimeSeries.Warn("no company facts in bundle")
				}
			}
			fts := parsers.ParseFacts(bundle.Facts)
			return func(p *model.Profile) { p.FinancialTimeSeries = *fts }
		}},
		{"relationships", a.relationshipsTask(bundle, now)},
	}
}

// governanceTask parses proxy statements until one yields usable data.
func (a *Aggregator) governanceTask(bundle *model.Bundle) func(ctx context.Context) func(*model.Profile) {
	return func(ctx context.Context) func(*model.Profile) {
		for _, ref := range bundle.FilingsOfType(model.FormDEF14) {
			body, ok := bundle.Document(ref.Accession)
			if !ok {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			res := a.registry.Parse(model.FormDEF14, body)
			gov, ok := res.(*model.CorporateGovernance)
			if !ok || !gov.Available {
				continue
			}
			return func(p *model.Profile) { p.CorporateGovernance = *gov }
		}
		return func(p *model.Profile) {
			p.CorporateGovernance.Warn("no parseable proxy statement")
		}
	}
}

func (a *Aggregator) insiderTask(bundle *model.Bundle) func(ctx context.Context) func(*model.Profile) {
	return func(ctx context.Context) func(*model.Profile) {
		refs := bundle.FilingsOfType(model.Form4)
		var activity []model.InsiderActivity
		attempted := 0
		for _, ref := range refs {
			body, ok := bundle.Document(ref.Accession)
			if !ok {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			attempted++
			res, ok := a.registry.Parse(model.Form4, body).(*parsers.InsiderResult)
			if !ok || res.Activity == nil {
				continue
			}
			act := *res.Activity
			if act.FiledDate == "" {
				act.FiledDate = ref.FilingDate
			}
			activity = append(activity, act)
		}
		agg := parsers.AggregateInsiderTrading(activity, attempted, len(refs))
		return func(p *model.Profile) { p.InsiderTrading = *agg }
	}
}

func (a *Aggregator) institutionalTask(bundle *model.Bundle) func(ctx context.Context) func(*model.Profile) {
	return func(ctx context.Context) func(*model.Profile) {
		var refs []model.FilingRef
		refs = append(refs, bundle.FilingsOfType(model.FormSC13D)...)
		refs = append(refs, bundle.FilingsOfType(model.FormSC13G)...)

		var holdings []model.InstitutionalHolding
		attempted := 0
		for _, ref := range refs {
			body, ok := bundle.Document(ref.Accession)
			if !ok {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			attempted++
			res, ok := a.registry.Parse(ref.FormType, body).(*parsers.HoldingResult)
			if !ok || res.Holding == nil {
				continue
			}
			h := *res.Holding
			if h.FiledDate == "" {
				h.FiledDate = ref.FilingDate
			}
			holdings = append(holdings, h)
		}
		agg := parsers.AggregateInstitutional(holdings, attempted, len(refs))
		return func(p *model.Profile) { p.InstitutionalOwnership = *agg }
	}
}

// relationshipsTask runs narrative analysis over the cached 10-K/10-Q bodies
// and feeds the retained section text into the relationship extractor.
func (a *Aggregator) relationshipsTask(bundle *model.Bundle, now time.Time) func(ctx context.Context) func(*model.Profile) {
	return func(ctx context.Context) func(*model.Profile) {
		var docs []parsers.NarrativeDoc
		for _, form := range []model.FormType{model.Form10K, model.Form10Q} {
			for _, ref := range bundle.FilingsOfType(form) {
				body, ok := bundle.Document(ref.Accession)
				if !ok {
					continue
				}
				docs = append(docs, parsers.NarrativeDoc{Ref: ref, Body: body})
			}
		}
		if ctx.Err() != nil {
			return nil
		}

		narrative := parsers.ParseNarrative(docs)
		rel := a.extractor.Extract(bundle.CIK, narrative.SectionTexts, now)
		return func(p *model.Profile) {
			p.NarrativeAnalysis = *narrative
			p.Relationships = *rel
		}
	}
}

func (a *Aggregator) keyPersonsTask(now time.Time) task {
	months := a.parserCfg.ActiveWindowMonths
	if months <= 0 {
		months = 24
	}
	return task{"key_persons", func(ctx context.Context) func(*model.Profile) {
		return func(p *model.Profile) {
			kp := parsers.AggregateKeyPersons(
				&p.InsiderTrading,
				&p.CorporateGovernance,
				&p.InstitutionalOwnership,
				now,
				months,
			)
			p.KeyPersons = *kp
		}
	}}
}

// buildInterlocks projects the profile's executives and directors into
// cross-company interlock documents.
func buildInterlocks(p *model.Profile, now time.Time) []model.Interlock {
	if !p.KeyPersons.Available {
		return nil
	}

	seat := func(role string, kp model.KeyPerson) model.InterlockSeat {
		lastSeen := now
		if d, err := time.Parse("2006-01-02", kp.LastFiling); err == nil {
			lastSeen = d
		}
		return model.InterlockSeat{
			CIK:      p.CIK,
			Ticker:   p.CompanyInfo.Ticker,
			Role:     role,
			Active:   kp.Active,
			LastSeen: lastSeen,
		}
	}

	byName := make(map[string]*model.Interlock)
	add := func(name, role string, kp model.KeyPerson) {
		if name == "" {
			return
		}
		in, ok := byName[name]
		if !ok {
			in = &model.Interlock{PersonName: name, UpdatedAt: now}
			byName[name] = in
		}
		in.MergeSeat(seat(role, kp))
	}
	for _, kp := range p.KeyPersons.Executives {
		role := kp.Title
		if role == "" {
			role = "Executive"
		}
		add(kp.Name, role, kp)
	}
	for _, kp := range p.KeyPersons.BoardMembers {
		add(kp.Name, "Director", kp)
	}

	out := make([]model.Interlock, 0, len(byName))
	for _, in := range byName {
		out = append(out, *in)
	}
	return out
}
