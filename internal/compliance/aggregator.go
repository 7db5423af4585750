package compliance

import (
	"fmt"
	"sort"
	"strings"

	"trainingtracker/pkg/contracts/domain"
)

// Overall rollup identity
const (
	OverallID   = "ALL"
	OverallName = "All companies"
)

// Rollup holds the aggregates of one run, each slice sorted by identifier
type Rollup struct {
	Units         []domain.AggregateRecord `json:"units"`
	Organizations []domain.AggregateRecord `json:"organizations"`
	Companies     []domain.AggregateRecord `json:"companies"`
	Overall       domain.AggregateRecord   `json:"overall"`
}

type accumulator struct {
	rec      domain.AggregateRecord
	warnings map[string]int
}

func newAccumulator(level domain.Level, id, name, orgID, companyID string) *accumulator {
	return &accumulator{
		rec: domain.AggregateRecord{
			Level:     level,
			ID:        id,
			Name:      name,
			OrgID:     orgID,
			CompanyID: companyID,
		},
		warnings: make(map[string]int),
	}
}

// name keeps the first non-empty display name seen for the group
func (a *accumulator) name(name string) {
	if a.rec.Name == a.rec.ID && name != "" {
		a.rec.Name = name
	}
}

func (a *accumulator) add(r domain.ComplianceRecord) {
	a.rec.Employees++
	a.rec.Required += r.Required
	a.rec.Completed += r.Completed
	a.rec.Pending += r.Pending
	a.rec.Expired += r.Expired
	a.rec.Overdue += r.Overdue

	if r.Applicable() {
		a.rec.ApplicableEmployees++
		if r.FullyCompliant() {
			a.rec.FullyCompliant++
		}
		switch domain.SegmentOf(r.Percentage) {
		case domain.SegmentHigh:
			a.rec.Segments.High++
		case domain.SegmentMedium:
			a.rec.Segments.Medium++
		case domain.SegmentLow:
			a.rec.Segments.Low++
		}
	}

	for _, w := range r.Warnings {
		code, _, _ := strings.Cut(w, ":")
		a.warnings[code]++
	}
}

func (a *accumulator) finish() domain.AggregateRecord {
	rec := a.rec
	rec.Percentage = domain.Ratio(rec.Completed, rec.Required)
	rec.FullComplianceRate = domain.Ratio(rec.FullyCompliant, rec.ApplicableEmployees)
	rec.Warnings = summarizeWarnings(a.warnings)
	return rec
}

// summarizeWarnings renders per-code counts as "CODE (n)", sorted by code
func summarizeWarnings(counts map[string]int) []string {
	if len(counts) == 0 {
		return nil
	}
	out := make([]string, 0, len(counts))
	for code, n := range counts {
		out = append(out, fmt.Sprintf("%s (%d)", code, n))
	}
	sort.Strings(out)
	return out
}

// Aggregate rolls employee records up per unit, per organization, per
// company and overall. Percentages are weighted by required course counts.
func Aggregate(records []domain.ComplianceRecord) Rollup {
	type orgRef struct{ company, org string }
	type unitRef struct{ company, org, unit string }

	units := make(map[unitRef]*accumulator)
	orgs := make(map[orgRef]*accumulator)
	companies := make(map[string]*accumulator)
	overall := newAccumulator(domain.LevelOverall, OverallID, OverallName, "", "")

	ordered := make([]domain.ComplianceRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].EmployeeID < ordered[j].EmployeeID })

	for _, r := range ordered {
		uref := unitRef{company: r.CompanyID, org: r.OrgID, unit: r.UnitID}
		unit, ok := units[uref]
		if !ok {
			unit = newAccumulator(domain.LevelUnit, r.UnitID, nameOr(r.UnitName, r.UnitID), r.OrgID, r.CompanyID)
			units[uref] = unit
		}
		unit.name(r.UnitName)
		unit.add(r)

		ref := orgRef{company: r.CompanyID, org: r.OrgID}
		org, ok := orgs[ref]
		if !ok {
			org = newAccumulator(domain.LevelOrganization, r.OrgID, nameOr(r.OrgName, r.OrgID), "", r.CompanyID)
			orgs[ref] = org
		}
		org.name(r.OrgName)
		org.add(r)

		company, ok := companies[r.CompanyID]
		if !ok {
			company = newAccumulator(domain.LevelCompany, r.CompanyID, nameOr(r.CompanyName, r.CompanyID), "", "")
			companies[r.CompanyID] = company
		}
		company.name(r.CompanyName)
		company.add(r)

		overall.add(r)
	}

	rollup := Rollup{
		Units:         make([]domain.AggregateRecord, 0, len(units)),
		Organizations: make([]domain.AggregateRecord, 0, len(orgs)),
		Companies:     make([]domain.AggregateRecord, 0, len(companies)),
		Overall:       overall.finish(),
	}
	for _, a := range units {
		rollup.Units = append(rollup.Units, a.finish())
	}
	for _, a := range orgs {
		rollup.Organizations = append(rollup.Organizations, a.finish())
	}
	for _, a := range companies {
		rollup.Companies = append(rollup.Companies, a.finish())
	}
	sort.Slice(rollup.Units, func(i, j int) bool {
		a, b := rollup.Units[i], rollup.Units[j]
		if a.CompanyID != b.CompanyID {
			return a.CompanyID < b.CompanyID
		}
		if a.OrgID != b.OrgID {
			return a.OrgID < b.OrgID
		}
		return a.ID < b.ID
	})
	sort.Slice(rollup.Organizations, func(i, j int) bool {
		a, b := rollup.Organizations[i], rollup.Organizations[j]
		if a.CompanyID != b.CompanyID {
			return a.CompanyID < b.CompanyID
		}
		return a.ID < b.ID
	})
	sort.Slice(rollup.Companies, func(i, j int) bool {
		return rollup.Companies[i].ID < rollup.Companies[j].ID
	})
	return rollup
}

func nameOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
