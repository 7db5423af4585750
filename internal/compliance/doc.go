// Package compliance turns normalized HR, role and curriculum records into
// per-employee compliance records and weighted rollups.
//
// A run is a straight line: requirements are resolved per employee from
// their roles, each employee is evaluated against their curriculum status
// (in parallel, one task per employee) and the records are rolled up per
// organization, per company and overall. Percentages are always weighted
// by the number of required courses; groups with nothing required report
// "not applicable" rather than zero.
package compliance
