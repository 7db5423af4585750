package normalize

import (
	"sort"
	"strings"
)

// maxGivenTokens bounds how many trailing tokens of a full name may be the
// given names when building match keys
const maxGivenTokens = 3

// nameKey folds a personal name: Key, then dots, dashes and underscores
// become spaces and whitespace is collapsed
func nameKey(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', '-', '_':
			return ' '
		}
		return r
	}, Key(s))
	return strings.Join(strings.Fields(s), " ")
}

// UserKey folds a status user name written as "GIVEN, SURNAMES"
func UserKey(userName string) string {
	s := nameKey(userName)
	given, surname, ok := strings.Cut(s, ",")
	if !ok {
		return s
	}
	return strings.TrimSpace(given) + ", " + strings.TrimSpace(surname)
}

// CandidateUserKeys lists the user keys a roster name written as
// "SURNAMES GIVEN" may appear under. "SANTANA MENDOZA JORGE" yields
// "JORGE, SANTANA MENDOZA", "MENDOZA JORGE, SANTANA".
func CandidateUserKeys(fullName string) []string {
	tokens := strings.Fields(strings.ReplaceAll(nameKey(fullName), ",", " "))
	if len(tokens) < 2 {
		return nil
	}
	limit := min(maxGivenTokens, len(tokens)-1)
	keys := make([]string, 0, limit)
	for n := 1; n <= limit; n++ {
		split := len(tokens) - n
		keys = append(keys, strings.Join(tokens[split:], " ")+", "+strings.Join(tokens[:split], " "))
	}
	return keys
}

// DerivedEmployeeID identifies a roster row that has no identifier column
func DerivedEmployeeID(name, org, unit string) string {
	return nameKey(name) + "|" + Key(org) + "|" + Key(unit)
}

type nameRef struct {
	key  string
	unit string // empty matches any unit
}

// roster indexes normalized employees for status matching
type roster struct {
	byID   map[string]string
	byName map[nameRef][]string
}

func newRoster(size int) *roster {
	return &roster{
		byID:   make(map[string]string, size),
		byName: make(map[nameRef][]string),
	}
}

func (r *roster) add(id, name, unit string) {
	r.byID[Key(id)] = id
	for _, k := range CandidateUserKeys(name) {
		r.index(nameRef{key: k, unit: unit}, id)
		r.index(nameRef{key: k}, id)
	}
}

func (r *roster) index(ref nameRef, id string) {
	for _, existing := range r.byName[ref] {
		if existing == id {
			return
		}
	}
	r.byName[ref] = append(r.byName[ref], id)
}

// byUserName returns the employees a status user name matches within unit.
// A blank unit searches the whole roster.
func (r *roster) byUserName(userName, unit string) []string {
	ids := r.byName[nameRef{key: UserKey(userName), unit: Key(unit)}]
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
