package audit

import "github.com/rs/zerolog"

// DuplicateChecker groups entries sharing the exact same password.
type DuplicateChecker struct {
	logger zerolog.Logger
}

func NewDuplicateChecker(opts ...Option) *DuplicateChecker {
	o := newOptions(opts)
	return &DuplicateChecker{logger: o.logger}
}

// Check returns one group per password used by two entries or more. Groups are
// ordered by the first entry using the password, paths keep the input order.
func (d *DuplicateChecker) Check(entries Entries) []DuplicateGroup {
	var order []string
	groups := make(map[string]DuplicateGroup)

	for _, e := range entries.withPassword() {
		password := e.Password()
		if _, ok := groups[password]; !ok {
			order = append(order, password)
		}
		groups[password] = append(groups[password], e.Path)
	}

	var duplicated []DuplicateGroup
	for _, password := range order {
		if group := groups[password]; len(group) > 1 {
			d.logger.Debug().Msgf("%d entries share a password", len(group))
			duplicated = append(duplicated, group)
		}
	}
	return duplicated
}
