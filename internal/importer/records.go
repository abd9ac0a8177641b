package importer

import "strings"

// GroupDefinition is one row of the groups source. It exists only for
// the duration of a run; reconciliation turns it into a stored group.
type GroupDefinition struct {
	Code            string
	Name            string
	CoordinatorName string
}

// PersonRecord is one row of the persons source. GroupNames holds the
// full group names the record's abbreviation cells resolved to.
type PersonRecord struct {
	FirstName    string
	Prefix       string
	Surname      string
	DateOfBirth  string
	Street       string
	ZipCode      string
	City         string
	PhoneNumber  string
	EmailAddress string
	GroupNames   []string
}

// FullName joins the present name parts with single spaces. It is the
// key used for cross-phase name matching.
func (r PersonRecord) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.FirstName, r.Prefix, r.Surname} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
