package enums

import "fmt"

// ViewObjectType names the kind of record a view statistic counts.
type ViewObjectType string

const (
	ViewObjectPet        ViewObjectType = "pet"
	ViewObjectLostReport ViewObjectType = "lost_report"
)

func (t ViewObjectType) IsValid() bool {
	return t == ViewObjectPet || t == ViewObjectLostReport
}

func ParseViewObjectType(value string) (ViewObjectType, error) {
	t := ViewObjectType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid view object type %q", value)
	}
	return t, nil
}
