package enums

import "fmt"

type PetSex string

const (
	PetSexMale   PetSex = "male"
	PetSexFemale PetSex = "female"
)

var validPetSexes = []PetSex{PetSexMale, PetSexFemale}

func (s PetSex) String() string {
	return string(s)
}

func (s PetSex) IsValid() bool {
	for _, candidate := range validPetSexes {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParsePetSex(value string) (PetSex, error) {
	for _, candidate := range validPetSexes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pet sex %q", value)
}
