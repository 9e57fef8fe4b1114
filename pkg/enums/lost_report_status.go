package enums

import "fmt"

type LostReportStatus string

const (
	LostReportStatusOpen   LostReportStatus = "open"
	LostReportStatusFound  LostReportStatus = "found"
	LostReportStatusClosed LostReportStatus = "closed"
)

var validLostReportStatuses = []LostReportStatus{
	LostReportStatusOpen,
	LostReportStatusFound,
	LostReportStatusClosed,
}

func (s LostReportStatus) String() string {
	return string(s)
}

func (s LostReportStatus) IsValid() bool {
	for _, candidate := range validLostReportStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseLostReportStatus(value string) (LostReportStatus, error) {
	for _, candidate := range validLostReportStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lost report status %q", value)
}

type PetSize string

const (
	PetSizeSmall  PetSize = "small"
	PetSizeMedium PetSize = "medium"
	PetSizeLarge  PetSize = "large"
)

var validPetSizes = []PetSize{PetSizeSmall, PetSizeMedium, PetSizeLarge}

func (s PetSize) IsValid() bool {
	for _, candidate := range validPetSizes {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParsePetSize(value string) (PetSize, error) {
	for _, candidate := range validPetSizes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pet size %q", value)
}
