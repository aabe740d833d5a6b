package constants

import (
	"strings"
)

// DocumentType is the closed set of outcomes the classifier can produce.
type DocumentType string

const (
	AadhaarCard      DocumentType = "Aadhaar Card"
	PanCard          DocumentType = "PAN Card"
	CredenceDocument DocumentType = "Credence Document"
	PaySlip          DocumentType = "Pay Slip"
	Result           DocumentType = "Result"
	Unknown          DocumentType = "Unknown Document"
)

var allDocumentTypes = []DocumentType{
	AadhaarCard,
	PanCard,
	CredenceDocument,
	PaySlip,
	Result,
	Unknown,
}

func (t DocumentType) String() string {
	return string(t)
}

// IsCard reports whether the type is extracted as a single merged record.
func (t DocumentType) IsCard() bool {
	return t == AadhaarCard || t == PanCard
}

// IsPaged reports whether the type is extracted one page at a time.
func (t DocumentType) IsPaged() bool {
	return t == CredenceDocument || t == PaySlip || t == Result
}

func AsStringSlice() []string {
	result := make([]string, len(allDocumentTypes))
	for i, t := range allDocumentTypes {
		result[i] = string(t)
	}
	return result
}

// ParseDocumentType maps a display name (any case) back to its DocumentType.
// Anything unrecognised is Unknown.
func ParseDocumentType(input string) (DocumentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Unknown, false
	}
	for _, t := range allDocumentTypes {
		if normalized == strings.ToLower(string(t)) {
			return t, true
		}
	}
	return Unknown, false
}
