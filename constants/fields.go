package constants

import "strings"

// Sentinels used in place of a field that could not be read.
const (
	NotFound     = "NA"
	NotAvailable = "Not Available"
)

// mergeSentinels are answers the model gives instead of a real value.
var mergeSentinels = map[string]struct{}{
	"na":            {},
	"n/a":           {},
	"not available": {},
	"not visible":   {},
}

// IsSentinel reports whether v is empty or one of the "not found" markers.
func IsSentinel(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return true
	}
	_, ok := mergeSentinels[v]
	return ok
}

// Generic model-path field keys.
const (
	FieldDocumentType       = "documentType"
	FieldDocumentNumber     = "documentNumber"
	FieldDateOfBirthOrIssue = "dateOfBirthorIssue"
	FieldFatherGuardianName = "FatherGuardianName"
	FieldNameAsOnDoc        = "nameAsOnDoc"
	FieldGender             = "Gender"
	FieldAddress            = "Address"
)

// GenericFields is the required key set for the model path, in output order.
var GenericFields = []string{
	FieldDocumentType,
	FieldDocumentNumber,
	FieldDateOfBirthOrIssue,
	FieldFatherGuardianName,
	FieldNameAsOnDoc,
	FieldGender,
	FieldAddress,
}

// GenericLabels maps the bold label tokens the model emits to field keys.
var GenericLabels = map[string]string{
	"**Document Type:**":            FieldDocumentType,
	"**Document Number:**":          FieldDocumentNumber,
	"**Date of Birth/Issue:**":      FieldDateOfBirthOrIssue,
	"**Father's/Guardian's Name:**": FieldFatherGuardianName,
	"**Name as on Document:**":      FieldNameAsOnDoc,
	"**Gender:**":                   FieldGender,
	"**Address:**":                  FieldAddress,
}

// Candidate record columns.
const (
	ColName          = "name"
	ColGender        = "gender"
	ColDateOfBirth   = "date_of_birth"
	ColFathersName   = "fathers_name"
	ColAadharNo      = "aadhar_no"
	ColPanNo         = "pan_no"
	ColStreetAddress = "street_address"
)

// AadhaarFields is the required set for a bundled Aadhaar extraction.
var AadhaarFields = []string{ColName, ColGender, ColDateOfBirth, ColFathersName, ColAadharNo, ColStreetAddress}

// PanFields is the required set for a bundled PAN extraction.
var PanFields = []string{ColName, ColFathersName, ColDateOfBirth, ColPanNo}

// Keys returned by the bundled card extractors.
const (
	FrontFullName    = "Full Name"
	FrontGender      = "Gender"
	FrontDateOfBirth = "Date/Year of Birth"
	FrontAadhaarNo   = "Aadhaar Number"
	BackAddress      = "Address"
	PanFullName      = "Full Name"
	PanParentName    = "Parent's Name"
	PanDateOfBirth   = "Date of Birth"
	PanNumber        = "PAN Number"
)
