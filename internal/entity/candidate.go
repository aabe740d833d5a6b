package entity

import (
	"time"

	"github.com/joseph-ayodele/kyc-extractor/constants"
)

// AadhaarDetails is an Aadhaar extraction as returned to the reviewer and accepted back for saving.
type AadhaarDetails struct {
	Name          string  `json:"name"`
	Gender        string  `json:"gender"`
	DateOfBirth   *string `json:"date_of_birth"`
	FathersName   string  `json:"fathers_name"`
	AadharNo      string  `json:"aadhar_no"`
	StreetAddress string  `json:"street_address"`
}

// Fields returns the record keyed by column, for the completion gate and the store.
func (d AadhaarDetails) Fields() map[string]*string {
	return map[string]*string{
		constants.ColName:          &d.Name,
		constants.ColGender:        &d.Gender,
		constants.ColDateOfBirth:   d.DateOfBirth,
		constants.ColFathersName:   &d.FathersName,
		constants.ColAadharNo:      &d.AadharNo,
		constants.ColStreetAddress: &d.StreetAddress,
	}
}

// PanDetails is a PAN extraction as returned to the reviewer and accepted back for saving.
type PanDetails struct {
	Name        string  `json:"name"`
	FathersName string  `json:"fathers_name"`
	DateOfBirth *string `json:"date_of_birth"`
	PanNo       string  `json:"pan_no"`
}

func (d PanDetails) Fields() map[string]*string {
	return map[string]*string{
		constants.ColName:        &d.Name,
		constants.ColFathersName: &d.FathersName,
		constants.ColDateOfBirth: d.DateOfBirth,
		constants.ColPanNo:       &d.PanNo,
	}
}

// Candidate is one stored row. A row may carry an Aadhaar number, a PAN number, or both.
type Candidate struct {
	ID            int64     `json:"id"`
	Name          *string   `json:"name,omitempty"`
	Gender        *string   `json:"gender,omitempty"`
	DateOfBirth   *string   `json:"date_of_birth,omitempty"`
	FathersName   *string   `json:"fathers_name,omitempty"`
	AadharNo      *string   `json:"aadhar_no,omitempty"`
	PanNo         *string   `json:"pan_no,omitempty"`
	StreetAddress *string   `json:"street_address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
