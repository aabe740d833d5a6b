package parser

import (
	"reflect"
	"testing"

	"github.com/joseph-ayodele/kyc-extractor/constants"
)

var nameAddress = LabelMap{"**Name:**": "Name", "**Address:**": "Address"}

func TestLabelParser_Parse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		labels LabelMap
		want   map[string]string
	}{
		{
			name:   "label value and continuation section",
			raw:    "**Name:** John Doe\n**Address:**\nLine1\nLine2",
			labels: nameAddress,
			want:   map[string]string{"Name": "John Doe", "Address": "Line1 Line2"},
		},
		{
			name:   "missing label becomes NA",
			raw:    "**Name:** Jane",
			labels: nameAddress,
			want:   map[string]string{"Name": "Jane", "Address": "NA"},
		},
		{
			name:   "garbage yields only sentinels",
			raw:    "I cannot read this image.",
			labels: nameAddress,
			want:   map[string]string{"Name": "NA", "Address": "NA"},
		},
		{
			name:   "empty input",
			raw:    "",
			labels: nameAddress,
			want:   map[string]string{"Name": "NA", "Address": "NA"},
		},
		{
			name:   "bulleted labels, CRLF and no space after marker",
			raw:    "* **Name:**Ravi Kumar\r\n* **Address:** 12 MG Road",
			labels: nameAddress,
			want:   map[string]string{"Name": "Ravi Kumar", "Address": "12 MG Road"},
		},
		{
			name:   "unknown heading closes the open section",
			raw:    "**Address:**\nFlat 4\n**Notes:**\nignored line",
			labels: nameAddress,
			want:   map[string]string{"Name": "NA", "Address": "Flat 4"},
		},
		{
			name:   "a later label line ends the section",
			raw:    "**Address:**\nFlat 4\nHyderabad\n**Name:** A B",
			labels: nameAddress,
			want:   map[string]string{"Name": "A B", "Address": "Flat 4 Hyderabad"},
		},
		{
			name:   "unlabeled lines before any section are ignored",
			raw:    "Here is the data\n**Name:** X",
			labels: nameAddress,
			want:   map[string]string{"Name": "X", "Address": "NA"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LabelParser{}.Parse(tt.raw, tt.labels)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLabelParser_GenericLabels(t *testing.T) {
	raw := `Here are the extracted details:

**Document Type:** Aadhaar card
**Document Number:** 1234 5678 9012
**Date of Birth/Issue:** 25/03/1990
**Name as on Document:** Ravi Kumar
**Father's/Guardian's Name:** N/A
**Gender:** Male
**Address:**
S/O Suresh Kumar, 4-12 Gandhi Nagar,
Hyderabad 500001`

	got := LabelParser{}.Parse(raw, LabelMap(constants.GenericLabels))
	want := map[string]string{
		constants.FieldDocumentType:       "Aadhaar card",
		constants.FieldDocumentNumber:     "1234 5678 9012",
		constants.FieldDateOfBirthOrIssue: "25/03/1990",
		constants.FieldNameAsOnDoc:        "Ravi Kumar",
		constants.FieldFatherGuardianName: "N/A",
		constants.FieldGender:             "Male",
		constants.FieldAddress:            "S/O Suresh Kumar, 4-12 Gandhi Nagar, Hyderabad 500001",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %v, want %v", got, want)
	}
}

func TestSectionParser_Parse(t *testing.T) {
	raw := `**Personal Details**
Name: Priya Sharma
**Date of Birth:** 01/01/1995
**Certification**
I hereby certify that the above
information is true.
Declaration:
Signed at Pune`

	got := SectionParser{}.Parse(raw, nil)
	want := map[string]string{
		"Personal Details": "",
		"Name":             "Priya Sharma",
		"Date of Birth":    "01/01/1995",
		"Certification":    "I hereby certify that the above information is true.",
		"Declaration":      "Signed at Pune",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %v, want %v", got, want)
	}
}

func TestSectionParser_KnownLabelsStillDefault(t *testing.T) {
	got := SectionParser{}.Parse("Company: Acme", nameAddress)
	if got["Name"] != constants.NotFound || got["Address"] != constants.NotFound {
		t.Errorf("expected sentinels for unknown labels, got %v", got)
	}
	if got["Company"] != "Acme" {
		t.Errorf("expected free key Company, got %v", got)
	}
}

func TestJSONParser_Parse(t *testing.T) {
	raw := "Here is the JSON:\n```json\n" + `{
  "Employee Name": "Asha Rao",
  "Net Pay Amount": {"numeric": 45210, "words": "Forty five thousand"},
  "earnings": [{"BASIC": "20000"}],
  "Gender": null
}` + "\n```"

	labels := LabelMap{"**Employee Name:**": "employeeName", "**Gender:**": "gender"}
	got := JSONParser{}.Parse(raw, labels)

	checks := map[string]string{
		"employeeName":           "Asha Rao",
		"gender":                 constants.NotFound,
		"Net Pay Amount.numeric": "45210",
		"Net Pay Amount.words":   "Forty five thousand",
		"earnings[0].BASIC":      "20000",
	}
	for k, want := range checks {
		if got[k] != want {
			t.Errorf("%s = %q, want %q", k, got[k], want)
		}
	}
}

func TestJSONParser_NoObject(t *testing.T) {
	got := JSONParser{}.Parse("no braces { here", nameAddress)
	want := map[string]string{"Name": "NA", "Address": "NA"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %v, want %v", got, want)
	}
}

func TestParsersSatisfyInterface(t *testing.T) {
	for _, p := range []Parser{LabelParser{}, SectionParser{}, JSONParser{}} {
		if got := p.Parse("", nameAddress); len(got) != 2 {
			t.Errorf("%T: expected both keys defaulted, got %v", p, got)
		}
	}
}
