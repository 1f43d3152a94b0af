package document

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var dateComparer = cmp.Comparer(func(a, b Date) bool { return a.Equal(b.Time) })

func TestSerialize_NullProductionDate(t *testing.T) {
	doc := Document{DocID: "42", ProductionDate: nil}

	out, err := JSONSerializer{}.Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatalf("output is not a JSON object: %v", err)
	}
	if got := string(fields["production_date"]); got != "null" {
		t.Errorf("production_date = %s, want null", got)
	}
	if got := string(fields["reg_date"]); got != "null" {
		t.Errorf("reg_date = %s, want null", got)
	}
}

func TestSerialize_DateLayout(t *testing.T) {
	doc := Document{
		ProductionDate: NewDate(2020, time.January, 23),
		Products: []Product{{
			UitCode:                 "010463003407001221",
			CertificateDocumentDate: NewDate(2019, time.December, 1),
		}},
	}

	out, err := JSONSerializer{}.Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	for _, want := range []string{`"production_date":"2020-01-23"`, `"certificate_document_date":"2019-12-01"`, `"production_date":null`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSerialize_EmptyStringsAreNull(t *testing.T) {
	doc := Document{
		DocID:    "42",
		Products: []Product{{UitCode: "010463003407001221"}},
	}

	out, err := JSONSerializer{}.Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	for _, want := range []string{
		`"doc_id":"42"`, `"owner_inn":null`, `"doc_status":null`, `"reg_number":null`,
		`"description":{"participantInn":null}`, `"importRequest":false`,
		`"uit_code":"010463003407001221"`, `"tnved_code":null`,
	} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}

	var back Document
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(doc, back, dateComparer); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSerialize_WireNames(t *testing.T) {
	out, err := JSONSerializer{}.Serialize(Document{})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"description", "doc_id", "doc_status", "doc_type", "importRequest",
		"owner_inn", "participant_inn", "producer_inn", "production_date",
		"production_type", "products", "reg_date", "reg_number",
	}
	if len(fields) != len(want) {
		t.Errorf("got %d fields, want %d", len(fields), len(want))
	}
	for _, name := range want {
		if _, ok := fields[name]; !ok {
			t.Errorf("missing wire field %q", name)
		}
	}
}

func TestDefaultsApply(t *testing.T) {
	regDate := NewDate(2020, time.January, 23)
	defaults := DefaultDefaults()
	defaults.RegDate = regDate

	doc := &Document{DocID: "1"}
	defaults.Apply(doc)

	want := &Document{
		DocID:         "1",
		DocType:       DefaultDocType,
		ImportRequest: true,
		RegDate:       NewDate(2020, time.January, 23),
		Products:      []Product{},
	}
	if diff := cmp.Diff(want, doc, dateComparer); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}

	// The default date is copied, not shared
	doc.RegDate.Time = doc.RegDate.AddDate(1, 0, 0)
	if regDate.Year() != 2020 {
		t.Error("Apply should not alias the default date")
	}

	explicit := &Document{DocType: "LP_SHIP_GOODS", ProductionDate: NewDate(2021, time.March, 3)}
	defaults.Apply(explicit)
	if explicit.DocType != "LP_SHIP_GOODS" || explicit.ProductionDate.String() != "2021-03-03" {
		t.Errorf("Apply overwrote explicit fields: %+v", explicit)
	}

	Defaults{}.Apply(nil)
}

func TestDecode(t *testing.T) {
	jsonInput := `{
		"description": {"participantInn": "7700000000"},
		"doc_id": "abc",
		"doc_type": "LP_INTRODUCE_GOODS",
		"importRequest": true,
		"production_date": "2020-01-23",
		"reg_date": null,
		"products": [{"uit_code": "u1", "production_date": "2020-01-22"}]
	}`
	yamlInput := `
description:
  participantInn: "7700000000"
doc_id: abc
doc_type: LP_INTRODUCE_GOODS
importRequest: true
production_date: "2020-01-23"
reg_date: null
products:
  - uit_code: u1
    production_date: "2020-01-22"
`
	want := &Document{
		Description:    Description{ParticipantINN: "7700000000"},
		DocID:          "abc",
		DocType:        DefaultDocType,
		ImportRequest:  true,
		ProductionDate: NewDate(2020, time.January, 23),
		Products:       []Product{{UitCode: "u1", ProductionDate: NewDate(2020, time.January, 22)}},
	}

	for name, tc := range map[string]struct {
		input  string
		format Format
	}{
		"json": {jsonInput, FormatJSON},
		"yaml": {yamlInput, FormatYAML},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(strings.NewReader(tc.input), tc.format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(want, got, dateComparer); diff != "" {
				t.Errorf("Decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
	}{
		{"bad date", `{"production_date": "23.01.2020"}`, FormatJSON},
		{"date not string", `{"production_date": 20200123}`, FormatJSON},
		{"unknown field", `{"doc_idd": "x"}`, FormatJSON},
		{"bad yaml date", "production_date: yesterday\n", FormatYAML},
		{"unknown format", `{}`, Format("xml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.input), tt.format); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]Format{
		"doc.json":      FormatJSON,
		"doc.YAML":      FormatYAML,
		"doc.yml":       FormatYAML,
		"no-extension":  FormatJSON,
		"dir/a.b/c.yml": FormatYAML,
	}
	for path, want := range tests {
		if got := FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%q) = %q, want %q", path, got, want)
		}
	}
}
