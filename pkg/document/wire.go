package document

import (
	"bytes"
	"encoding/json"
)

// Unset string fields go on the wire as null rather than "". Decoding is
// unaffected: null and a missing key both leave the field empty.

type wireDocument struct {
	Description    wireDescription `json:"description"`
	DocID          *string         `json:"doc_id"`
	DocStatus      *string         `json:"doc_status"`
	DocType        *string         `json:"doc_type"`
	ImportRequest  bool            `json:"importRequest"`
	OwnerINN       *string         `json:"owner_inn"`
	ParticipantINN *string         `json:"participant_inn"`
	ProducerINN    *string         `json:"producer_inn"`
	ProductionDate *Date           `json:"production_date"`
	ProductionType *string         `json:"production_type"`
	Products       []Product       `json:"products"`
	RegDate        *Date           `json:"reg_date"`
	RegNumber      *string         `json:"reg_number"`
}

type wireDescription struct {
	ParticipantINN *string `json:"participantInn"`
}

type wireProduct struct {
	CertificateDocument       *string `json:"certificate_document"`
	CertificateDocumentDate   *Date   `json:"certificate_document_date"`
	CertificateDocumentNumber *string `json:"certificate_document_number"`
	OwnerINN                  *string `json:"owner_inn"`
	ProducerINN               *string `json:"producer_inn"`
	ProductionDate            *Date   `json:"production_date"`
	TnvedCode                 *string `json:"tnved_code"`
	UitCode                   *string `json:"uit_code"`
	UituCode                  *string `json:"uitu_code"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MarshalJSON writes d with empty strings as null.
func (d Document) MarshalJSON() ([]byte, error) {
	return marshal(wireDocument{
		Description:    wireDescription{ParticipantINN: nullable(d.Description.ParticipantINN)},
		DocID:          nullable(d.DocID),
		DocStatus:      nullable(d.DocStatus),
		DocType:        nullable(d.DocType),
		ImportRequest:  d.ImportRequest,
		OwnerINN:       nullable(d.OwnerINN),
		ParticipantINN: nullable(d.ParticipantINN),
		ProducerINN:    nullable(d.ProducerINN),
		ProductionDate: d.ProductionDate,
		ProductionType: nullable(d.ProductionType),
		Products:       d.Products,
		RegDate:        d.RegDate,
		RegNumber:      nullable(d.RegNumber),
	})
}

// MarshalJSON writes p with empty strings as null.
func (p Product) MarshalJSON() ([]byte, error) {
	return marshal(wireProduct{
		CertificateDocument:       nullable(p.CertificateDocument),
		CertificateDocumentDate:   p.CertificateDocumentDate,
		CertificateDocumentNumber: nullable(p.CertificateDocumentNumber),
		OwnerINN:                  nullable(p.OwnerINN),
		ProducerINN:               nullable(p.ProducerINN),
		ProductionDate:            p.ProductionDate,
		TnvedCode:                 nullable(p.TnvedCode),
		UitCode:                   nullable(p.UitCode),
		UituCode:                  nullable(p.UituCode),
	})
}

// marshal encodes v without HTML escaping, matching JSONSerializer.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
