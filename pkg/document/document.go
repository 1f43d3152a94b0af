package document

// Document is the registration payload sent to the remote API.
// Field wire names are snake_case and independent of the Go identifiers.
type Document struct {
	Description    Description `json:"description" yaml:"description"`
	DocID          string      `json:"doc_id" yaml:"doc_id"`
	DocStatus      string      `json:"doc_status" yaml:"doc_status"`
	DocType        string      `json:"doc_type" yaml:"doc_type"`
	ImportRequest  bool        `json:"importRequest" yaml:"importRequest"`
	OwnerINN       string      `json:"owner_inn" yaml:"owner_inn"`
	ParticipantINN string      `json:"participant_inn" yaml:"participant_inn"`
	ProducerINN    string      `json:"producer_inn" yaml:"producer_inn"`
	ProductionDate *Date       `json:"production_date" yaml:"production_date"`
	ProductionType string      `json:"production_type" yaml:"production_type"`
	Products       []Product   `json:"products" yaml:"products"`
	RegDate        *Date       `json:"reg_date" yaml:"reg_date"`
	RegNumber      string      `json:"reg_number" yaml:"reg_number"`
}

// Description identifies the participant submitting the document.
type Description struct {
	ParticipantINN string `json:"participantInn" yaml:"participantInn"`
}

// Product is one line item of a Document.
type Product struct {
	CertificateDocument       string `json:"certificate_document" yaml:"certificate_document"`
	CertificateDocumentDate   *Date  `json:"certificate_document_date" yaml:"certificate_document_date"`
	CertificateDocumentNumber string `json:"certificate_document_number" yaml:"certificate_document_number"`
	OwnerINN                  string `json:"owner_inn" yaml:"owner_inn"`
	ProducerINN               string `json:"producer_inn" yaml:"producer_inn"`
	ProductionDate            *Date  `json:"production_date" yaml:"production_date"`
	TnvedCode                 string `json:"tnved_code" yaml:"tnved_code"`
	UitCode                   string `json:"uit_code" yaml:"uit_code"`
	UituCode                  string `json:"uitu_code" yaml:"uitu_code"`
}

// Defaults are the values filled into fields a caller left empty.
// Every default is named here; nothing is baked into construction.
type Defaults struct {
	// DocType is used when Document.DocType is empty.
	DocType string

	// ImportRequest is applied when OverrideImportRequest is set.
	ImportRequest         bool
	OverrideImportRequest bool

	// ProductionDate and RegDate are used when the document's own are nil.
	ProductionDate *Date
	RegDate        *Date
}

// DefaultDocType is the document type used when none is given.
const DefaultDocType = "LP_INTRODUCE_GOODS"

// DefaultDefaults returns the defaults used by the CLI and server.
// Dates are left nil so that absent dates encode as null.
func DefaultDefaults() Defaults {
	return Defaults{
		DocType:               DefaultDocType,
		ImportRequest:         true,
		OverrideImportRequest: true,
	}
}

// Apply fills empty fields of doc from d.
func (d Defaults) Apply(doc *Document) {
	if doc == nil {
		return
	}
	if doc.DocType == "" {
		doc.DocType = d.DocType
	}
	if d.OverrideImportRequest {
		doc.ImportRequest = d.ImportRequest
	}
	if doc.ProductionDate == nil && d.ProductionDate != nil {
		date := *d.ProductionDate
		doc.ProductionDate = &date
	}
	if doc.RegDate == nil && d.RegDate != nil {
		date := *d.RegDate
		doc.RegDate = &date
	}
	if doc.Products == nil {
		doc.Products = []Product{}
	}
}
