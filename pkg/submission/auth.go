package submission

import (
	"encoding/base64"

	"github.com/vnykmshr/docgate/pkg/common/validation"
)

// CredentialEncoder turns the caller's signature into an Authorization
// header value.
type CredentialEncoder interface {
	Encode(credential string) (string, error)
}

// BasicCredentialEncoder produces "Basic <base64(credential)>".
type BasicCredentialEncoder struct{}

// Encode implements CredentialEncoder. An empty credential is rejected.
func (BasicCredentialEncoder) Encode(credential string) (string, error) {
	if err := validation.ValidateNotEmpty("submission", "credential", credential); err != nil {
		return "", err
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credential)), nil
}
