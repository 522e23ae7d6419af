// Package taxii1x implements the TAXII 1.x XML message surface: header
// validation, message routing by (version, message_type), and the
// Discovery/CollectionInformation/Poll/PollFulfillment/Inbox/Subscription
// handlers (spec.md §4.9).
package taxii1x

import (
	"net/http"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
)

// Namespace/version URNs (spec.md §4.9, §6).
const (
	NSTaxii10 = "http://taxii.mitre.org/messages/taxii_xml_binding-1"
	NSTaxii11 = "http://taxii.mitre.org/messages/taxii_xml_binding-1.1"

	VIDMessageXML10 = "urn:taxii.mitre.org:message:xml:1.0"
	VIDMessageXML11 = "urn:taxii.mitre.org:message:xml:1.1"

	VIDServices10 = "urn:taxii.mitre.org:services:1.0"
	VIDServices11 = "urn:taxii.mitre.org:services:1.1"

	VIDProtocolHTTP10  = "urn:taxii.mitre.org:protocol:http:1.0"
	VIDProtocolHTTPS10 = "urn:taxii.mitre.org:protocol:https:1.0"
)

// TaxiiHeaders are the TAXII-specific headers extracted from a request
// (spec.md §4.9).
type TaxiiHeaders struct {
	ContentType string // X-TAXII-Content-Type
	Services    string // X-TAXII-Services
	Accept      string // X-TAXII-Accept, optional
	Protocol    string // X-TAXII-Protocol, optional
}

// extractHeaders reads the TAXII-specific headers off r. It does not
// validate their values; call Validate for that.
func extractHeaders(r *http.Request) TaxiiHeaders {
	return TaxiiHeaders{
		ContentType: r.Header.Get("X-TAXII-Content-Type"),
		Services:    r.Header.Get("X-TAXII-Services"),
		Accept:      r.Header.Get("X-TAXII-Accept"),
		Protocol:    r.Header.Get("X-TAXII-Protocol"),
	}
}

// requiredHTTPHeaders reports a missing Content-Type, X-TAXII-Content-Type,
// or X-TAXII-Services header (spec.md §4.9). Missing headers are a Failure,
// surfaced as a Status_Message by the caller, not an HTTP error.
func requiredHTTPHeaders(r *http.Request) error {
	if r.Header.Get("Content-Type") == "" {
		return apperr.New(apperr.InvalidInput, "Content-Type header was not specified")
	}
	if r.Header.Get("X-TAXII-Content-Type") == "" {
		return apperr.New(apperr.InvalidInput, "X-TAXII-Content-Type header was not specified")
	}
	if r.Header.Get("X-TAXII-Services") == "" {
		return apperr.New(apperr.InvalidInput, "X-TAXII-Services header was not specified")
	}
	return nil
}

// Validate10 checks h against the TAXII 1.0 bindings.
func (h TaxiiHeaders) Validate10() error {
	if h.Services != VIDServices10 {
		return apperr.Newf(apperr.InvalidInput, "the specified value of X-TAXII-Services is not supported: %s", h.Services)
	}
	if h.ContentType != VIDMessageXML10 {
		return apperr.New(apperr.InvalidInput, "the specified value of X-TAXII-Content-Type is not supported")
	}
	if h.Accept != "" && h.Accept != VIDMessageXML10 {
		return apperr.New(apperr.InvalidInput, "the specified value of X-TAXII-Accept is not supported")
	}
	return nil
}

// Validate11 checks h against the TAXII 1.1 bindings.
func (h TaxiiHeaders) Validate11() error {
	if h.Services != VIDServices11 {
		return apperr.Newf(apperr.InvalidInput, "the specified value of X-TAXII-Services is not supported: %s", h.Services)
	}
	if h.ContentType != VIDMessageXML11 {
		return apperr.New(apperr.InvalidInput, "the specified value of X-TAXII-Content-Type is not supported")
	}
	if h.Accept != "" && h.Accept != VIDMessageXML11 {
		return apperr.New(apperr.InvalidInput, "the specified value of X-TAXII-Accept is not supported")
	}
	return nil
}

// Version reports which TAXII version h.ContentType selects, or "" if
// neither bound.
func (h TaxiiHeaders) Version() string {
	switch h.ContentType {
	case VIDMessageXML10:
		return VIDMessageXML10
	case VIDMessageXML11:
		return VIDMessageXML11
	default:
		return ""
	}
}
