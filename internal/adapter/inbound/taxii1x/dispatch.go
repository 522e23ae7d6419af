package taxii1x

import (
	"context"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
)

// HandlerFunc processes one decoded TAXII 1.x message body and returns the
// XML-marshalable response value (spec.md §4.9).
type HandlerFunc func(ctx context.Context, hc HandlerContext, body []byte) (any, error)

// registryKey is the (version, message_type) dispatch key, matching the
// original HandlerRegistry's lookup shape.
type registryKey struct {
	version     string
	messageType string
}

// HandlerRegistry maps (version, message_type) to the handler that serves
// it, grounded on handlers/mod.rs's HandlerRegistry::new().
type HandlerRegistry struct {
	handlers map[registryKey]HandlerFunc
}

// NewHandlerRegistry builds the registry with every message type this
// server supports wired to its handler. TAXII 1.0 has no
// Poll_Fulfillment_Request; requesting it on that version is a dispatch
// failure, same as an unregistered pair.
func NewHandlerRegistry() *HandlerRegistry {
	r := &HandlerRegistry{handlers: make(map[registryKey]HandlerFunc)}

	r.register10(MsgDiscoveryRequest, handleDiscovery)
	r.register10(MsgCollectionInformationRequest, handleCollectionInformation)
	r.register10(MsgPollRequest, handlePoll)
	r.register10(MsgInboxMessage, handleInbox)
	r.register10(MsgManageFeedSubscriptionRequest, handleSubscription)

	r.register11(MsgDiscoveryRequest, handleDiscovery)
	r.register11(MsgCollectionInformationRequest, handleCollectionInformation)
	r.register11(MsgPollRequest, handlePoll)
	r.register11(MsgPollFulfillmentRequest, handlePollFulfillment)
	r.register11(MsgInboxMessage, handleInbox)
	r.register11(MsgManageCollectionSubscription, handleSubscription)

	return r
}

func (r *HandlerRegistry) register10(messageType string, fn HandlerFunc) {
	r.handlers[registryKey{version: VIDMessageXML10, messageType: messageType}] = fn
}

func (r *HandlerRegistry) register11(messageType string, fn HandlerFunc) {
	r.handlers[registryKey{version: VIDMessageXML11, messageType: messageType}] = fn
}

// Dispatch looks up the handler for (version, messageType) and invokes it.
// An unregistered pair is a Failure, surfaced as a Status_Message by the
// caller rather than an HTTP error (spec.md §4.9, §7).
func (r *HandlerRegistry) Dispatch(ctx context.Context, hc HandlerContext, version, messageType string, body []byte) (any, error) {
	fn, ok := r.handlers[registryKey{version: version, messageType: messageType}]
	if !ok {
		return nil, apperr.Newf(apperr.InvalidInput, "message not supported in this protocol version: %s", messageType)
	}
	return fn(ctx, hc, body)
}

// rootElementName reports the XML root element found in body, without
// decoding it fully, so the caller can pick a HandlerFunc before
// unmarshaling into a concrete message type.
func rootElementName(body []byte) (string, error) {
	name, err := peekXMLRoot(body)
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidInput, "malformed XML", err)
	}
	if name == "" {
		return "", apperr.New(apperr.InvalidInput, "empty request body")
	}
	return name, nil
}
