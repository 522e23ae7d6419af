package taxii1x

import (
	"context"
	"encoding/xml"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/signalbus"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii1"
)

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func boolProp(props map[string]any, key string, def bool) bool {
	if v, ok := props[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func stringSliceProp(props map[string]any, key string) []string {
	v, ok := props[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// toServiceInstance renders one advertised service as it appears in a
// Discovery_Response (spec.md §4.9).
func toServiceInstance(svc taxii1.Service) ServiceInstance {
	available := boolProp(svc.Properties, "available", true)
	return ServiceInstance{
		ServiceType:     svc.Type,
		ProtocolBinding: stringProp(svc.Properties, "protocol_binding"),
		Address:         stringProp(svc.Properties, "address"),
		MessageBinding:  stringSliceProp(svc.Properties, "message_bindings"),
		Available:       &available,
		Message:         stringProp(svc.Properties, "description"),
	}
}

// handleDiscovery answers a Discovery_Request by listing every service
// advertised for this server (spec.md §4.9).
func handleDiscovery(ctx context.Context, hc HandlerContext, body []byte) (any, error) {
	var req DiscoveryRequest
	if err := xml.Unmarshal(body, &req); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "malformed Discovery_Request", err)
	}

	services, err := hc.Repo.GetAdvertisedServices(ctx, "")
	if err != nil {
		return nil, err
	}

	resp := DiscoveryResponse{MessageID: req.MessageID, InResponseTo: req.MessageID}
	for _, svc := range services {
		resp.ServiceInstance = append(resp.ServiceInstance, toServiceInstance(svc))
	}
	return resp, nil
}

// toCollectionInformation renders one collection for a
// Collection_Information_Response (spec.md §4.9). The same shape serves
// TAXII 1.0's Feed_Information_Response under the Collection element name,
// since the 1.0 binding is XML-namespace scoped rather than element-name
// scoped here.
func toCollectionInformation(c taxii1.Collection) CollectionInformation {
	ci := CollectionInformation{
		CollectionName: c.Name,
		CollectionType: c.Type,
		Available:      c.Available,
		Description:    c.Description,
	}
	for _, b := range c.Bindings {
		cb := ContentBinding{BindingID: b.BindingID}
		for _, st := range b.Subtypes {
			cb.Subtype = append(cb.Subtype, Subtype{SubtypeID: st})
		}
		ci.ContentBinding = append(ci.ContentBinding, cb)
	}
	return ci
}

// handleCollectionInformation answers a Collection_Information_Request
// (spec.md §4.9).
func handleCollectionInformation(ctx context.Context, hc HandlerContext, body []byte) (any, error) {
	var req CollectionInformationRequest
	if err := xml.Unmarshal(body, &req); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "malformed Collection_Information_Request", err)
	}

	collections, err := hc.Repo.GetCollections(ctx)
	if err != nil {
		return nil, err
	}

	resp := CollectionInformationResponse{MessageID: req.MessageID, InResponseTo: req.MessageID}
	for _, c := range collections {
		resp.CollectionInformation = append(resp.CollectionInformation, toCollectionInformation(c))
	}
	return resp, nil
}

// handleInbox ingests an Inbox_Message's content blocks into their
// destination collections (spec.md §4.9). The message record and every
// content block must persist for the response to report SUCCESS; a failure
// partway through fails the whole message rather than reporting a partial
// success.
func handleInbox(ctx context.Context, hc HandlerContext, body []byte) (any, error) {
	var msg InboxMessage
	if err := xml.Unmarshal(body, &msg); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "malformed Inbox_Message", err)
	}

	inbox := taxii1.InboxMessage{
		MessageID:              msg.MessageID,
		ContentBlockCount:      len(msg.ContentBlock),
		DestinationCollections: msg.DestinationCollection,
		ServiceID:              hc.Service.ID,
	}
	if _, err := hc.Repo.AddInboxMessage(ctx, inbox); err != nil {
		return nil, err
	}
	if hc.Bus != nil {
		hc.Bus.PublishInboxMessageCreated(signalbus.InboxMessageCreated{
			MessageID: msg.MessageID,
			ServiceID: hc.Service.ID,
		})
	}

	for _, cb := range msg.ContentBlock {
		block := taxii1.ContentBlock{
			Content:       cb.Content,
			Binding:       taxii1.ContentBinding{BindingID: cb.ContentBinding.BindingID},
			CollectionIDs: msg.DestinationCollection,
		}
		for _, st := range cb.ContentBinding.Subtype {
			block.Binding.Subtypes = append(block.Binding.Subtypes, st.SubtypeID)
		}
		stored, err := hc.Repo.AddContentBlock(ctx, block)
		if err != nil {
			return nil, err
		}
		if hc.Bus != nil {
			hc.Bus.PublishContentBlockCreated(signalbus.ContentBlockCreated{
				BlockID:       stored.ID,
				CollectionIDs: stored.CollectionIDs,
				ServiceID:     hc.Service.ID,
			})
		}
	}

	return StatusMessage{
		MessageID:    msg.MessageID,
		InResponseTo: msg.MessageID,
		StatusType:   "SUCCESS",
	}, nil
}

// handleSubscription serves Manage_Collection_Subscription_Request (1.1):
// SUBSCRIBE creates or reactivates a subscription, UNSUBSCRIBE/PAUSE/RESUME
// update its status, and STATUS lists existing subscriptions for the
// collection (spec.md §4.9). A 1.0 Manage_Feed_Subscription_Request body
// does not decode into SubscriptionRequest and is answered as InvalidInput.
func handleSubscription(ctx context.Context, hc HandlerContext, body []byte) (any, error) {
	var req SubscriptionRequest
	if err := xml.Unmarshal(body, &req); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "malformed subscription request", err)
	}

	resp := SubscriptionResponse{
		MessageID:      req.MessageID,
		InResponseTo:   req.MessageID,
		CollectionName: req.CollectionName,
	}

	switch req.Action {
	case "SUBSCRIBE":
		sub, err := hc.Repo.UpsertSubscription(ctx, taxii1.Subscription{
			ID:           req.SubscriptionID,
			CollectionID: req.CollectionName,
			ServiceID:    hc.Service.ID,
			Status:       taxii1.SubscriptionActive,
		})
		if err != nil {
			return nil, err
		}
		if hc.Bus != nil {
			hc.Bus.PublishSubscriptionCreated(signalbus.SubscriptionCreated{
				SubscriptionID: sub.ID,
				CollectionName: sub.CollectionID,
			})
		}
		resp.SubscriptionInstance = append(resp.SubscriptionInstance, toSubscriptionInstance(*sub))
	case "UNSUBSCRIBE", "PAUSE", "RESUME":
		status := map[string]taxii1.SubscriptionStatus{
			"UNSUBSCRIBE": taxii1.SubscriptionUnsubscribed,
			"PAUSE":       taxii1.SubscriptionPaused,
			"RESUME":      taxii1.SubscriptionActive,
		}[req.Action]
		sub, err := hc.Repo.UpsertSubscription(ctx, taxii1.Subscription{
			ID:           req.SubscriptionID,
			CollectionID: req.CollectionName,
			ServiceID:    hc.Service.ID,
			Status:       status,
		})
		if err != nil {
			return nil, err
		}
		resp.SubscriptionInstance = append(resp.SubscriptionInstance, toSubscriptionInstance(*sub))
	case "STATUS":
		subs, err := hc.Repo.ListSubscriptions(ctx, req.CollectionName)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			resp.SubscriptionInstance = append(resp.SubscriptionInstance, toSubscriptionInstance(sub))
		}
	default:
		return nil, apperr.Newf(apperr.InvalidInput, "unsupported subscription action: %s", req.Action)
	}

	return resp, nil
}

func toSubscriptionInstance(sub taxii1.Subscription) SubscriptionInstance {
	return SubscriptionInstance{SubscriptionID: sub.ID, Status: string(sub.Status)}
}
