package taxii1x

import "encoding/xml"

// Message type strings used as the second half of a (version, message_type)
// dispatch key (spec.md §4.9).
const (
	MsgDiscoveryRequest               = "Discovery_Request"
	MsgDiscoveryResponse              = "Discovery_Response"
	MsgCollectionInformationRequest   = "Collection_Information_Request"
	MsgCollectionInformationResponse  = "Collection_Information_Response"
	MsgFeedInformationRequest         = "Feed_Information_Request"
	MsgFeedInformationResponse        = "Feed_Information_Response"
	MsgPollRequest                    = "Poll_Request"
	MsgPollResponse                   = "Poll_Response"
	MsgPollFulfillmentRequest         = "Poll_Fulfillment_Request"
	MsgInboxMessage                   = "Inbox_Message"
	MsgStatusMessage                  = "Status_Message"
	MsgManageCollectionSubscription   = "Manage_Collection_Subscription_Request"
	MsgManageSubscriptionResponse     = "Manage_Collection_Subscription_Response"
	MsgManageFeedSubscriptionRequest  = "Manage_Feed_Subscription_Request"
	MsgManageFeedSubscriptionResponse = "Manage_Feed_Subscription_Response"
)

// ContentBinding is the wire form of a content binding, with subtypes only
// meaningful in TAXII 1.1 (spec.md §4.9).
type ContentBinding struct {
	BindingID string    `xml:"binding_id,attr"`
	Subtype   []Subtype `xml:"Subtype"`
}

// Subtype is a TAXII 1.1 content binding subtype.
type Subtype struct {
	SubtypeID string `xml:"subtype_id,attr"`
}

// RecordCount carries a poll response's item count and whether it is
// partial (more parts available via poll fulfillment).
type RecordCount struct {
	PartialCount bool  `xml:"partial_count,attr"`
	Count        int64 `xml:",chardata"`
}

// StatusDetail is one named detail value attached to a Status_Message.
type StatusDetail struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// StatusMessage is the TAXII error/acknowledgement envelope (spec.md §4.9,
// §7): errors on this surface are returned inside a 200 OK response rather
// than as an HTTP error status.
type StatusMessage struct {
	XMLName        xml.Name       `xml:"Status_Message"`
	MessageID      string         `xml:"message_id,attr"`
	InResponseTo   string         `xml:"in_response_to,attr"`
	StatusType     string         `xml:"status_type,attr"`
	StatusDetail   []StatusDetail `xml:"Status_Detail"`
	Message        string         `xml:"Message,omitempty"`
}

// DiscoveryRequest is the body of a Discovery_Request message.
type DiscoveryRequest struct {
	XMLName   xml.Name `xml:"Discovery_Request"`
	MessageID string   `xml:"message_id,attr"`
}

// ServiceInstance describes one advertised service in a Discovery_Response.
type ServiceInstance struct {
	ServiceType       string   `xml:"service_type,attr"`
	Services          string   `xml:"services,attr,omitempty"`
	ProtocolBinding   string   `xml:"Protocol_Binding"`
	Address           string   `xml:"Address"`
	MessageBinding    []string `xml:"Message_Binding"`
	Available         *bool    `xml:"available,attr,omitempty"`
	Message           string   `xml:"Message,omitempty"`
}

// DiscoveryResponse lists the services a TAXII 1.x server advertises.
type DiscoveryResponse struct {
	XMLName         xml.Name          `xml:"Discovery_Response"`
	MessageID       string            `xml:"message_id,attr"`
	InResponseTo    string            `xml:"in_response_to,attr"`
	ServiceInstance []ServiceInstance `xml:"Service_Instance"`
}

// CollectionInformationRequest asks for the collections a service exposes.
type CollectionInformationRequest struct {
	XMLName   xml.Name `xml:"Collection_Information_Request"`
	MessageID string   `xml:"message_id,attr"`
}

// CollectionInformation describes one collection (named Feed in TAXII 1.0).
type CollectionInformation struct {
	CollectionName        string           `xml:"collection_name,attr"`
	CollectionType        string           `xml:"collection_type,attr,omitempty"`
	Available             bool             `xml:"available,attr"`
	Description            string          `xml:"Description,omitempty"`
	ContentBinding        []ContentBinding `xml:"Content_Binding"`
	PollingServiceAddress []string         `xml:"Polling_Service_Address,omitempty"`
}

// CollectionInformationResponse lists the collections a service exposes.
type CollectionInformationResponse struct {
	XMLName                xml.Name                 `xml:"Collection_Information_Response"`
	MessageID               string                   `xml:"message_id,attr"`
	InResponseTo            string                   `xml:"in_response_to,attr"`
	CollectionInformation   []CollectionInformation  `xml:"Collection"`
}

// PollRequest asks for content from one collection, optionally bounded by
// a time window and filtered by content binding (spec.md §4.9).
type PollRequest struct {
	XMLName                     xml.Name         `xml:"Poll_Request"`
	MessageID                   string           `xml:"message_id,attr"`
	CollectionName              string           `xml:"collection_name,attr"`
	SubscriptionID              string           `xml:"Subscription_ID,omitempty"`
	ExclusiveBeginTimestampLabel string          `xml:"Exclusive_Begin_Timestamp_Label,omitempty"`
	InclusiveEndTimestampLabel  string           `xml:"Inclusive_End_Timestamp_Label,omitempty"`
	ContentBinding              []ContentBinding `xml:"Content_Binding"`
}

// ContentBlock is one piece of content in a poll response or inbox message.
type ContentBlock struct {
	ContentBinding ContentBinding `xml:"Content_Binding"`
	Content        string         `xml:"Content"`
	TimestampLabel string         `xml:"Timestamp_Label,omitempty"`
	Message        string         `xml:"Message,omitempty"`
}

// PollResponse returns content blocks matching a PollRequest, possibly
// paginated across multiple Poll_Fulfillment_Request calls.
type PollResponse struct {
	XMLName                     xml.Name       `xml:"Poll_Response"`
	MessageID                   string         `xml:"message_id,attr"`
	InResponseTo                string         `xml:"in_response_to,attr"`
	CollectionName              string         `xml:"collection_name,attr"`
	ResultID                    string         `xml:"result_id,attr,omitempty"`
	ResultPartNumber            int            `xml:"result_part_number,attr,omitempty"`
	More                        bool           `xml:"more,attr,omitempty"`
	ExclusiveBeginTimestampLabel string        `xml:"Exclusive_Begin_Timestamp_Label,omitempty"`
	InclusiveEndTimestampLabel  string         `xml:"Inclusive_End_Timestamp_Label,omitempty"`
	RecordCount                 *RecordCount   `xml:"Record_Count,omitempty"`
	ContentBlock                []ContentBlock `xml:"Content_Block"`
}

// PollFulfillmentRequest asks for a subsequent part of an already-issued
// poll result set (spec.md §4.9, TAXII 1.1 only).
type PollFulfillmentRequest struct {
	XMLName           xml.Name `xml:"Poll_Fulfillment_Request"`
	MessageID         string   `xml:"message_id,attr"`
	CollectionName    string   `xml:"collection_name,attr"`
	ResultID          string   `xml:"result_id,attr"`
	ResultPartNumber  int      `xml:"result_part_number,attr,omitempty"`
}

// InboxMessage pushes content blocks to the server.
type InboxMessage struct {
	XMLName                xml.Name       `xml:"Inbox_Message"`
	MessageID              string         `xml:"message_id,attr"`
	DestinationCollection  []string       `xml:"Destination_Collection_Name,omitempty"`
	ContentBlock           []ContentBlock `xml:"Content_Block"`
}

// SubscriptionRequest is the TAXII 1.1 Manage_Collection_Subscription_Request
// body.
type SubscriptionRequest struct {
	XMLName         xml.Name `xml:"Manage_Collection_Subscription_Request"`
	MessageID       string   `xml:"message_id,attr"`
	CollectionName  string   `xml:"collection_name,attr"`
	Action          string   `xml:"action,attr"`
	SubscriptionID  string   `xml:"Subscription_ID,omitempty"`
}

// SubscriptionInstance reports one subscription's state.
type SubscriptionInstance struct {
	SubscriptionID string `xml:"Subscription_ID"`
	Status         string `xml:"Status"`
}

// SubscriptionResponse answers a SubscriptionRequest.
type SubscriptionResponse struct {
	XMLName              xml.Name               `xml:"Manage_Collection_Subscription_Response"`
	MessageID             string                 `xml:"message_id,attr"`
	InResponseTo           string                 `xml:"in_response_to,attr"`
	CollectionName         string                 `xml:"collection_name,attr"`
	SubscriptionInstance   []SubscriptionInstance `xml:"Subscription_Instance"`
}
