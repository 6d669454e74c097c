// Package messages holds the TAXII 1.1 XML message binding and the codec
// table used to turn request bodies into typed messages.
package messages

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Namespaces of the TAXII 1.1 XML binding and the default query.
const (
	Namespace      = "http://taxii.mitre.org/messages/taxii_xml_binding-1.1"
	QueryNamespace = "http://taxii.mitre.org/query/taxii_default_query-1"
)

// Response types.
const (
	ResponseTypeFull      = "FULL"
	ResponseTypeCountOnly = "COUNT_ONLY"
)

// Service types as advertised in discovery.
const (
	ServiceTypeDiscovery            = "DISCOVERY"
	ServiceTypePoll                 = "POLL"
	ServiceTypeCollectionManagement = "COLLECTION_MANAGEMENT"
	ServiceTypeInbox                = "INBOX"
)

// Subscription actions and statuses.
const (
	ActionSubscribe   = "SUBSCRIBE"
	ActionUnsubscribe = "UNSUBSCRIBE"
	ActionPause       = "PAUSE"
	ActionResume      = "RESUME"
	ActionStatus      = "STATUS"

	SubscriptionActive       = "ACTIVE"
	SubscriptionPaused       = "PAUSED"
	SubscriptionUnsubscribed = "UNSUBSCRIBED"
)

// Kind identifies a message by its root element.
type Kind int

const (
	KindUnknown Kind = iota
	KindDiscoveryRequest
	KindDiscoveryResponse
	KindCollectionInformationRequest
	KindCollectionInformationResponse
	KindManageCollectionSubscriptionRequest
	KindManageCollectionSubscriptionResponse
	KindPollRequest
	KindPollResponse
	KindPollFulfillmentRequest
	KindInboxMessage
	KindStatusMessage
)

var kindNames = map[Kind]string{
	KindDiscoveryRequest:                     "Discovery_Request",
	KindDiscoveryResponse:                    "Discovery_Response",
	KindCollectionInformationRequest:         "Collection_Information_Request",
	KindCollectionInformationResponse:        "Collection_Information_Response",
	KindManageCollectionSubscriptionRequest:  "Subscription_Management_Request",
	KindManageCollectionSubscriptionResponse: "Subscription_Management_Response",
	KindPollRequest:                          "Poll_Request",
	KindPollResponse:                         "Poll_Response",
	KindPollFulfillmentRequest:               "Poll_Fulfillment",
	KindInboxMessage:                         "Inbox_Message",
	KindStatusMessage:                        "Status_Message",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Message is any TAXII message.
type Message interface {
	ID() string
	Kind() Kind
}

// Header carries the attributes every message has.
type Header struct {
	MessageID    string `xml:"message_id,attr" validate:"required"`
	InResponseTo string `xml:"in_response_to,attr,omitempty"`
}

func (h Header) ID() string { return h.MessageID }

// NewHeader generates a fresh message id.
func NewHeader(inResponseTo string) Header {
	return Header{MessageID: GenerateMessageID(), InResponseTo: inResponseTo}
}

func GenerateMessageID() string {
	return uuid.NewString()
}

// ContentBinding is a content binding id with optional subtypes.
type ContentBinding struct {
	BindingID string    `xml:"binding_id,attr"`
	Subtypes  []Subtype `xml:"Subtype,omitempty"`
}

type Subtype struct {
	ID string `xml:"subtype_id,attr"`
}

// SubtypeIDs flattens the subtype ids.
func (b ContentBinding) SubtypeIDs() []string {
	out := make([]string, 0, len(b.Subtypes))
	for _, s := range b.Subtypes {
		out = append(out, s.ID)
	}
	return out
}

// NewContentBinding builds a binding element from ids.
func NewContentBinding(bindingID string, subtypes ...string) ContentBinding {
	b := ContentBinding{BindingID: bindingID}
	for _, s := range subtypes {
		b.Subtypes = append(b.Subtypes, Subtype{ID: s})
	}
	return b
}

// Content holds a block payload. XML payloads are embedded as markup, anything
// else is escaped text.
type Content struct {
	Inner string `xml:",innerxml"`
}

// NewContent wraps payload for the wire.
func NewContent(payload string) Content {
	if isMarkup(payload) {
		return Content{Inner: payload}
	}
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(payload))
	return Content{Inner: sb.String()}
}

// Payload returns the content as sent by the producer.
func (c Content) Payload() string {
	if isMarkup(c.Inner) {
		return strings.TrimSpace(c.Inner)
	}
	var text struct {
		Value string `xml:",chardata"`
	}
	if err := xml.Unmarshal([]byte("<c>"+c.Inner+"</c>"), &text); err != nil {
		return c.Inner
	}
	return text.Value
}

func isMarkup(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "<")
}

// ContentBlock is one unit of content on the wire.
type ContentBlock struct {
	ContentBinding ContentBinding `xml:"Content_Binding"`
	Content        Content        `xml:"Content"`
	TimestampLabel *time.Time     `xml:"Timestamp_Label,omitempty"`
	Message        string         `xml:"Message,omitempty"`
	Padding        string         `xml:"Padding,omitempty"`
}

// RecordCount is the number of matching records, possibly partial.
type RecordCount struct {
	PartialCount bool `xml:"partial_count,attr"`
	Value        int  `xml:",chardata"`
}

// ServiceContact addresses a service instance.
type ServiceContact struct {
	ProtocolBinding string   `xml:"Protocol_Binding"`
	Address         string   `xml:"Address"`
	MessageBindings []string `xml:"Message_Binding"`
}

// PushParameters name where and how content would be delivered.
type PushParameters struct {
	ProtocolBinding string `xml:"Protocol_Binding"`
	Address         string `xml:"Address"`
	MessageBinding  string `xml:"Message_Binding"`
}

// Detail is one status detail entry.
type Detail struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type StatusDetail struct {
	Details []Detail `xml:"Detail"`
}

// StatusMessage reports an outcome that is not a regular response.
type StatusMessage struct {
	XMLName xml.Name `xml:"http://taxii.mitre.org/messages/taxii_xml_binding-1.1 Status_Message"`
	Header
	StatusType   string        `xml:"status_type,attr"`
	StatusDetail *StatusDetail `xml:"Status_Detail,omitempty"`
	Message      string        `xml:"Message,omitempty"`
}

func (*StatusMessage) Kind() Kind { return KindStatusMessage }

// DetailValues returns every value recorded under name.
func (m *StatusMessage) DetailValues(name string) []string {
	if m.StatusDetail == nil {
		return nil
	}
	var out []string
	for _, d := range m.StatusDetail.Details {
		if d.Name == name {
			out = append(out, d.Value)
		}
	}
	return out
}

// DiscoveryRequest asks for the services this server offers.
type DiscoveryRequest struct {
	XMLName xml.Name `xml:"http://taxii.mitre.org/messages/taxii_xml_binding-1.1 Discovery_Request"`
	Header
}

func (*DiscoveryRequest) Kind() Kind { return KindDiscoveryRequest }

type DiscoveryResponse struct {
	XMLName xml.Name `xml:"http://taxii.mitre.org/messages/taxii_xml_binding-1.1 Discovery_Response"`
	Header
	ServiceInstances []ServiceInstance `xml:"Service_Instance"`
}

func (*DiscoveryResponse) Kind() Kind { return KindDiscoveryResponse }

// ServiceInstance describes one advertised service.
type ServiceInstance struct {
	ServiceType      string           `xml:"service_type,attr"`
	ServiceVersion   string           `xml:"service_version,attr"`
	Available        bool             `xml:"available,attr"`
	ProtocolBinding  string           `xml:"Protocol_Binding"`
	Address          string           `xml:"Address"`
	MessageBindings  []string         `xml:"Message_Binding"`
	SupportedQueries []SupportedQuery `xml:"Supported_Query,omitempty"`
	ContentBindings  []ContentBinding `xml:"Content_Binding,omitempty"`
	Message          string           `xml:"Message,omitempty"`
}

// SupportedQuery advertises a query format and its default query info.
type SupportedQuery struct {
	FormatID string            `xml:"format_id,attr"`
	Info     *DefaultQueryInfo `xml:"http://taxii.mitre.org/query/taxii_default_query-1 Default_Query_Info,omitempty"`
}

type DefaultQueryInfo struct {
	TargetingExpressions []TargetingExpressionInfo `xml:"http://taxii.mitre.org/query/taxii_default_query-1 Targeting_Expression_Info"`
	CapabilityModules    []string                  `xml:"http://taxii.mitre.org/query/taxii_default_query-1 Capability_Module"`
}

type TargetingExpressionInfo struct {
	ID             string   `xml:"targeting_expression_id,attr"`
	PreferredScope []string `xml:"http://taxii.mitre.org/query/taxii_default_query-1 Preferred_Scope,omitempty"`
	AllowedScope   []string `xml:"http://taxii.mitre.org/query/taxii_default_query-1 Allowed_Scope,omitempty"`
}

// CollectionInformationRequest asks for the collections of a collection
// management service.
type CollectionInformationRequest struct {
	XMLName xml.Name `xml:"http://taxii.mitre.org/messages/taxii_xml_binding-1.1 Collection_Information_Request"`
	Header
}

func (*CollectionInformationRequest) Kind() Kind { return KindCollectionInformationRequest }

type CollectionInformationResponse struct {
	XMLName xml.Name `xml:"http://taxii.mitre.org/messages/taxii_xml_binding-1.1 Collection_Information_Response"`
	Header
	Collections []CollectionInformation `xml:"Collection"`
}

func (*CollectionInformationResponse) Kind() Kind { return KindCollectionInformationResponse }

type CollectionInformation struct {
	Name                   string           `xml:"collection_name,attr"`
	Type                   string           `xml:"collection_type,attr"`
	Available              bool             `xml:"available,attr"`
	Description            string           `xml:"Description"`
	Volume                 *int             `xml:"Collection_Volume,omitempty"`
	ContentBindings        []ContentBinding `xml:"Content_Binding,omitempty"`
	PollingServices        []ServiceContact `xml:"Polling_Service,omitempty"`
	SubscriptionServices   []ServiceContact `xml:"Subscription_Service,omitempty"`
	ReceivingInboxServices []ReceivingInbox `xml:"Receiving_Inbox_Service,omitempty"`
}

type ReceivingInbox struct {
	ServiceContact
	ContentBindings []ContentBinding `xml:"Content_Binding,omitempty"`
}

// ManageCollectionSubscriptionRequest changes or reads a subscription.
type ManageCollectionSubscriptionRequest struct {
	XMLName xml.Name `xml:"http://taxii.mitre.org/messages/taxii_xml_binding-1.1 Subscription_Management_Request"`
	Header
	CollectionName         string                  `xml:"collection_name,attr" validate:"required"`
	Action                 string                  `xml:"action,attr" validate:"required,oneof=SUBSCRIBE UNSUBSCRIBE PAUSE RESUME STATUS"`
	SubscriptionID         string                  `xml:"Subscription_ID,omitempty"`
	SubscriptionParameters *SubscriptionParameters `xml:"Subscription_Parameters,omitempty"`
	PushParameters         *PushParameters         `xml:"Push_Parameters,omitempty"`
}

func (*ManageCollectionSubscriptionRequest) Kind() Kind {
	return KindManageCollectionSubscriptionRequest
}

type SubscriptionParameters struct {
	ResponseType    string           `xml:"Response_Type"`
	ContentBindings []ContentBinding `xml:"Content_Binding,omitempty"`
	Query           *Query           `xml:"Query,omitempty"`
}

type ManageCollectionSubscriptionResponse struct {
	XMLName xml.Name `xml:"http://taxii.mitre.org/messages/taxii_xml_binding-1.1 Subscription_Management_Response"`
	Header
	CollectionName string                 `xml:"collection_name,attr"`
	Message        string                 `xml:"Message,omitempty"`
	Subscriptions  []SubscriptionInstance `xml:"Subscription"`
}

func (*ManageCollectionSubscriptionResponse) Kind() Kind {
	return KindManageCollectionSubscriptionResponse
}

type SubscriptionInstance struct {
	Status                 string                  `xml:"status,attr"`
	SubscriptionID         string                  `xml:"Subscription_ID"`
	SubscriptionParameters *SubscriptionParameters `xml:"Subscription_Parameters,omitempty"`
	PushParameters         *PushParameters         `xml:"Push_Parameters,omitempty"`
	PollInstances          []ServiceContact        `xml:"Poll_Instance,omitempty"`
}

// PollRequest asks for the content of a collection within a time window.
type PollRequest struct {
	XMLName xml.Name `xml:"http://taxii.mitre.org/messages/taxii_xml_binding-1.1 Poll_Request"`
	Header
	CollectionName          string          `xml:"collection_name,attr" validate:"required"`
	ExclusiveBeginTimestamp *time.Time      `xml:"Exclusive_Begin_Timestamp,omitempty"`
	InclusiveEndTimestamp   *time.Time      `xml:"Inclusive_End_Timestamp,omitempty"`
	SubscriptionID          string          `xml:"Subscription_ID,omitempty"`
	PollParameters          *PollParameters `xml:"Poll_Parameters,omitempty"`
}

func (*PollRequest) Kind() Kind { return KindPollRequest }

type PollParameters struct {
	AllowAsynch        bool             `xml:"allow_asynch,attr"`
	ResponseType       string           `xml:"Response_Type,omitempty"`
	ContentBindings    []ContentBinding `xml:"Content_Binding,omitempty"`
	Query              *Query           `xml:"Query,omitempty"`
	DeliveryParameters *PushParameters  `xml:"Delivery_Parameters,omitempty"`
}

type PollResponse struct {
	XMLName xml.Name `xml:"http://taxii.mitre.org/messages/taxii_xml_binding-1.1 Poll_Response"`
	Header
	CollectionName          string         `xml:"collection_name,attr"`
	More                    bool           `xml:"more,attr"`
	ResultID                string         `xml:"result_id,attr,omitempty"`
	ResultPartNumber        int            `xml:"result_part_number,attr"`
	SubscriptionID          string         `xml:"Subscription_ID,omitempty"`
	InclusiveBeginTimestamp *time.Time     `xml:"Inclusive_Begin_Timestamp,omitempty"`
	InclusiveEndTimestamp   time.Time      `xml:"Inclusive_End_Timestamp"`
	RecordCount             *RecordCount   `xml:"Record_Count,omitempty"`
	Message                 string         `xml:"Message,omitempty"`
	ContentBlocks           []ContentBlock `xml:"Content_Block,omitempty"`
}

func (*PollResponse) Kind() Kind { return KindPollResponse }

// PollFulfillmentRequest retrieves a result set prepared asynchronously.
type PollFulfillmentRequest struct {
	XMLName xml.Name `xml:"http://taxii.mitre.org/messages/taxii_xml_binding-1.1 Poll_Fulfillment"`
	Header
	CollectionName   string `xml:"collection_name,attr" validate:"required"`
	ResultID         string `xml:"result_id,attr" validate:"required"`
	ResultPartNumber int    `xml:"result_part_number,attr"`
}

func (*PollFulfillmentRequest) Kind() Kind { return KindPollFulfillmentRequest }

// InboxMessage pushes content blocks to an inbox service.
type InboxMessage struct {
	XMLName xml.Name `xml:"http://taxii.mitre.org/messages/taxii_xml_binding-1.1 Inbox_Message"`
	Header
	ResultID                   string         `xml:"result_id,attr,omitempty"`
	Message                    string         `xml:"Message,omitempty"`
	DestinationCollectionNames []string       `xml:"Destination_Collection_Name,omitempty"`
	RecordCount                *RecordCount   `xml:"Record_Count,omitempty"`
	ContentBlocks              []ContentBlock `xml:"Content_Block,omitempty"`
}

func (*InboxMessage) Kind() Kind { return KindInboxMessage }
