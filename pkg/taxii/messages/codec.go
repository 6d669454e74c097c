package messages

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"

	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/status"
)

// Format decodes and encodes one (content type, message binding) pair.
type Format struct {
	Decode func(body []byte) (Message, error)
	Encode func(m Message) ([]byte, error)
}

type formatKey struct {
	contentType string
	messageType string
}

// Codec is the table of message formats an engine instance accepts.
type Codec struct {
	formats map[formatKey]Format
}

func NewCodec() *Codec {
	return &Codec{formats: make(map[formatKey]Format)}
}

// NewXML11Codec returns a codec serving TAXII 1.1 XML.
func NewXML11Codec() *Codec {
	c := NewCodec()
	c.Register("application/xml", binding.MessageXML11, Format{Decode: DecodeXML11, Encode: EncodeXML11})
	return c
}

// Register adds a format. Later registrations replace earlier ones.
func (c *Codec) Register(contentType, messageType string, f Format) {
	c.formats[formatKey{contentType, messageType}] = f
}

func (c *Codec) lookup(contentType, messageType string) (Format, error) {
	f, ok := c.formats[formatKey{contentType, messageType}]
	if !ok {
		return Format{}, status.Malformed("No deserializer for Content-Type %s and X-TAXII-Content-Type %s", contentType, messageType)
	}
	return f, nil
}

func (c *Codec) Decode(contentType, messageType string, body []byte) (Message, error) {
	f, err := c.lookup(contentType, messageType)
	if err != nil {
		return nil, err
	}
	return f.Decode(body)
}

func (c *Codec) Encode(contentType, messageType string, m Message) ([]byte, error) {
	f, err := c.lookup(contentType, messageType)
	if err != nil {
		return nil, err
	}
	return f.Encode(m)
}

var xml11Constructors = map[string]func() Message{
	"Discovery_Request":                func() Message { return &DiscoveryRequest{} },
	"Discovery_Response":               func() Message { return &DiscoveryResponse{} },
	"Collection_Information_Request":   func() Message { return &CollectionInformationRequest{} },
	"Collection_Information_Response":  func() Message { return &CollectionInformationResponse{} },
	"Subscription_Management_Request":  func() Message { return &ManageCollectionSubscriptionRequest{} },
	"Subscription_Management_Response": func() Message { return &ManageCollectionSubscriptionResponse{} },
	"Poll_Request":                     func() Message { return &PollRequest{} },
	"Poll_Response":                    func() Message { return &PollResponse{} },
	"Poll_Fulfillment":                 func() Message { return &PollFulfillmentRequest{} },
	"Inbox_Message":                    func() Message { return &InboxMessage{} },
	"Status_Message":                   func() Message { return &StatusMessage{} },
}

// DecodeXML11 peeks at the root element and unmarshals into the matching type.
func DecodeXML11(body []byte) (Message, error) {
	root, err := rootElement(body)
	if err != nil {
		return nil, status.Malformed("Unable to parse message: %v", err)
	}
	if root.Space != Namespace {
		return nil, status.Malformed("Root element %s is not in the TAXII 1.1 namespace", root.Local)
	}
	ctor, ok := xml11Constructors[root.Local]
	if !ok {
		return nil, status.Malformed("Unknown message type %s", root.Local)
	}

	m := ctor()
	if err := xml.Unmarshal(body, m); err != nil {
		return nil, status.Malformed("Unable to parse %s: %v", root.Local, err)
	}
	return m, nil
}

func rootElement(body []byte) (xml.Name, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return xml.Name{}, errors.New("no root element")
		}
		if err != nil {
			return xml.Name{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name, nil
		}
	}
}

// EncodeXML11 marshals m with an XML declaration.
func EncodeXML11(m Message) ([]byte, error) {
	out, err := xml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	return append([]byte(xml.Header), out...), nil
}

// NewStatusMessage renders a status error as a Status_Message.
func NewStatusMessage(inResponseTo string, se *status.Error) *StatusMessage {
	m := &StatusMessage{
		Header:     NewHeader(inResponseTo),
		StatusType: string(se.Type),
		Message:    se.Message,
	}
	if len(se.Details) > 0 {
		m.StatusDetail = &StatusDetail{}
		for _, name := range sortedKeys(se.Details) {
			for _, v := range se.Details[name] {
				m.StatusDetail.Details = append(m.StatusDetail.Details, Detail{Name: name, Value: v})
			}
		}
	}
	return m
}

// NewSuccess is the SUCCESS status message.
func NewSuccess(inResponseTo string) *StatusMessage {
	return &StatusMessage{Header: NewHeader(inResponseTo), StatusType: string(status.TypeSuccess)}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
