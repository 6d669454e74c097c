package entity

import (
	"time"

	"taxii-services/pkg/taxii/binding"

	"github.com/google/uuid"
)

type ServiceKind string
type DestinationCollectionStatus string

const (
	ServiceKindDiscovery            ServiceKind = "DISCOVERY"
	ServiceKindPoll                 ServiceKind = "POLL"
	ServiceKindCollectionManagement ServiceKind = "COLLECTION_MANAGEMENT"
	ServiceKindInbox                ServiceKind = "INBOX"

	DestinationCollectionRequired   DestinationCollectionStatus = "REQUIRED"
	DestinationCollectionOptional   DestinationCollectionStatus = "OPTIONAL"
	DestinationCollectionProhibited DestinationCollectionStatus = "PROHIBITED"
)

// Service is a TAXII service instance reachable under /services/<Path>.
type Service struct {
	Id               uuid.UUID
	Path             string
	Kind             ServiceKind
	Description      string
	Enabled          bool
	ProtocolBindings []string
	MessageBindings  []string

	// Inbox only.
	DestinationCollectionStatus DestinationCollectionStatus
	SupportedContent            binding.SupportedContent

	// Destination collections for an inbox, served collections for poll and
	// collection management services.
	CollectionNames []string

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// ServesCollection reports whether name is one of the service's collections.
func (s *Service) ServesCollection(name string) bool {
	for _, n := range s.CollectionNames {
		if n == name {
			return true
		}
	}
	return false
}
