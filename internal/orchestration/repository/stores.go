package repository

import (
	"time"
)

// TTLs sets the lifetime of each record type.
type TTLs struct {
	// Commitment should equal the controller's max commitment age; a reveal
	// after that is rejected on chain anyway.
	Commitment time.Duration
	Bridge     time.Duration
	Selection  time.Duration
	Subdomain  time.Duration
}

// Stores groups the four correlation stores the sagas share.
type Stores struct {
	Commitments *Store[Commitment]
	Bridges     *Store[BridgeOperation]
	Selections  *Store[Selection]
	Subdomains  *Store[SubdomainAssignment]
}

// NewStores creates empty in-memory stores.
func NewStores(ttls TTLs) *Stores {
	return &Stores{
		Commitments: NewStore[Commitment]("commitments", ttls.Commitment),
		Bridges:     NewStore[BridgeOperation]("bridges", ttls.Bridge),
		Selections:  NewStore[Selection]("selections", ttls.Selection),
		Subdomains:  NewStore[SubdomainAssignment]("subdomains", ttls.Subdomain),
	}
}

// Sizes reports the record count per store.
func (s *Stores) Sizes() map[string]int {
	return map[string]int{
		s.Commitments.Name(): s.Commitments.Len(),
		s.Bridges.Name():     s.Bridges.Len(),
		s.Selections.Name():  s.Selections.Len(),
		s.Subdomains.Name():  s.Subdomains.Len(),
	}
}
