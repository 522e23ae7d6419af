package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii1"
)

// Taxii1Store implements taxii1.Repository with in-memory maps, for
// development and tests. Thread-safe; reads return copies.
type Taxii1Store struct {
	mu            sync.RWMutex
	collections   map[string]taxii1.Collection
	contentBlocks map[string]taxii1.ContentBlock // id -> block
	blockOrder    []string                       // insertion order, for deterministic polling
	inboxMessages map[string]taxii1.InboxMessage
	resultSets    map[string]taxii1.ResultSet
	subscriptions map[string]taxii1.Subscription
	services      map[string]taxii1.Service
	seq           int
}

// NewTaxii1Store creates an empty in-memory TAXII 1.x store.
func NewTaxii1Store() *Taxii1Store {
	return &Taxii1Store{
		collections:   make(map[string]taxii1.Collection),
		contentBlocks: make(map[string]taxii1.ContentBlock),
		inboxMessages: make(map[string]taxii1.InboxMessage),
		resultSets:    make(map[string]taxii1.ResultSet),
		subscriptions: make(map[string]taxii1.Subscription),
		services:      make(map[string]taxii1.Service),
	}
}

// SeedService registers an advertised service for tests/bootstrap.
func (s *Taxii1Store) SeedService(svc taxii1.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
}

func (s *Taxii1Store) UpsertService(ctx context.Context, svc taxii1.Service) error {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.services[svc.ID]; ok {
		svc.DateCreated = existing.DateCreated
	} else {
		svc.DateCreated = now
	}
	svc.DateUpdated = now
	s.services[svc.ID] = svc
	return nil
}

func (s *Taxii1Store) GetCollection(ctx context.Context, name string) (*taxii1.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "collection %q not found", name)
	}
	cp := c
	return &cp, nil
}

func (s *Taxii1Store) GetCollections(ctx context.Context) ([]taxii1.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]taxii1.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Taxii1Store) UpsertCollection(ctx context.Context, c taxii1.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[c.Name] = c
	return nil
}

func (s *Taxii1Store) AddContentBlock(ctx context.Context, block taxii1.ContentBlock) (*taxii1.ContentBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	block.ID = "block-" + idFromSeq(s.seq)
	if block.TimestampLabel.IsZero() {
		block.TimestampLabel = time.Now().UTC()
	}
	s.contentBlocks[block.ID] = block
	s.blockOrder = append(s.blockOrder, block.ID)

	for _, collName := range block.CollectionIDs {
		coll, ok := s.collections[collName]
		if ok {
			coll.Volume++
			s.collections[collName] = coll
		}
	}

	cp := block
	return &cp, nil
}

func (s *Taxii1Store) GetContentBlocks(ctx context.Context, collectionName string, bindings []taxii1.ContentBinding, begin, end *time.Time) ([]taxii1.ContentBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []taxii1.ContentBlock
	for _, id := range s.blockOrder {
		block := s.contentBlocks[id]
		if !containsStr(block.CollectionIDs, collectionName) {
			continue
		}
		if begin != nil && block.TimestampLabel.Before(*begin) {
			continue
		}
		if end != nil && block.TimestampLabel.After(*end) {
			continue
		}
		if len(bindings) > 0 && !IsContentSupportedAny(bindings, block.Binding) {
			continue
		}
		out = append(out, block)
	}
	return out, nil
}

// IsContentSupportedAny reports whether block matches any of the requested
// bindings, using taxii1.IsContentSupported's binding-match rule.
func IsContentSupportedAny(requested []taxii1.ContentBinding, block taxii1.ContentBinding) bool {
	for _, r := range requested {
		if taxii1.IsContentSupported(false, []taxii1.ContentBinding{block}, r) {
			return true
		}
	}
	return false
}

func (s *Taxii1Store) AddInboxMessage(ctx context.Context, msg taxii1.InboxMessage) (*taxii1.InboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	msg.ID = "inbox-" + idFromSeq(s.seq)
	if msg.DateCreated.IsZero() {
		msg.DateCreated = time.Now().UTC()
	}
	s.inboxMessages[msg.ID] = msg
	cp := msg
	return &cp, nil
}

func (s *Taxii1Store) CreateResultSet(ctx context.Context, rs taxii1.ResultSet) (*taxii1.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	rs.ID = "resultset-" + idFromSeq(s.seq)
	if rs.DateCreated.IsZero() {
		rs.DateCreated = time.Now().UTC()
	}
	s.resultSets[rs.ID] = rs
	cp := rs
	return &cp, nil
}

func (s *Taxii1Store) GetResultSet(ctx context.Context, id string) (*taxii1.ResultSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs, ok := s.resultSets[id]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "result set %q not found", id)
	}
	cp := rs
	return &cp, nil
}

func (s *Taxii1Store) UpsertSubscription(ctx context.Context, sub taxii1.Subscription) (*taxii1.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.ID == "" {
		s.seq++
		sub.ID = "sub-" + idFromSeq(s.seq)
	}
	if sub.DateCreated.IsZero() {
		sub.DateCreated = time.Now().UTC()
	}
	s.subscriptions[sub.ID] = sub
	cp := sub
	return &cp, nil
}

func (s *Taxii1Store) GetSubscription(ctx context.Context, id string) (*taxii1.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "subscription %q not found", id)
	}
	cp := sub
	return &cp, nil
}

func (s *Taxii1Store) ListSubscriptions(ctx context.Context, collectionName string) ([]taxii1.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []taxii1.Subscription
	for _, sub := range s.subscriptions {
		if sub.CollectionID == collectionName {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Taxii1Store) GetAdvertisedServices(ctx context.Context, serviceID string) ([]taxii1.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if serviceID != "" {
		svc, ok := s.services[serviceID]
		if !ok {
			return nil, apperr.Newf(apperr.NotFound, "service %q not found", serviceID)
		}
		return []taxii1.Service{svc}, nil
	}
	out := make([]taxii1.Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ taxii1.Repository = (*Taxii1Store)(nil)
