package cachemanager

import (
	"context"

	"github.com/zjrosen/walkabout/internal/log"
	"github.com/zjrosen/walkabout/internal/predicate"
)

// ChainStore maps fingerprints to compiled predicate chains. Entries never
// expire: a dispatch table refers to a chain for as long as it lives.
// Safe for concurrent readers.
type ChainStore struct {
	cache CacheManager[predicate.Fingerprint, predicate.Chain]
}

// NewChainStore creates an empty store.
func NewChainStore() *ChainStore {
	return &ChainStore{
		cache: NewInMemoryCacheManager[predicate.Fingerprint, predicate.Chain]("chains", NoExpiration, 0),
	}
}

// Put stores chain under fp, replacing any previous chain.
func (s *ChainStore) Put(fp predicate.Fingerprint, chain predicate.Chain) {
	s.cache.Set(context.Background(), fp, chain, NoExpiration)
	log.Debug(log.CatCache, "chain stored", "fingerprint", fp.Short(), "predicates", len(chain))
}

// Chain returns the chain stored under fp.
func (s *ChainStore) Chain(fp predicate.Fingerprint) (predicate.Chain, bool) {
	return s.cache.Get(context.Background(), fp)
}

// Chains returns the chains stored under fps; unknown fingerprints are absent
// from the result.
func (s *ChainStore) Chains(fps ...predicate.Fingerprint) map[predicate.Fingerprint]predicate.Chain {
	found, ok := s.cache.GetMultiple(context.Background(), fps)
	if !ok {
		return map[predicate.Fingerprint]predicate.Chain{}
	}
	return found
}

// Len returns the number of stored chains.
func (s *ChainStore) Len() int {
	return s.cache.Len()
}
