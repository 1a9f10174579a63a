// Package balance serves tracked-token balances for an account, caching
// chain reads in Redis. The cache is strictly read-side: background callers
// only ever observe balances, never wallet state.
package balance

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/JJJH27/bleswallet/internal/amount"
	"github.com/JJJH27/bleswallet/internal/cache"
	"github.com/JJJH27/bleswallet/internal/chain"
	"github.com/JJJH27/bleswallet/internal/domain"
	"github.com/JJJH27/bleswallet/internal/store"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const cacheTTL = 15 * time.Second

// Service reads balances for every token the wallet tracks
type Service struct {
	chain chain.Client
	store *store.Store
	cache *cache.Cache
}

// New creates a balance Service
func New(chainClient chain.Client, st *store.Store, c *cache.Cache) *Service {
	return &Service{chain: chainClient, store: st, cache: c}
}

func balancesKey(address string) string {
	return "balances:" + strings.ToLower(address)
}

// Balances returns the account's balances per token address, served from
// cache when fresh
func (s *Service) Balances(ctx context.Context, address string) (map[string]string, error) {
	var cached map[string]string
	found, err := s.cache.Get(ctx, balancesKey(address), &cached)
	if err == nil && found {
		return cached, nil
	}
	return s.Refresh(ctx, address)
}

// Refresh re-fetches balances of all tracked tokens from the chain and
// recaches them. Per-token read failures degrade to "0" so one broken
// contract cannot hide the rest of the portfolio.
func (s *Service) Refresh(ctx context.Context, address string) (map[string]string, error) {
	tokens, err := s.store.Tokens()
	if err != nil {
		return nil, err
	}

	owner := common.HexToAddress(address)
	balances := make(map[string]string, len(tokens))
	for _, t := range tokens {
		raw, err := s.fetch(ctx, owner, t)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"address": address,
				"token":   t.Symbol,
				"error":   err.Error(),
			}).Warn("Balance fetch failed")
			balances[t.Address] = "0"
			continue
		}
		balances[t.Address] = amount.Format(raw, int(t.Decimals))
	}

	if err := s.cache.Set(ctx, balancesKey(address), balances, cacheTTL); err != nil {
		logrus.WithError(err).Warn("Balance cache write failed")
	}
	return balances, nil
}

// Balance returns one token balance in smallest units, preferring the cached
// value and falling back to a direct chain read
func (s *Service) Balance(ctx context.Context, address string, token domain.Token) (*big.Int, error) {
	var cached map[string]string
	found, err := s.cache.Get(ctx, balancesKey(address), &cached)
	if err == nil && found {
		if text, ok := cached[token.Address]; ok {
			if v, err := amount.Parse(text, int(token.Decimals)); err == nil {
				return v, nil
			}
		}
	}
	return s.fetch(ctx, common.HexToAddress(address), token)
}

// Invalidate drops the cached balances for an address
func (s *Service) Invalidate(ctx context.Context, address string) {
	if err := s.cache.Delete(ctx, balancesKey(address)); err != nil {
		logrus.WithError(err).Warn("Balance cache invalidation failed")
	}
}

func (s *Service) fetch(ctx context.Context, owner common.Address, t domain.Token) (*big.Int, error) {
	if t.IsNative() {
		return s.chain.GetBalance(ctx, owner)
	}
	return s.chain.GetTokenBalance(ctx, common.HexToAddress(t.Address), owner)
}
