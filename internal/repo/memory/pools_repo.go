package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rjenterprise/poolhub/internal/domain/pool"
)

type PoolsRepo struct {
	mu    sync.RWMutex
	items map[string]pool.Pool
}

func NewPoolsRepo() *PoolsRepo {
	return &PoolsRepo{
		items: make(map[string]pool.Pool),
	}
}

func clonePool(p pool.Pool) pool.Pool {
	p.Members = append([]string{}, p.Members...)
	if p.PoolNumber != nil {
		n := *p.PoolNumber
		p.PoolNumber = &n
	}
	return p
}

func (r *PoolsRepo) Create(_ context.Context, p pool.Pool) (pool.Pool, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	p = clonePool(p)

	r.mu.Lock()
	r.items[p.ID] = p
	r.mu.Unlock()

	return clonePool(p), nil
}

func (r *PoolsRepo) GetByID(_ context.Context, id string) (pool.Pool, error) {
	if !validID(id) {
		return pool.Pool{}, pool.ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return pool.Pool{}, pool.ErrNotFound
	}
	return clonePool(p), nil
}

func (r *PoolsRepo) List(_ context.Context, f pool.ListFilter) ([]pool.Pool, error) {
	terms := searchTerms(f.Search)

	r.mu.RLock()
	out := make([]pool.Pool, 0, len(r.items))
	for _, p := range r.items {
		if f.CreatorID != "" && p.Creator != f.CreatorID {
			continue
		}
		if len(terms) > 0 && !matchesAny(p, terms) {
			continue
		}
		out = append(out, clonePool(p))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PoolNumber, out[j].PoolNumber
		switch {
		case a != nil && b != nil && *a != *b:
			return *a > *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

// searchTerms mirrors a text index: lowercase words, any of which may match.
func searchTerms(q string) []string {
	return strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func matchesAny(p pool.Pool, terms []string) bool {
	words := make(map[string]struct{})
	for _, w := range searchTerms(p.Title + " " + p.Description) {
		words[w] = struct{}{}
	}
	for _, t := range terms {
		if _, ok := words[t]; ok {
			return true
		}
	}
	return false
}

func (r *PoolsRepo) AddMember(_ context.Context, poolID, accountID string) (pool.Pool, error) {
	if !validID(poolID) {
		return pool.Pool{}, pool.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[poolID]
	if !ok {
		return pool.Pool{}, pool.ErrNotFound
	}
	if p.HasMember(accountID) {
		return pool.Pool{}, pool.ErrAlreadyMember
	}

	p.Members = append(append([]string{}, p.Members...), accountID)
	p.UpdatedAt = time.Now().UTC()
	r.items[poolID] = p

	return clonePool(p), nil
}

func (r *PoolsRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, p := range r.items {
		if p.ClosingDate.Before(now) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func (r *PoolsRepo) MaxPoolNumber(_ context.Context) (int64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		max   int64
		found bool
	)
	for _, p := range r.items {
		if p.PoolNumber == nil {
			continue
		}
		if !found || *p.PoolNumber > max {
			max = *p.PoolNumber
			found = true
		}
	}
	return max, found, nil
}

func (r *PoolsRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}

func (r *PoolsRepo) CountCreatedBetween(_ context.Context, since, until time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.items {
		if !p.CreatedAt.Before(since) && !p.CreatedAt.After(until) {
			n++
		}
	}
	return n, nil
}

func (r *PoolsRepo) ListUnnumbered(_ context.Context) ([]string, error) {
	r.mu.RLock()
	pending := make([]pool.Pool, 0)
	for _, p := range r.items {
		if p.PoolNumber == nil {
			pending = append(pending, p)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	ids := make([]string, len(pending))
	for i, p := range pending {
		ids[i] = p.ID
	}
	return ids, nil
}

func (r *PoolsRepo) AssignPoolNumber(_ context.Context, id string, n int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok || p.PoolNumber != nil {
		return false, nil
	}
	p.PoolNumber = &n
	p.UpdatedAt = time.Now().UTC()
	r.items[id] = p
	return true, nil
}
