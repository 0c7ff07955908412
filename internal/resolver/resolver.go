package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/tutanak-ai/tutanak/internal/domain"
)

const (
	// AcceptThreshold is the minimum similarity for a match to count.
	AcceptThreshold = 0.65
	// AmbiguityBand: a runner-up within this distance of the best score
	// makes the resolution ambiguous.
	AmbiguityBand = 0.05

	catalogTTL      = 5 * time.Minute
	catalogCacheKey = "identity-catalog"
)

// Resolver maps raw transcript speaker names onto known identities.
type Resolver struct {
	identities domain.IdentityStore
	cache      *gocache.Cache
	logger     *zap.Logger
}

func New(identities domain.IdentityStore, logger *zap.Logger) *Resolver {
	return &Resolver{
		identities: identities,
		cache:      gocache.New(catalogTTL, 2*catalogTTL),
		logger:     logger,
	}
}

// Invalidate drops the cached identity catalog. Call after ingesting
// documents that may have registered new speakers.
func (r *Resolver) Invalidate() {
	r.cache.Delete(catalogCacheKey)
}

func (r *Resolver) catalog(ctx context.Context) ([]domain.SpeakerIdentity, error) {
	if cached, ok := r.cache.Get(catalogCacheKey); ok {
		return cached.([]domain.SpeakerIdentity), nil
	}
	identities, err := r.identities.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	r.cache.Set(catalogCacheKey, identities, catalogTTL)
	return identities, nil
}

// Resolve scores the raw name against every known identity and returns a
// resolved, ambiguous, or no-match outcome.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*domain.Resolution, error) {
	display := DisplayName(raw)
	input := Fold(display)
	res := &domain.Resolution{Status: domain.ResolutionNoMatch, Input: raw}
	if input == "" {
		return res, nil
	}

	identities, err := r.catalog(ctx)
	if err != nil {
		return nil, err
	}

	var scored []domain.ScoredIdentity
	for i := range identities {
		alias, score := bestAlias(input, &identities[i])
		if score >= AcceptThreshold {
			scored = append(scored, domain.ScoredIdentity{
				Identity: identities[i],
				Alias:    alias,
				Score:    score,
			})
		}
	}
	if len(scored) == 0 {
		return res, nil
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Identity.CanonicalName < scored[j].Identity.CanonicalName
	})

	top := scored[0].Score
	contenders := scored[:0:0]
	for _, s := range scored {
		if top-s.Score <= AmbiguityBand {
			contenders = append(contenders, s)
		}
	}

	if len(contenders) == 1 {
		res.Status = domain.ResolutionResolved
		res.Identity = &contenders[0].Identity
		res.Score = contenders[0].Score
		return res, nil
	}
	res.Status = domain.ResolutionAmbiguous
	res.Score = top
	res.Candidates = contenders
	return res, nil
}

// ResolveForced resolves like Resolve but breaks ambiguity deterministically:
// containment of the folded input in a candidate alias wins first, then the
// smallest edit distance, then lexical order of canonical names.
func (r *Resolver) ResolveForced(ctx context.Context, raw string) (*domain.SpeakerIdentity, error) {
	res, err := r.Resolve(ctx, raw)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case domain.ResolutionResolved:
		return res.Identity, nil
	case domain.ResolutionNoMatch:
		return nil, nil
	}

	input := Fold(DisplayName(raw))
	best := res.Candidates[0]
	for _, c := range res.Candidates[1:] {
		if forcedLess(input, c, best) {
			best = c
		}
	}
	return &best.Identity, nil
}

// EnsureIdentity resolves the raw name, registering a provisional identity
// when nothing matches. Ambiguity is broken the same way ResolveForced
// breaks it. A resolved identity that lacks the raw form as an alias gets
// it appended.
func (r *Resolver) EnsureIdentity(ctx context.Context, raw string) (*domain.SpeakerIdentity, error) {
	identity, err := r.ResolveForced(ctx, raw)
	if err != nil {
		return nil, err
	}
	display := DisplayName(raw)
	if identity != nil {
		if !identity.HasAlias(display) {
			identity.Aliases = append(identity.Aliases, display)
			if err := r.identities.Upsert(ctx, identity); err != nil {
				return nil, fmt.Errorf("failed to record alias: %w", err)
			}
			r.Invalidate()
		}
		return identity, nil
	}

	now := time.Now().UTC()
	identity = &domain.SpeakerIdentity{
		Key:           KeyFor(display),
		CanonicalName: display,
		Aliases:       []string{display},
		Provisional:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.identities.Upsert(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to register identity: %w", err)
	}
	r.logger.Info("registered provisional speaker identity",
		zap.String("key", identity.Key),
		zap.String("name", identity.CanonicalName))
	r.Invalidate()
	return identity, nil
}

func forcedLess(input string, a, b domain.ScoredIdentity) bool {
	ac, bc := contains(input, a), contains(input, b)
	if ac != bc {
		return ac
	}
	ad := levenshtein.ComputeDistance(input, Fold(a.Alias))
	bd := levenshtein.ComputeDistance(input, Fold(b.Alias))
	if ad != bd {
		return ad < bd
	}
	return a.Identity.CanonicalName < b.Identity.CanonicalName
}

func contains(input string, s domain.ScoredIdentity) bool {
	alias := Fold(s.Alias)
	return strings.Contains(alias, input) || strings.Contains(input, alias)
}

// bestAlias returns the highest-scoring alias of the identity against the
// folded input, the canonical name included.
func bestAlias(input string, id *domain.SpeakerIdentity) (string, float64) {
	bestName := id.CanonicalName
	best := similarity(input, Fold(id.CanonicalName))
	for _, alias := range id.Aliases {
		if s := similarity(input, Fold(alias)); s > best {
			best = s
			bestName = alias
		}
	}
	return bestName, best
}

// similarity blends full-string, token-sorted, and windowed partial ratios.
// The partial ratio is discounted so a bare token match never beats an
// exact full-name match.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	score := ratio(a, b)
	if ts := ratio(sortTokens(a), sortTokens(b)); ts > score {
		score = ts
	}
	if ps := 0.9 * partialRatio(a, b); ps > score {
		score = ps
	}
	return score
}

func ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// partialRatio slides the shorter string across the longer one and keeps
// the best window alignment.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == len(long) {
		return ratio(string(short), string(long))
	}
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		if s := ratio(string(short), string(long[i:i+len(short)])); s > best {
			best = s
			if best == 1 {
				break
			}
		}
	}
	return best
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
