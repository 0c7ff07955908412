package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tutanak-ai/tutanak/internal/domain"
)

type stubIdentityStore struct {
	identities []domain.SpeakerIdentity
	upserted   []domain.SpeakerIdentity
	listCalls  int
	listErr    error
}

func (s *stubIdentityStore) Upsert(_ context.Context, identity *domain.SpeakerIdentity) error {
	s.upserted = append(s.upserted, *identity)
	for i := range s.identities {
		if s.identities[i].Key == identity.Key {
			s.identities[i] = *identity
			return nil
		}
	}
	s.identities = append(s.identities, *identity)
	return nil
}

func (s *stubIdentityStore) GetByKey(_ context.Context, key string) (*domain.SpeakerIdentity, error) {
	for i := range s.identities {
		if s.identities[i].Key == key {
			return &s.identities[i], nil
		}
	}
	return nil, nil
}

func (s *stubIdentityStore) List(_ context.Context) ([]domain.SpeakerIdentity, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.SpeakerIdentity, len(s.identities))
	copy(out, s.identities)
	return out, nil
}

func identity(name string, aliases ...string) domain.SpeakerIdentity {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return domain.SpeakerIdentity{
		Key:           KeyFor(name),
		CanonicalName: name,
		Aliases:       append([]string{name}, aliases...),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func setupResolverTest(identities ...domain.SpeakerIdentity) (*Resolver, *stubIdentityStore) {
	store := &stubIdentityStore{identities: identities}
	return New(store, zap.NewNop()), store
}

func TestResolve_PartialNameMatch(t *testing.T) {
	r, _ := setupResolverTest(
		identity("MAHİNUR ÖZDEMİR GÖKTAŞ"),
		identity("KEMAL KILIÇDAROĞLU"),
	)

	res, err := r.Resolve(context.Background(), "Mahinur")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Status != domain.ResolutionResolved {
		t.Fatalf("expected resolved, got %s (score %.2f)", res.Status, res.Score)
	}
	if res.Identity.CanonicalName != "MAHİNUR ÖZDEMİR GÖKTAŞ" {
		t.Errorf("resolved to wrong identity: %s", res.Identity.CanonicalName)
	}
	if res.Score < AcceptThreshold {
		t.Errorf("score %.2f below threshold", res.Score)
	}
}

func TestResolve_DiacriticInsensitive(t *testing.T) {
	r, _ := setupResolverTest(identity("METİN ERGUN"))

	res, err := r.Resolve(context.Background(), "Metin Ergun (Mugla)")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Status != domain.ResolutionResolved {
		t.Fatalf("expected resolved, got %s", res.Status)
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	r, _ := setupResolverTest(
		identity("AHMET YILDIZ"),
		identity("AHMET YILMAZ"),
	)

	res, err := r.Resolve(context.Background(), "Ahmet Yıl")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Status != domain.ResolutionAmbiguous {
		t.Fatalf("expected ambiguous, got %s", res.Status)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(res.Candidates))
	}
}

func TestResolve_NoMatch(t *testing.T) {
	r, _ := setupResolverTest(identity("MAHİNUR ÖZDEMİR GÖKTAŞ"))

	res, err := r.Resolve(context.Background(), "Zekeriya Temizel")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Status != domain.ResolutionNoMatch {
		t.Fatalf("expected no match, got %s (score %.2f)", res.Status, res.Score)
	}
}

func TestResolveForced_BreaksTieDeterministically(t *testing.T) {
	r, _ := setupResolverTest(
		identity("AHMET YILMAZ"),
		identity("AHMET YILDIZ"),
	)

	for i := 0; i < 3; i++ {
		id, err := r.ResolveForced(context.Background(), "Ahmet Yıl")
		if err != nil {
			t.Fatalf("ResolveForced failed: %v", err)
		}
		if id == nil {
			t.Fatal("expected an identity")
		}
		if id.CanonicalName != "AHMET YILDIZ" {
			t.Errorf("run %d: expected AHMET YILDIZ, got %s", i, id.CanonicalName)
		}
	}
}

func TestEnsureIdentity_RegistersProvisional(t *testing.T) {
	r, store := setupResolverTest()

	id, err := r.EnsureIdentity(context.Background(), "CHP GRUBU ADINA VELİ AĞBABA (Malatya)")
	if err != nil {
		t.Fatalf("EnsureIdentity failed: %v", err)
	}
	if !id.Provisional {
		t.Error("expected a provisional identity")
	}
	if id.CanonicalName != "VELİ AĞBABA" {
		t.Errorf("canonical name = %q", id.CanonicalName)
	}
	if id.Key != "veli_agbaba" {
		t.Errorf("key = %q", id.Key)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(store.upserted))
	}

	// Second sighting of the same speaker must reuse the identity.
	again, err := r.EnsureIdentity(context.Background(), "Veli Ağbaba")
	if err != nil {
		t.Fatalf("EnsureIdentity failed: %v", err)
	}
	if again.Key != id.Key {
		t.Errorf("expected key %s, got %s", id.Key, again.Key)
	}
}

func TestCatalogCache(t *testing.T) {
	r, store := setupResolverTest(identity("MAHİNUR ÖZDEMİR GÖKTAŞ"))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(ctx, "Mahinur"); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
	}
	if store.listCalls != 1 {
		t.Fatalf("expected 1 list call, got %d", store.listCalls)
	}

	r.Invalidate()
	if _, err := r.Resolve(ctx, "Mahinur"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if store.listCalls != 2 {
		t.Fatalf("expected 2 list calls after invalidation, got %d", store.listCalls)
	}
}

func TestResolve_StoreError(t *testing.T) {
	r, store := setupResolverTest()
	store.listErr = errors.New("connection refused")

	if _, err := r.Resolve(context.Background(), "Mahinur"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"MAHİNUR ÖZDEMİR GÖKTAŞ (Aile ve Sosyal Hizmetler Bakanı)", "MAHİNUR ÖZDEMİR GÖKTAŞ"},
		{"CHP GRUBU ADINA VELİ AĞBABA (Malatya)", "VELİ AĞBABA"},
		{"  METİN   ERGUN  ", "METİN ERGUN"},
		{"SAYIN AHMET YILDIZ", "AHMET YILDIZ"},
	}
	for _, c := range cases {
		if got := DisplayName(c.in); got != c.want {
			t.Errorf("DisplayName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestKeyFor(t *testing.T) {
	if got := KeyFor("MAHİNUR ÖZDEMİR GÖKTAŞ"); got != "mahinur_ozdemir_goktas" {
		t.Errorf("KeyFor = %q", got)
	}
}
