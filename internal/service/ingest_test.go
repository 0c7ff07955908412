package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tutanak-ai/tutanak/internal/domain"
)

type mockRegistrar struct {
	calls      []string
	identities map[string]*domain.SpeakerIdentity
	err        error
}

func newMockRegistrar() *mockRegistrar {
	return &mockRegistrar{identities: make(map[string]*domain.SpeakerIdentity)}
}

func (m *mockRegistrar) EnsureIdentity(_ context.Context, raw string) (*domain.SpeakerIdentity, error) {
	m.calls = append(m.calls, raw)
	if m.err != nil {
		return nil, m.err
	}
	if id, ok := m.identities[raw]; ok {
		return id, nil
	}
	id := &domain.SpeakerIdentity{
		Key:           strings.ToLower(strings.ReplaceAll(raw, " ", "_")),
		CanonicalName: raw,
		Provisional:   true,
	}
	m.identities[raw] = id
	return id, nil
}

func ingestDoc() domain.SourceDocument {
	text := strings.Join([]string{
		"BAŞKAN - Toplantıyı açıyorum, gündemimizde bütçe görüşmeleri bulunmaktadır.",
		"METİN ERGUN (Muğla) - Sayın Başkan, bu bütçe yetersizdir ve düzeltilmesi gerekir.",
		"BAŞKAN - Değerlendirmeleri aldıktan sonra oylamaya geçeceğiz efendim.",
	}, "\n")
	return domain.SourceDocument{
		ID:    "komisyon_2641_20240312.pdf",
		Pages: []domain.SourcePage{{Number: 1, Text: text}},
	}
}

func setupIngestTest() (*IngestService, *mockStatementStore, *mockRegistrar) {
	ss := newMockStatementStore()
	reg := newMockRegistrar()
	svc := NewIngestService(ss, reg, &mockEmbedder{vec: []float32{0.3, 0.4}}, zap.NewNop())
	return svc, ss, reg
}

func TestIngestDocument(t *testing.T) {
	svc, ss, reg := setupIngestTest()

	stats, err := svc.IngestDocument(context.Background(), ingestDoc())
	if err != nil {
		t.Fatalf("IngestDocument failed: %v", err)
	}
	if stats.Statements != 3 {
		t.Errorf("statements = %d, want 3", stats.Statements)
	}
	if stats.Speakers != 2 {
		t.Errorf("speakers = %d, want 2", stats.Speakers)
	}
	if len(ss.records) != 3 {
		t.Fatalf("stored %d records, want 3", len(ss.records))
	}
	// Repeated raw names resolve once per document.
	if len(reg.calls) != 2 {
		t.Errorf("registrar called %d times, want 2", len(reg.calls))
	}

	for _, r := range ss.records {
		if r.SpeakerKey == "" {
			t.Error("stored record missing speaker key")
		}
		if len(r.Embedding) == 0 {
			t.Error("stored record missing embedding")
		}
		if r.Kind != domain.SessionCommission {
			t.Errorf("kind = %s, want commission", r.Kind)
		}
		if !r.Date.Equal(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("date = %v", r.Date)
		}
	}
}

func TestIngestDocument_Idempotent(t *testing.T) {
	svc, ss, _ := setupIngestTest()
	ctx := context.Background()

	if _, err := svc.IngestDocument(ctx, ingestDoc()); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if _, err := svc.IngestDocument(ctx, ingestDoc()); err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if len(ss.records) != 3 {
		t.Fatalf("re-ingest duplicated records: %d", len(ss.records))
	}
}

func TestIngestDocument_EmbeddingFailureFailsDocument(t *testing.T) {
	ss := newMockStatementStore()
	svc := NewIngestService(ss, newMockRegistrar(), &mockEmbedder{err: errors.New("quota exceeded")}, zap.NewNop())

	if _, err := svc.IngestDocument(context.Background(), ingestDoc()); err == nil {
		t.Fatal("expected an error")
	}
}

func TestIngestDocument_Empty(t *testing.T) {
	svc, _, _ := setupIngestTest()

	_, err := svc.IngestDocument(context.Background(), domain.SourceDocument{ID: "bos.pdf"})
	if !errors.Is(err, ErrDocumentEmpty) {
		t.Fatalf("expected ErrDocumentEmpty, got %v", err)
	}
}

func TestParseSourceName(t *testing.T) {
	cases := []struct {
		name     string
		wantDate time.Time
		wantKind domain.SessionKind
	}{
		{"komisyon_2641_20240312.pdf", time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), domain.SessionCommission},
		{"genel_kurul_055_20230601.pdf", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), domain.SessionGeneralAssembly},
		{"roportaj_ntv_20240105.txt", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), domain.SessionInterview},
		{"2023-06-01_genelkurul.txt", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), domain.SessionGeneralAssembly},
		{"12032024_Tarihli_komisyon.txt", time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), domain.SessionCommission},
		{"notlar.txt", time.Time{}, domain.SessionUnknown},
	}
	for _, c := range cases {
		date, kind := ParseSourceName(c.name)
		if !date.Equal(c.wantDate) {
			t.Errorf("%s: date = %v, want %v", c.name, date, c.wantDate)
		}
		if kind != c.wantKind {
			t.Errorf("%s: kind = %s, want %s", c.name, kind, c.wantKind)
		}
	}
}
