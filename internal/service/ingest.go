package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tutanak-ai/tutanak/internal/domain"
	"github.com/tutanak-ai/tutanak/internal/parser"
)

var ErrDocumentEmpty = errors.New("document has no pages")

// IdentityRegistrar resolves raw speaker names at ingest time, registering
// provisional identities for names never seen before.
type IdentityRegistrar interface {
	EnsureIdentity(ctx context.Context, raw string) (*domain.SpeakerIdentity, error)
}

// IngestStats summarizes one document ingestion.
type IngestStats struct {
	SourceID   string `json:"source_id"`
	Statements int    `json:"statements"`
	Speakers   int    `json:"speakers"`
}

type IngestService struct {
	statements domain.StatementStore
	registrar  IdentityRegistrar
	embedder   domain.EmbeddingClient
	parserOpts parser.Options
	logger     *zap.Logger
}

func NewIngestService(ss domain.StatementStore, ir IdentityRegistrar, ec domain.EmbeddingClient, logger *zap.Logger) *IngestService {
	return &IngestService{
		statements: ss,
		registrar:  ir,
		embedder:   ec,
		logger:     logger,
	}
}

// SetMinStatementLen overrides the parser's minimum statement length.
func (s *IngestService) SetMinStatementLen(n int) {
	if n > 0 {
		s.parserOpts.MinStatementLen = n
	}
}

// IngestDocument parses, resolves, embeds, and stores a proceeding document.
// It is all-or-nothing at the document level: a parse or embedding failure
// fails the whole document so a partial ingest never poisons retrieval.
func (s *IngestService) IngestDocument(ctx context.Context, doc domain.SourceDocument) (*IngestStats, error) {
	if len(doc.Pages) == 0 {
		return nil, ErrDocumentEmpty
	}

	date, kind := ParseSourceName(doc.ID)
	if doc.Date.IsZero() {
		doc.Date = date
	}
	if doc.Kind == "" || doc.Kind == domain.SessionUnknown {
		doc.Kind = kind
	}

	records, err := parser.Parse(doc, s.parserOpts)
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", doc.ID, err)
	}

	// One resolution per raw name; repeated speakers are the common case.
	identities := make(map[string]*domain.SpeakerIdentity)
	for i := range records {
		r := &records[i]

		identity, ok := identities[r.RawSpeaker]
		if !ok {
			identity, err = s.registrar.EnsureIdentity(ctx, r.RawSpeaker)
			if err != nil {
				return nil, fmt.Errorf("resolve speaker %q: %w", r.RawSpeaker, err)
			}
			identities[r.RawSpeaker] = identity
		}
		r.SpeakerKey = identity.Key

		embedding, err := s.embedder.Embed(ctx, r.Text)
		if err != nil {
			return nil, fmt.Errorf("embed statement %s: %w", r.ID, err)
		}
		r.Embedding = embedding

		if err := s.statements.Upsert(ctx, r); err != nil {
			return nil, fmt.Errorf("store statement %s: %w", r.ID, err)
		}
	}

	s.logger.Info("document ingested",
		zap.String("source_id", doc.ID),
		zap.Int("statements", len(records)),
		zap.Int("speakers", len(identities)))

	return &IngestStats{
		SourceID:   doc.ID,
		Statements: len(records),
		Speakers:   len(identities),
	}, nil
}

// DeleteSource removes every statement ingested from the named source.
func (s *IngestService) DeleteSource(ctx context.Context, sourceID string) (int64, error) {
	return s.statements.DeleteBySource(ctx, sourceID)
}

// Archive file names encode session dates in several layouts: compact
// YYYYMMDD segments, dashed ISO dates, and "DDMMYYYY_Tarihli" scrapes.
var (
	sourceDatePattern    = regexp.MustCompile(`(20\d{2})(\d{2})(\d{2})`)
	sourceISOPattern     = regexp.MustCompile(`(20\d{2})-(\d{2})-(\d{2})`)
	sourceTarihliPattern = regexp.MustCompile(`(\d{2})(\d{2})(20\d{2})_[Tt]arihli`)
)

// ParseSourceName recovers session metadata encoded in proceeding file names,
// e.g. "komisyon_2641_20240312.pdf". Unrecoverable parts come back zero-valued
// (zero time, SessionUnknown).
func ParseSourceName(name string) (time.Time, domain.SessionKind) {
	var date time.Time
	switch {
	case sourceISOPattern.MatchString(name):
		m := sourceISOPattern.FindStringSubmatch(name)
		if t, err := time.Parse("2006-01-02", m[0]); err == nil {
			date = t
		}
	case sourceTarihliPattern.MatchString(name):
		m := sourceTarihliPattern.FindStringSubmatch(name)
		if t, err := time.Parse("20060102", m[3]+m[2]+m[1]); err == nil {
			date = t
		}
	case sourceDatePattern.MatchString(name):
		m := sourceDatePattern.FindStringSubmatch(name)
		if t, err := time.Parse("20060102", m[1]+m[2]+m[3]); err == nil {
			date = t
		}
	}

	lower := strings.ToLower(name)
	kind := domain.SessionUnknown
	switch {
	case strings.Contains(lower, "komisyon"):
		kind = domain.SessionCommission
	case strings.Contains(lower, "genel_kurul"), strings.Contains(lower, "genelkurul"):
		kind = domain.SessionGeneralAssembly
	case strings.Contains(lower, "mulakat"), strings.Contains(lower, "roportaj"):
		kind = domain.SessionInterview
	case strings.Contains(lower, "sosyal"):
		kind = domain.SessionSocial
	}
	return date, kind
}
