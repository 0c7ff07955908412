package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/tutanak-ai/tutanak/internal/domain"
)

type StatementStore struct {
	db *pgxpool.Pool
}

func NewStatementStore(db *pgxpool.Pool) *StatementStore {
	return &StatementStore{db: db}
}

func (s *StatementStore) Upsert(ctx context.Context, r *domain.StatementRecord) error {
	var embedding *pgvector.Vector
	if len(r.Embedding) > 0 {
		v := pgvector.NewVector(r.Embedding)
		embedding = &v
	}

	if r.Kind == "" {
		r.Kind = domain.SessionUnknown
	}

	var date *time.Time
	if !r.Date.IsZero() {
		date = &r.Date
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO statements (id, speaker_key, raw_speaker, text, date, kind, source_id, page, seq, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   speaker_key = EXCLUDED.speaker_key,
		   raw_speaker = EXCLUDED.raw_speaker,
		   text = EXCLUDED.text,
		   date = EXCLUDED.date,
		   kind = EXCLUDED.kind,
		   page = EXCLUDED.page,
		   seq = EXCLUDED.seq,
		   embedding = EXCLUDED.embedding
		 RETURNING ingested_at`,
		r.ID, r.SpeakerKey, r.RawSpeaker, r.Text, date, r.Kind, r.SourceID, r.Page, r.Seq, embedding,
	).Scan(&r.IngestedAt)
	if err != nil {
		return wrapWriteErr("upsert statement", err)
	}
	return nil
}

func (s *StatementStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StatementRecord, error) {
	r := &domain.StatementRecord{}
	var embedding *pgvector.Vector
	var date *time.Time
	err := s.db.QueryRow(ctx,
		`SELECT id, speaker_key, raw_speaker, text, date, kind, source_id, page, seq, embedding, ingested_at
		 FROM statements WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.SpeakerKey, &r.RawSpeaker, &r.Text, &date, &r.Kind, &r.SourceID, &r.Page, &r.Seq, &embedding, &r.IngestedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get statement: %w (%w)", ErrUnavailable, err)
	}
	if embedding != nil {
		r.Embedding = embedding.Slice()
	}
	if date != nil {
		r.Date = *date
	}
	return r, nil
}

func (s *StatementStore) Retrieve(ctx context.Context, embedding []float32, opts domain.RetrieveOpts) ([]domain.Candidate, error) {
	if opts.SpeakerKey == "" {
		return nil, errors.New("retrieve requires a speaker key")
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}

	vec := pgvector.NewVector(embedding)

	var conditions []string
	var args []any

	conditions = append(conditions, fmt.Sprintf("speaker_key = $%d", len(args)+1))
	args = append(args, opts.SpeakerKey)

	conditions = append(conditions, "embedding IS NOT NULL")

	if opts.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *opts.From)
	}

	if opts.To != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *opts.To)
	}

	if opts.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, string(*opts.Kind))
	}

	if opts.ExcludeID != uuid.Nil {
		conditions = append(conditions, fmt.Sprintf("id != $%d", len(args)+1))
		args = append(args, opts.ExcludeID)
	}

	embeddingParam := len(args) + 1
	args = append(args, vec)

	limitParam := len(args) + 1
	args = append(args, opts.TopK)

	query := fmt.Sprintf(
		`SELECT id, speaker_key, raw_speaker, text, date, kind, source_id, page, seq, ingested_at,
		        1 - (embedding <=> $%d) AS score
		 FROM statements
		 WHERE %s
		 ORDER BY score DESC
		 LIMIT $%d`,
		embeddingParam,
		strings.Join(conditions, " AND "),
		limitParam,
	)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("retrieve query: %w (%w)", ErrUnavailable, err)
	}
	defer rows.Close()

	var results []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		var date *time.Time
		err := rows.Scan(
			&c.ID, &c.SpeakerKey, &c.RawSpeaker, &c.Text, &date, &c.Kind,
			&c.SourceID, &c.Page, &c.Seq, &c.IngestedAt,
			&c.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan retrieve row: %w", err)
		}
		if date != nil {
			c.Date = *date
		}
		results = append(results, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("retrieve rows: %w (%w)", ErrUnavailable, err)
	}

	return results, nil
}

func (s *StatementStore) CountBySpeaker(ctx context.Context, speakerKey string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM statements WHERE speaker_key = $1`,
		speakerKey,
	).Scan(&count)
	return count, err
}

func (s *StatementStore) DeleteBySource(ctx context.Context, sourceID string) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM statements WHERE source_id = $1`,
		sourceID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete by source: %w (%w)", ErrUnavailable, err)
	}
	return tag.RowsAffected(), nil
}
