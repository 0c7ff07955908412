package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutanak-ai/tutanak/internal/domain"
)

type IdentityStore struct {
	db *pgxpool.Pool
}

func NewIdentityStore(db *pgxpool.Pool) *IdentityStore {
	return &IdentityStore{db: db}
}

// Upsert inserts the identity or merges it into an existing row. Aliases are
// unioned so concurrent ingesters never drop each other's name variants.
func (s *IdentityStore) Upsert(ctx context.Context, identity *domain.SpeakerIdentity) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO speakers (key, canonical_name, aliases, provisional)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET
		   canonical_name = CASE WHEN speakers.provisional AND NOT EXCLUDED.provisional
		                         THEN EXCLUDED.canonical_name ELSE speakers.canonical_name END,
		   aliases = (SELECT ARRAY(SELECT DISTINCT a FROM unnest(speakers.aliases || EXCLUDED.aliases) AS a ORDER BY a)),
		   provisional = speakers.provisional AND EXCLUDED.provisional,
		   updated_at = NOW()
		 RETURNING canonical_name, aliases, provisional, created_at, updated_at`,
		identity.Key, identity.CanonicalName, identity.Aliases, identity.Provisional,
	).Scan(&identity.CanonicalName, &identity.Aliases, &identity.Provisional, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		return wrapWriteErr("upsert speaker", err)
	}
	return nil
}

func (s *IdentityStore) GetByKey(ctx context.Context, key string) (*domain.SpeakerIdentity, error) {
	identity := &domain.SpeakerIdentity{}
	err := s.db.QueryRow(ctx,
		`SELECT key, canonical_name, aliases, provisional, created_at, updated_at
		 FROM speakers WHERE key = $1`,
		key,
	).Scan(&identity.Key, &identity.CanonicalName, &identity.Aliases, &identity.Provisional, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return identity, nil
}

func (s *IdentityStore) List(ctx context.Context) ([]domain.SpeakerIdentity, error) {
	rows, err := s.db.Query(ctx,
		`SELECT key, canonical_name, aliases, provisional, created_at, updated_at
		 FROM speakers ORDER BY canonical_name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list speakers: %w (%w)", ErrUnavailable, err)
	}
	defer rows.Close()

	var identities []domain.SpeakerIdentity
	for rows.Next() {
		var identity domain.SpeakerIdentity
		if err := rows.Scan(&identity.Key, &identity.CanonicalName, &identity.Aliases, &identity.Provisional, &identity.CreatedAt, &identity.UpdatedAt); err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}
