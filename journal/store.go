package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/toonana/toonana/errors"
	"github.com/toonana/toonana/logger"
)

// Store persists journal entries and comic artifacts.
type Store struct {
	db        *sql.DB
	codec     Codec
	imagesDir string
}

// NewStore wires a store over an already-migrated database. imagesDir is
// where rendered panel images live; Delete removes an entry's image
// directory along with its rows.
func NewStore(db *sql.DB, codec Codec, imagesDir string) *Store {
	return &Store{db: db, codec: codec, imagesDir: imagesDir}
}

// Upsert creates or updates an entry. An empty draft ID creates a new
// entry with a generated UUID. On update, created_at is preserved.
func (s *Store) Upsert(ctx context.Context, draft Draft) (*Entry, error) {
	id := draft.ID
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	bodyCipher := s.codec.Encode(draft.Body)

	tagsJSON, err := marshalTags(draft.Tags)
	if err != nil {
		return nil, errors.Wrap(errors.ErrPersist, err.Error())
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (id, created_at, updated_at, body_cipher, mood, tags)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			updated_at  = excluded.updated_at,
			body_cipher = excluded.body_cipher,
			mood        = excluded.mood,
			tags        = excluded.tags`,
		id, formatTime(now), formatTime(now), bodyCipher,
		nullable(draft.Mood), tagsJSON)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrPersist, "upsert entry %s: %v", id, err)
	}

	return s.Get(ctx, id)
}

// Get loads a single entry with its body decoded. Returns ErrNotFound
// for unknown IDs and ErrDecode when the stored body cannot be opened.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, body_cipher, mood, tags
		FROM entries WHERE id = ?`, id)

	entry, bodyCipher, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("entry %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load entry %s", id)
	}

	body, err := s.codec.Decode(bodyCipher)
	if err != nil {
		return nil, errors.Wrapf(err, "entry %s", id)
	}
	entry.Body = body
	return entry, nil
}

// List returns summaries newest-first. A non-positive limit defaults to
// 50. Bodies that fail to decode produce an empty preview rather than
// failing the whole listing.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, updated_at, body_cipher, mood, tags
		FROM entries
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list entries")
	}
	defer rows.Close()

	summaries := make([]Summary, 0, limit)
	for rows.Next() {
		entry, bodyCipher, err := scanEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan entry row")
		}

		body, err := s.codec.Decode(bodyCipher)
		if err != nil {
			logger.Warnw("entry body failed to decode, listing without preview",
				logger.FieldEntryID, entry.ID,
				logger.FieldError, err)
			body = ""
		}

		summaries = append(summaries, Summary{
			ID:        entry.ID,
			CreatedAt: entry.CreatedAt,
			UpdatedAt: entry.UpdatedAt,
			Preview:   preview(body),
			Mood:      entry.Mood,
			Tags:      entry.Tags,
		})
	}
	return summaries, rows.Err()
}

// Delete removes an entry, its storyboards and panels (via cascade), and
// its rendered images. Deleting an unknown ID is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
		return errors.Wrapf(err, "delete entry %s", id)
	}

	if s.imagesDir != "" {
		dir := filepath.Join(s.imagesDir, id)
		if err := os.RemoveAll(dir); err != nil {
			logger.Warnw("failed to remove entry images",
				logger.FieldEntryID, id,
				logger.FieldPath, dir,
				logger.FieldError, err)
		}
	}
	return nil
}

// Count returns the total number of entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "count entries")
	}
	return count, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, []byte, error) {
	var (
		entry      Entry
		createdAt  string
		updatedAt  string
		bodyCipher []byte
		mood       sql.NullString
		tagsJSON   sql.NullString
	)

	if err := row.Scan(&entry.ID, &createdAt, &updatedAt, &bodyCipher, &mood, &tagsJSON); err != nil {
		return nil, nil, err
	}

	var err error
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, nil, errors.Wrap(err, "parse created_at")
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, nil, errors.Wrap(err, "parse updated_at")
	}

	entry.Mood = mood.String
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &entry.Tags); err != nil {
			return nil, nil, errors.Wrap(err, "parse tags")
		}
	}
	return &entry, bodyCipher, nil
}

func marshalTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
