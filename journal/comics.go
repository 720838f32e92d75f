package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/toonana/toonana/errors"
)

// SaveStoryboard records the drafting-stage output for an entry.
func (s *Store) SaveStoryboard(ctx context.Context, entryID, body, model string) (*Storyboard, error) {
	sb := &Storyboard{
		ID:        uuid.NewString(),
		EntryID:   entryID,
		Body:      body,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO storyboards (id, entry_id, body_cipher, model, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sb.ID, sb.EntryID, s.codec.Encode(sb.Body), sb.Model, formatTime(sb.CreatedAt))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrPersist, "save storyboard for entry %s: %v", entryID, err)
	}
	return sb, nil
}

// LatestStoryboard returns the newest storyboard for an entry, or
// ErrNotFound when the entry was never drafted.
func (s *Store) LatestStoryboard(ctx context.Context, entryID string) (*Storyboard, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, entry_id, body_cipher, model, created_at
		FROM storyboards
		WHERE entry_id = ?
		ORDER BY created_at DESC
		LIMIT 1`, entryID)

	var (
		sb         Storyboard
		bodyCipher []byte
		createdAt  string
	)
	err := row.Scan(&sb.ID, &sb.EntryID, &bodyCipher, &sb.Model, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("no storyboard for entry %s", entryID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load storyboard for entry %s", entryID)
	}

	if sb.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, errors.Wrap(err, "parse created_at")
	}
	if sb.Body, err = s.codec.Decode(bodyCipher); err != nil {
		return nil, errors.Wrapf(err, "storyboard %s", sb.ID)
	}
	return &sb, nil
}

// ReplacePanels swaps the full panel set for an entry inside one
// transaction, so a re-render never leaves a mixed set behind.
func (s *Store) ReplacePanels(ctx context.Context, entryID string, panels []Panel) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin panel replace")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM panels WHERE entry_id = ?`, entryID); err != nil {
		return errors.Wrapf(errors.ErrPersist, "clear panels for entry %s: %v", entryID, err)
	}

	for i := range panels {
		p := &panels[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.EntryID = entryID

		_, err := tx.ExecContext(ctx, `
			INSERT INTO panels (id, entry_id, idx, prompt_cipher, dialogue_cipher, style, image_path)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.EntryID, p.Index,
			s.codec.Encode(p.Prompt), s.codec.Encode(p.Dialogue),
			nullable(p.Style), nullable(p.ImagePath))
		if err != nil {
			return errors.Wrapf(errors.ErrPersist, "insert panel %d for entry %s: %v", p.Index, entryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(errors.ErrPersist, "commit panels for entry %s: %v", entryID, err)
	}
	return nil
}

// Panels returns an entry's panels ordered by index.
func (s *Store) Panels(ctx context.Context, entryID string) ([]Panel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, idx, prompt_cipher, dialogue_cipher, style, image_path
		FROM panels
		WHERE entry_id = ?
		ORDER BY idx ASC`, entryID)
	if err != nil {
		return nil, errors.Wrapf(err, "list panels for entry %s", entryID)
	}
	defer rows.Close()

	var panels []Panel
	for rows.Next() {
		var (
			p              Panel
			promptCipher   []byte
			dialogueCipher []byte
			style          sql.NullString
			imagePath      sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.EntryID, &p.Index, &promptCipher, &dialogueCipher, &style, &imagePath); err != nil {
			return nil, errors.Wrap(err, "scan panel row")
		}

		if p.Prompt, err = s.codec.Decode(promptCipher); err != nil {
			return nil, errors.Wrapf(err, "panel %s prompt", p.ID)
		}
		if p.Dialogue, err = s.codec.Decode(dialogueCipher); err != nil {
			return nil, errors.Wrapf(err, "panel %s dialogue", p.ID)
		}
		p.Style = style.String
		p.ImagePath = imagePath.String
		panels = append(panels, p)
	}
	return panels, rows.Err()
}

// ComicDay aggregates rendered output for one calendar day.
type ComicDay struct {
	Day        string `json:"day"`
	EntryCount int    `json:"entry_count"`
	PanelCount int    `json:"panel_count"`
}

// ComicsByDay groups entries that have rendered panels by creation day,
// newest day first.
func (s *Store) ComicsByDay(ctx context.Context) ([]ComicDay, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(e.created_at, 1, 10) AS day,
		       COUNT(DISTINCT e.id),
		       COUNT(p.id)
		FROM entries e
		JOIN panels p ON p.entry_id = e.id
		GROUP BY day
		ORDER BY day DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "group comics by day")
	}
	defer rows.Close()

	var days []ComicDay
	for rows.Next() {
		var d ComicDay
		if err := rows.Scan(&d.Day, &d.EntryCount, &d.PanelCount); err != nil {
			return nil, errors.Wrap(err, "scan comic day")
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
