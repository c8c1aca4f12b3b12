package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/housecheck/internal/domain"
)

type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// GetActive returns the active template for checkType with its sections and
// items, or nil if none is published.
func (s *TemplateStore) GetActive(ctx context.Context, checkType string) (*domain.Template, error) {
	tpl := &domain.Template{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, check_type, name, version, active, created_at FROM inspection_templates
		WHERE check_type = ? AND active = 1 ORDER BY version DESC LIMIT 1
	`, checkType).Scan(&tpl.ID, &tpl.CheckType, &tpl.Name, &tpl.Version, &tpl.Active, &tpl.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active template: %w", err)
	}

	if err := s.loadSections(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// GetByID returns a specific template version regardless of whether it is
// still active.
func (s *TemplateStore) GetByID(ctx context.Context, id int64) (*domain.Template, error) {
	tpl := &domain.Template{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, check_type, name, version, active, created_at FROM inspection_templates WHERE id = ?
	`, id).Scan(&tpl.ID, &tpl.CheckType, &tpl.Name, &tpl.Version, &tpl.Active, &tpl.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	if err := s.loadSections(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// List returns template headers (without sections) ordered by check type and version.
func (s *TemplateStore) List(ctx context.Context) ([]*domain.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, check_type, name, version, active, created_at FROM inspection_templates
		ORDER BY check_type ASC, version ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer closeRows(rows)

	var templates []*domain.Template
	for rows.Next() {
		tpl := &domain.Template{}
		if err := rows.Scan(&tpl.ID, &tpl.CheckType, &tpl.Name, &tpl.Version, &tpl.Active, &tpl.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tpl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

// Publish stores tpl as the next version of its check type and makes it the
// only active template for that type. Earlier versions stay readable so
// sessions that reference them keep stable item IDs.
func (s *TemplateStore) Publish(ctx context.Context, tpl *domain.Template) (*domain.Template, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1 FROM inspection_templates WHERE check_type = ?
	`, tpl.CheckType).Scan(&version); err != nil {
		return nil, fmt.Errorf("failed to get next template version: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE inspection_templates SET active = 0 WHERE check_type = ?
	`, tpl.CheckType); err != nil {
		return nil, fmt.Errorf("failed to deactivate templates: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO inspection_templates (check_type, name, version, active) VALUES (?, ?, ?, 1)
	`, tpl.CheckType, tpl.Name, version)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	templateID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	for si, sec := range tpl.Sections {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO template_sections (template_id, section_key, name, sort_order) VALUES (?, ?, ?, ?)
		`, templateID, sec.Key, sec.Name, si)
		if err != nil {
			return nil, fmt.Errorf("failed to create section %s: %w", sec.Key, err)
		}
		sectionID, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get last insert id: %w", err)
		}

		for ii, item := range sec.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO template_items (section_id, item_key, label, required, kind, min_photos, sort_order)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, sectionID, item.ID, item.Label, item.Required, domain.KindName(item.Kind), domain.MinPhotos(item.Kind), ii); err != nil {
				return nil, fmt.Errorf("failed to create item %s: %w", item.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit template: %w", err)
	}

	return s.GetByID(ctx, templateID)
}

func (s *TemplateStore) loadSections(ctx context.Context, tpl *domain.Template) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, section_key, name, sort_order FROM template_sections
		WHERE template_id = ? ORDER BY sort_order ASC, id ASC
	`, tpl.ID)
	if err != nil {
		return fmt.Errorf("failed to list sections: %w", err)
	}

	index := make(map[int64]int)
	for rows.Next() {
		var sec domain.Section
		if err := rows.Scan(&sec.ID, &sec.Key, &sec.Name, &sec.SortOrder); err != nil {
			closeRows(rows)
			return fmt.Errorf("failed to scan section: %w", err)
		}
		index[sec.ID] = len(tpl.Sections)
		tpl.Sections = append(tpl.Sections, sec)
	}
	if err := rows.Err(); err != nil {
		closeRows(rows)
		return fmt.Errorf("error iterating sections: %w", err)
	}
	// Closed before the next query: the pool holds a single connection.
	closeRows(rows)

	rows, err = s.db.QueryContext(ctx, `
		SELECT i.section_id, i.item_key, i.label, i.required, i.kind, i.min_photos, i.sort_order
		FROM template_items i
		JOIN template_sections s ON s.id = i.section_id
		WHERE s.template_id = ?
		ORDER BY i.sort_order ASC, i.id ASC
	`, tpl.ID)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var (
			sectionID int64
			item      domain.Item
			kind      string
			minPhotos int
		)
		if err := rows.Scan(&sectionID, &item.ID, &item.Label, &item.Required, &kind, &minPhotos, &item.SortOrder); err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}
		item.Kind, err = domain.ParseItemKind(kind, minPhotos)
		if err != nil {
			return fmt.Errorf("item %s: %w", item.ID, err)
		}
		idx, ok := index[sectionID]
		if !ok {
			continue
		}
		tpl.Sections[idx].Items = append(tpl.Sections[idx].Items, item)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating items: %w", err)
	}
	return nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}
}
