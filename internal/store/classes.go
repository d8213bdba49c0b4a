package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pagecraft/internal/component"
	"pagecraft/internal/logging"
)

// GetClass returns a class by name within a project.
func (s *Store) GetClass(projectID, name string) (component.Class, bool, error) {
	var (
		raw       string
		isAuto    int
		createdAt time.Time
	)
	err := s.db.QueryRow(
		`SELECT styles, is_auto, created_at FROM classes WHERE project_id = ? AND name = ?`,
		projectID, name,
	).Scan(&raw, &isAuto, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return component.Class{}, false, nil
	}
	if err != nil {
		return component.Class{}, false, fmt.Errorf("read class %q: %w", name, err)
	}

	var styles map[string]any
	if err := json.Unmarshal([]byte(raw), &styles); err != nil {
		return component.Class{}, false, fmt.Errorf("decode class %q: %w", name, err)
	}
	return component.Class{
		Name:        name,
		Styles:      styles,
		IsAutoClass: isAuto != 0,
		CreatedAt:   createdAt,
	}, true, nil
}

// SaveClass inserts a class. Existing rows are left untouched; reuse goes
// through the synthesizer's dedup, never through silent overwrite.
func (s *Store) SaveClass(projectID string, c component.Class) error {
	encoded, err := json.Marshal(c.Styles)
	if err != nil {
		return fmt.Errorf("encode class styles: %w", err)
	}
	isAuto := 0
	if c.IsAutoClass {
		isAuto = 1
	}
	_, err = s.db.Exec(`
		INSERT INTO classes (project_id, name, styles, is_auto)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, name) DO NOTHING`,
		projectID, c.Name, string(encoded), isAuto)
	if err != nil {
		return fmt.Errorf("write class %q: %w", c.Name, err)
	}
	return nil
}

// ListClasses returns every class in the project.
func (s *Store) ListClasses(projectID string) ([]component.Class, error) {
	rows, err := s.db.Query(
		`SELECT name, styles, is_auto, created_at FROM classes WHERE project_id = ? ORDER BY name`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var out []component.Class
	for rows.Next() {
		var (
			c         component.Class
			raw       string
			isAuto    int
			createdAt time.Time
		)
		if err := rows.Scan(&c.Name, &raw, &isAuto, &createdAt); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &c.Styles); err != nil {
			logging.StoreError("skipping undecodable class %q: %v", c.Name, err)
			continue
		}
		c.IsAutoClass = isAuto != 0
		c.CreatedAt = createdAt
		out = append(out, c)
	}
	return out, rows.Err()
}

// addClassRefs increments reference counts for every class the subtree applies.
func (s *Store) addClassRefs(projectID string, node *component.Node) {
	s.bumpClassRefs(projectID, node, +1)
}

// releaseClassRefs decrements reference counts for every class the subtree
// applies, called before the referencing components are removed.
func (s *Store) releaseClassRefs(projectID string, node *component.Node) {
	s.bumpClassRefs(projectID, node, -1)
}

func (s *Store) bumpClassRefs(projectID string, node *component.Node, delta int) {
	counts := map[string]int{}
	node.Walk(func(n *component.Node) {
		for _, name := range n.ClassNames {
			counts[name] += delta
		}
	})
	for name, d := range counts {
		if _, err := s.db.Exec(
			`UPDATE classes SET ref_count = MAX(0, ref_count + ?) WHERE project_id = ? AND name = ?`,
			d, projectID, name); err != nil {
			logging.StoreError("class ref update failed for %q: %v", name, err)
		}
	}
}

// ReconcileOrphans deletes auto-generated classes with no remaining
// references. User-authored classes are never pruned.
func (s *Store) ReconcileOrphans(projectID string) (int, error) {
	res, err := s.db.Exec(
		`DELETE FROM classes WHERE project_id = ? AND is_auto = 1 AND ref_count <= 0`,
		projectID)
	if err != nil {
		return 0, fmt.Errorf("reconcile orphan classes: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.Store("reconciled %d orphan classes in %s", n, projectID)
	}
	return int(n), nil
}

// ProjectClasses adapts the store to the synthesizer's class interface for
// one project.
type ProjectClasses struct {
	store     *Store
	projectID string
}

// ClassesFor returns the project-scoped class store.
func (s *Store) ClassesFor(projectID string) *ProjectClasses {
	return &ProjectClasses{store: s, projectID: projectID}
}

func (p *ProjectClasses) GetClass(name string) (component.Class, bool) {
	c, ok, err := p.store.GetClass(p.projectID, name)
	if err != nil {
		logging.StoreError("class lookup failed for %q: %v", name, err)
		return component.Class{}, false
	}
	return c, ok
}

func (p *ProjectClasses) SaveClass(c component.Class) error {
	return p.store.SaveClass(p.projectID, c)
}

func (p *ProjectClasses) AutoClasses() []component.Class {
	all, err := p.store.ListClasses(p.projectID)
	if err != nil {
		logging.StoreError("class list failed: %v", err)
		return nil
	}
	out := all[:0]
	for _, c := range all {
		if c.IsAutoClass {
			out = append(out, c)
		}
	}
	return out
}
