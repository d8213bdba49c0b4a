package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"pagecraft/internal/component"
	"pagecraft/internal/logging"
)

// ErrIndexOutOfRange is returned by ReplaceComponentAt for a bad index.
var ErrIndexOutOfRange = errors.New("component index out of range")

// Components returns the page's current top-level component list. A page that
// does not exist yet reads as empty.
func (s *Store) Components(projectID, pageID string) ([]*component.Node, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT components FROM pages WHERE project_id = ? AND page_id = ?`,
		projectID, pageID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []*component.Node{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read page components: %w", err)
	}

	var nodes []*component.Node
	if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
		return nil, fmt.Errorf("decode page components: %w", err)
	}
	return nodes, nil
}

// writeComponents persists the full component list and refreshes class
// reference counts for the page delta.
func (s *Store) writeComponents(projectID, pageID string, nodes []*component.Node) error {
	encoded, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("encode page components: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO pages (project_id, page_id, components, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(project_id, page_id)
		DO UPDATE SET components = excluded.components, updated_at = CURRENT_TIMESTAMP`,
		projectID, pageID, string(encoded))
	if err != nil {
		return fmt.Errorf("write page components: %w", err)
	}
	return nil
}

// AppendComponent re-reads the freshest snapshot, appends one node, and
// writes back, registering the node's class references.
func (s *Store) AppendComponent(projectID, pageID string, node *component.Node) error {
	nodes, err := s.Components(projectID, pageID)
	if err != nil {
		return err
	}
	nodes = append(nodes, node)
	if err := s.writeComponents(projectID, pageID, nodes); err != nil {
		return err
	}
	s.addClassRefs(projectID, node)
	logging.Audit().DocumentMutation(logging.AuditComponentAppend, node.ID, len(nodes)-1)
	return nil
}

// ReplaceComponentAt surgically replaces the node at index, leaving every
// other sibling untouched.
func (s *Store) ReplaceComponentAt(projectID, pageID string, index int, node *component.Node) error {
	nodes, err := s.Components(projectID, pageID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(nodes) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(nodes))
	}
	s.releaseClassRefs(projectID, nodes[index])
	nodes[index] = node
	if err := s.writeComponents(projectID, pageID, nodes); err != nil {
		return err
	}
	s.addClassRefs(projectID, node)
	logging.Audit().DocumentMutation(logging.AuditComponentReplace, node.ID, index)
	return nil
}

// ReplaceAll atomically replaces the whole component list.
func (s *Store) ReplaceAll(projectID, pageID string, nodes []*component.Node) error {
	previous, err := s.Components(projectID, pageID)
	if err != nil {
		return err
	}
	for _, old := range previous {
		s.releaseClassRefs(projectID, old)
	}
	if err := s.writeComponents(projectID, pageID, nodes); err != nil {
		return err
	}
	for _, n := range nodes {
		s.addClassRefs(projectID, n)
	}
	logging.Audit().DocumentMutation(logging.AuditBatchReplace, pageID, len(nodes))
	return nil
}

// ClearComponents releases the class references held by the page's components
// and then empties the list. Cleanup happens before the clear so references
// never dangle.
func (s *Store) ClearComponents(projectID, pageID string) error {
	nodes, err := s.Components(projectID, pageID)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		s.releaseClassRefs(projectID, n)
	}
	if err := s.writeComponents(projectID, pageID, []*component.Node{}); err != nil {
		return err
	}
	logging.Audit().DocumentMutation(logging.AuditDocumentClear, pageID, 0)
	return nil
}

// SaveDesignSeed persists the page's design seed so a later section edit can
// match the original build's visual identity.
func (s *Store) SaveDesignSeed(projectID, pageID string, seed *component.DesignSeed) error {
	encoded, err := json.Marshal(seed)
	if err != nil {
		return fmt.Errorf("encode design seed: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO design_seeds (project_id, page_id, seed, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(project_id, page_id)
		DO UPDATE SET seed = excluded.seed, updated_at = CURRENT_TIMESTAMP`,
		projectID, pageID, string(encoded))
	if err != nil {
		return fmt.Errorf("write design seed: %w", err)
	}
	return nil
}

// DesignSeed returns the page's persisted design seed, or nil if none exists.
func (s *Store) DesignSeed(projectID, pageID string) (*component.DesignSeed, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT seed FROM design_seeds WHERE project_id = ? AND page_id = ?`,
		projectID, pageID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read design seed: %w", err)
	}
	var seed component.DesignSeed
	if err := json.Unmarshal([]byte(raw), &seed); err != nil {
		return nil, fmt.Errorf("decode design seed: %w", err)
	}
	return &seed, nil
}
