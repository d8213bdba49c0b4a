package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"pagecraft/internal/component"
	"pagecraft/internal/logging"
)

// CreateVariableIfMissing inserts a variable unless one with the same scope
// and name already exists. Returns true when a row was created.
func (s *Store) CreateVariableIfMissing(projectID string, v component.Variable) (bool, error) {
	initial, err := json.Marshal(v.InitialValue)
	if err != nil {
		return false, fmt.Errorf("encode variable %q: %w", v.Name, err)
	}
	res, err := s.db.Exec(`
		INSERT INTO variables (project_id, scope, name, data_type, initial_value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, scope, name) DO NOTHING`,
		projectID, string(v.Scope), v.Name, v.DataType, string(initial))
	if err != nil {
		return false, fmt.Errorf("write variable %q: %w", v.Name, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.Audit().Log(logging.AuditEvent{
			EventType: logging.AuditVariableCreate,
			Target:    string(v.Scope) + "." + v.Name,
			Success:   true,
			Message:   fmt.Sprintf("Variable created: %s.%s (%s)", v.Scope, v.Name, v.DataType),
		})
	}
	return n > 0, nil
}

// SetRuntimeValue updates a variable's runtime value.
func (s *Store) SetRuntimeValue(projectID string, scope component.VariableScope, name string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode runtime value for %q: %w", name, err)
	}
	_, err = s.db.Exec(`
		UPDATE variables SET runtime_value = ?
		WHERE project_id = ? AND scope = ? AND name = ?`,
		string(encoded), projectID, string(scope), name)
	if err != nil {
		return fmt.Errorf("set runtime value for %q: %w", name, err)
	}
	return nil
}

// VariablesByScope lists a project's variables in one scope.
func (s *Store) VariablesByScope(projectID string, scope component.VariableScope) ([]component.Variable, error) {
	rows, err := s.db.Query(`
		SELECT name, data_type, initial_value, runtime_value
		FROM variables WHERE project_id = ? AND scope = ? ORDER BY name`,
		projectID, string(scope))
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	defer rows.Close()

	var out []component.Variable
	for rows.Next() {
		v := component.Variable{Scope: scope}
		var initial, runtime sql.NullString
		if err := rows.Scan(&v.Name, &v.DataType, &initial, &runtime); err != nil {
			return nil, fmt.Errorf("scan variable: %w", err)
		}
		if initial.Valid {
			if err := json.Unmarshal([]byte(initial.String), &v.InitialValue); err != nil {
				v.InitialValue = initial.String
			}
		}
		if runtime.Valid {
			if err := json.Unmarshal([]byte(runtime.String), &v.RuntimeValue); err != nil {
				v.RuntimeValue = runtime.String
			}
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// HasVariable reports whether a variable exists in the given scope.
func (s *Store) HasVariable(projectID string, scope component.VariableScope, name string) (bool, error) {
	var one int
	err := s.db.QueryRow(`
		SELECT 1 FROM variables WHERE project_id = ? AND scope = ? AND name = ?`,
		projectID, string(scope), name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("variable lookup: %w", err)
	}
	return true, nil
}
