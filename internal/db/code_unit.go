package db

import (
	"context"
	"fmt"

	"github.com/dpolishuk/coderead/internal/models"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ListTopLevelUnits returns the units of a file that have no parent unit.
func (s *Store) ListTopLevelUnits(ctx context.Context, fileID string) ([]*models.CodeUnit, error) {
	return s.listUnits(ctx, `
		MATCH (u:CodeUnit {fileId: $id})
		WHERE u.parentId IS NULL
		RETURN u
		ORDER BY u.startLine
	`, fileID)
}

func (s *Store) ListChildUnits(ctx context.Context, unitID string) ([]*models.CodeUnit, error) {
	return s.listUnits(ctx, `
		MATCH (u:CodeUnit {parentId: $id})
		RETURN u
		ORDER BY u.startLine
	`, unitID)
}

// GetCodeUnit returns a unit with its direct children.
func (s *Store) GetCodeUnit(ctx context.Context, id string) (*models.CodeUnit, error) {
	units, err := s.listUnits(ctx, `MATCH (u:CodeUnit {id: $id}) RETURN u`, id)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("code unit: %w", ErrNotFound)
	}

	unit := units[0]
	unit.Children, err = s.ListChildUnits(ctx, id)
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *Store) listUnits(ctx context.Context, query, id string) ([]*models.CodeUnit, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		units := []*models.CodeUnit{}
		for records.Next(ctx) {
			units = append(units, toCodeUnit(props(records.Record(), "u")))
		}
		return units, records.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.CodeUnit), nil
}
