package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/scene"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

var objectColumns = []string{
	"snapshot_id", "seq", "entity_id", "parent_id", "name",
	"px", "py", "pz", "qw", "qx", "qy", "qz", "sx", "sy", "sz", "mesh",
}

type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Save replaces the snapshot called name with the current graph in a single
// transaction.
func (r *SnapshotRepo) Save(ctx context.Context, name string, graph *scene.Graph) error {
	rows := RowsFromGraph(graph)

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO scene_snapshots (name, revision, objects, saved_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (name) DO UPDATE
		 SET revision = EXCLUDED.revision, objects = EXCLUDED.objects, saved_at = EXCLUDED.saved_at
		 RETURNING id`,
		name, int64(graph.Revision()), len(rows),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("snapshot upsert: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM scene_objects WHERE snapshot_id = $1`, id); err != nil {
		return fmt.Errorf("snapshot clear: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"scene_objects"}, objectColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			o := rows[i]
			q := o.Orientation
			return []any{
				id, i, int64(o.EntityID), int64(o.ParentID), o.Name,
				o.Position[0], o.Position[1], o.Position[2],
				q.W, q.V[0], q.V[1], q.V[2],
				o.Scale[0], o.Scale[1], o.Scale[2],
				o.Mesh,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("snapshot copy objects: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("snapshot commit: %w", err)
	}
	r.db.log.Debug("snapshot written", zap.String("name", name), zap.Int("objects", len(rows)))
	return nil
}

// Load returns the rows of the snapshot called name in save order.
func (r *SnapshotRepo) Load(ctx context.Context, name string) ([]ObjectRow, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id FROM scene_snapshots WHERE name = $1`, name,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load snapshot %q: %w", name, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", name, err)
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT entity_id, parent_id, name, px, py, pz, qw, qx, qy, qz, sx, sy, sz, mesh
		 FROM scene_objects WHERE snapshot_id = $1 ORDER BY seq`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	defer rows.Close()

	var result []ObjectRow
	for rows.Next() {
		var (
			o              ObjectRow
			entity, parent int64
		)
		if err := rows.Scan(
			&entity, &parent, &o.Name,
			&o.Position[0], &o.Position[1], &o.Position[2],
			&o.Orientation.W, &o.Orientation.V[0], &o.Orientation.V[1], &o.Orientation.V[2],
			&o.Scale[0], &o.Scale[1], &o.Scale[2],
			&o.Mesh,
		); err != nil {
			return nil, fmt.Errorf("load snapshot %q: %w", name, err)
		}
		o.EntityID = ecs.EntityID(entity)
		o.ParentID = ecs.EntityID(parent)
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	return result, nil
}

// Delete removes the snapshot called name. Deleting a missing snapshot is
// not an error.
func (r *SnapshotRepo) Delete(ctx context.Context, name string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM scene_snapshots WHERE name = $1`, name); err != nil {
		return fmt.Errorf("delete snapshot %q: %w", name, err)
	}
	r.db.log.Info("snapshot deleted", zap.String("name", name))
	return nil
}
