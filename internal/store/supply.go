package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/community-eats/apiserver/types"
)

// SupplyRepository handles persistence for supplies.
type SupplyRepository struct {
	db *sql.DB
}

func NewSupplyRepository(db *sql.DB) *SupplyRepository {
	return &SupplyRepository{db: db}
}

func (r *SupplyRepository) List(ctx context.Context) ([]types.Supply, error) {
	const query = `
		SELECT id, image_link, title, category, quantity, description, created_at, updated_at
		FROM supplies
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	supplies := make([]types.Supply, 0)
	for rows.Next() {
		var supply types.Supply
		if err := rows.Scan(
			&supply.ID,
			&supply.ImageLink,
			&supply.Title,
			&supply.Category,
			&supply.Quantity,
			&supply.Description,
			&supply.CreatedAt,
			&supply.UpdatedAt,
		); err != nil {
			return nil, err
		}
		supplies = append(supplies, supply)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return supplies, nil
}

func (r *SupplyRepository) Get(ctx context.Context, id int) (types.Supply, error) {
	const query = `
		SELECT id, image_link, title, category, quantity, description, created_at, updated_at
		FROM supplies
		WHERE id = $1`
	var supply types.Supply
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&supply.ID,
		&supply.ImageLink,
		&supply.Title,
		&supply.Category,
		&supply.Quantity,
		&supply.Description,
		&supply.CreatedAt,
		&supply.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Supply{}, ErrNotFound
		}
		return types.Supply{}, err
	}
	return supply, nil
}

func (r *SupplyRepository) Create(ctx context.Context, supply types.Supply) (types.Supply, error) {
	now := time.Now()
	supply.CreatedAt = now
	supply.UpdatedAt = now

	const query = `
		INSERT INTO supplies (image_link, title, category, quantity, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		supply.ImageLink,
		supply.Title,
		supply.Category,
		supply.Quantity,
		supply.Description,
		supply.CreatedAt,
		supply.UpdatedAt,
	).Scan(&supply.ID); err != nil {
		return types.Supply{}, err
	}

	return supply, nil
}

// Update replaces all five supply fields in a single conditional statement,
// so a concurrent delete cannot slip between an existence probe and the write.
func (r *SupplyRepository) Update(ctx context.Context, supply types.Supply) (types.Supply, error) {
	supply.UpdatedAt = time.Now()

	const query = `
		UPDATE supplies
		SET image_link = $1,
			title = $2,
			category = $3,
			quantity = $4,
			description = $5,
			updated_at = $6
		WHERE id = $7
		RETURNING created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		supply.ImageLink,
		supply.Title,
		supply.Category,
		supply.Quantity,
		supply.Description,
		supply.UpdatedAt,
		supply.ID,
	).Scan(&supply.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Supply{}, ErrNotFound
		}
		return types.Supply{}, err
	}

	return supply, nil
}

func (r *SupplyRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM supplies WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
