package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearaf/api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const productCols = `id, name, brand, description, category, price, image_url,
	ingredients, skin_types, prescription_required, is_available, rating,
	created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Description, &p.Category,
		&p.Price, &p.ImageURL, &p.Ingredients, &p.SkinTypes,
		&p.PrescriptionRequired, &p.IsAvailable, &p.Rating,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO products (id, name, brand, description, category, price,
			image_url, ingredients, skin_types, prescription_required)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING is_available, created_at, updated_at`,
		p.ID, p.Name, p.Brand, p.Description, p.Category, p.Price,
		p.ImageURL, p.Ingredients, p.SkinTypes, p.PrescriptionRequired).
		Scan(&p.IsAvailable, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetAvailable(ctx context.Context, id uuid.UUID) (*Product, error) {
	return scanProduct(r.conn(ctx).QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id = $1 AND is_available`, id))
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return scanProduct(r.conn(ctx).QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Product) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE products SET name=$2, brand=$3, description=$4, category=$5,
			price=$6, image_url=$7, ingredients=$8, skin_types=$9,
			prescription_required=$10, is_available=$11, rating=$12,
			updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Brand, p.Description, p.Category, p.Price, p.ImageURL,
		p.Ingredients, p.SkinTypes, p.PrescriptionRequired, p.IsAvailable, p.Rating)
	return err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Product, int, error) {
	where := `is_available`
	args := []interface{}{}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(` AND (name ILIKE $%d OR brand ILIKE $%d)`, len(args), len(args))
	}
	if f.PrescriptionRequired != nil {
		args = append(args, *f.PrescriptionRequired)
		where += fmt.Sprintf(` AND prescription_required = $%d`, len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM products WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		productCols, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) CategoryCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT category, COUNT(*) FROM products WHERE is_available GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[category] = n
	}
	return counts, rows.Err()
}
