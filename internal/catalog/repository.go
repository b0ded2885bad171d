package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/validate"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrCollectionNotEmpty   = errors.New("collection cannot be deleted because it contains products")
	ErrProductHasOrderItems = errors.New("product cannot be deleted because it is associated with an order item")
)

type Repository interface {
	ListCollections(ctx context.Context) ([]Collection, error)
	GetCollection(ctx context.Context, id int64) (Collection, error)
	CreateCollection(ctx context.Context, c Collection) (Collection, error)
	UpdateCollection(ctx context.Context, c Collection) (Collection, error)
	DeleteCollection(ctx context.Context, id int64) error

	ListProducts(ctx context.Context, q ProductQuery) (ProductPage, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ProductExists(ctx context.Context, id int64) (bool, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListPromotions(ctx context.Context) ([]Promotion, error)
	CreatePromotion(ctx context.Context, p Promotion) (Promotion, error)

	ListReviews(ctx context.Context, productID int64) ([]Review, error)
	GetReview(ctx context.Context, productID, id int64) (Review, error)
	CreateReview(ctx context.Context, r Review) (Review, error)
	UpdateReview(ctx context.Context, r Review) (Review, error)
	DeleteReview(ctx context.Context, productID, id int64) error

	ListImages(ctx context.Context, productID int64) ([]ProductImage, error)
	GetImage(ctx context.Context, productID, id int64) (ProductImage, error)
	CreateImage(ctx context.Context, img ProductImage) (ProductImage, error)
	DeleteImage(ctx context.Context, productID, id int64) (ProductImage, error)
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// --- collections ---

const selectCollection = `
	SELECT c.id, c.title, COUNT(p.id)::int
	FROM store_collection c
	LEFT JOIN store_product p ON p.collection_id = c.id`

func (r *PostgresRepository) ListCollections(ctx context.Context) ([]Collection, error) {
	rows, err := r.pool.Query(ctx, selectCollection+`
	GROUP BY c.id
	ORDER BY c.id`)
	if err != nil {
		return nil, errors.Wrap(err, "select collections")
	}
	defer rows.Close()

	collections := []Collection{}
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.ID, &c.Title, &c.ProductsCount); err != nil {
			return nil, errors.Wrap(err, "scan collection")
		}
		collections = append(collections, c)
	}
	return collections, errors.Wrap(rows.Err(), "rows")
}

func (r *PostgresRepository) GetCollection(ctx context.Context, id int64) (Collection, error) {
	var c Collection
	err := r.pool.QueryRow(ctx, selectCollection+`
	WHERE c.id = $1
	GROUP BY c.id`, id).Scan(&c.ID, &c.Title, &c.ProductsCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Collection{}, ErrNotFound
		}
		return Collection{}, errors.Wrap(err, "select collection")
	}
	return c, nil
}

func (r *PostgresRepository) CreateCollection(ctx context.Context, c Collection) (Collection, error) {
	if err := r.pool.QueryRow(ctx,
		`INSERT INTO store_collection (title) VALUES ($1) RETURNING id`,
		c.Title,
	).Scan(&c.ID); err != nil {
		return Collection{}, errors.Wrap(err, "insert collection")
	}
	c.ProductsCount = 0
	return c, nil
}

func (r *PostgresRepository) UpdateCollection(ctx context.Context, c Collection) (Collection, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE store_collection SET title = $2 WHERE id = $1`, c.ID, c.Title)
	if err != nil {
		return Collection{}, errors.Wrap(err, "update collection")
	}
	if tag.RowsAffected() == 0 {
		return Collection{}, ErrNotFound
	}
	return r.GetCollection(ctx, c.ID)
}

// DeleteCollection refuses to delete a collection that still owns products.
// The collection row is locked first so no product can be attached between the
// check and the delete.
func (r *PostgresRepository) DeleteCollection(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		if err := tx.QueryRow(ctx,
			`SELECT id FROM store_collection WHERE id = $1 FOR UPDATE`, id,
		).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return errors.Wrap(err, "lock collection")
		}

		var hasProducts bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM store_product WHERE collection_id = $1)`, id,
		).Scan(&hasProducts); err != nil {
			return errors.Wrap(err, "count collection products")
		}
		if hasProducts {
			return ErrCollectionNotEmpty
		}

		if _, err := tx.Exec(ctx, `DELETE FROM store_collection WHERE id = $1`, id); err != nil {
			return errors.Wrap(err, "delete collection")
		}
		return nil
	})
}

// --- products ---

const productColumns = `p.id, p.title, p.slug, p.description, p.unit_price, p.inventory, p.last_update, p.collection_id`

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.UnitPrice, &p.Inventory, &p.LastUpdate, &p.CollectionID)
}

var orderings = map[Ordering]string{
	OrderByDefault:        "p.id",
	OrderByPriceAsc:       "p.unit_price, p.id",
	OrderByPriceDesc:      "p.unit_price DESC, p.id",
	OrderByLastUpdateAsc:  "p.last_update, p.id",
	OrderByLastUpdateDesc: "p.last_update DESC, p.id",
}

func buildProductFilter(q ProductQuery) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if q.CollectionID > 0 {
		add("p.collection_id = $%d", q.CollectionID)
	}
	if q.MinPrice != nil {
		add("p.unit_price > $%d", db.Numeric(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		add("p.unit_price < $%d", db.Numeric(*q.MaxPrice))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		add("(p.title ILIKE $%[1]d OR p.description ILIKE $%[1]d)", "%"+escapeLike(s)+"%")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PostgresRepository) ListProducts(ctx context.Context, q ProductQuery) (ProductPage, error) {
	orderBy, ok := orderings[q.Ordering]
	if !ok {
		return ProductPage{}, errors.Errorf("unsupported ordering %q", q.Ordering)
	}

	where, args := buildProductFilter(q)

	var page ProductPage
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)::int FROM store_product p`+where, args...,
	).Scan(&page.Count); err != nil {
		return ProductPage{}, errors.Wrap(err, "count products")
	}

	query := `SELECT ` + productColumns + ` FROM store_product p` + where + ` ORDER BY ` + orderBy
	if q.Limit > 0 {
		args = append(args, q.Limit, q.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return ProductPage{}, errors.Wrap(err, "select products")
	}
	defer rows.Close()

	page.Products = []Product{}
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return ProductPage{}, errors.Wrap(err, "scan product")
		}
		page.Products = append(page.Products, p)
	}
	if err := rows.Err(); err != nil {
		return ProductPage{}, errors.Wrap(err, "rows")
	}

	if err := r.attachRelations(ctx, page.Products); err != nil {
		return ProductPage{}, err
	}
	return page, nil
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	if err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM store_product p WHERE p.id = $1`, id,
	), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, errors.Wrap(err, "select product")
	}

	products := []Product{p}
	if err := r.attachRelations(ctx, products); err != nil {
		return Product{}, err
	}
	return products[0], nil
}

func (r *PostgresRepository) ProductExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM store_product WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "product exists")
	}
	return exists, nil
}

// attachRelations loads images and promotion ids for the given products in two queries.
func (r *PostgresRepository) attachRelations(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	index := make(map[int64]int, len(products))
	for i := range products {
		ids[i] = products[i].ID
		index[products[i].ID] = i
		products[i].Images = []ProductImage{}
		products[i].Promotions = []int64{}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, image FROM store_productimage WHERE product_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return errors.Wrap(err, "select product images")
	}
	for rows.Next() {
		var img ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.Image); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan product image")
		}
		if i, ok := index[img.ProductID]; ok {
			products[i].Images = append(products[i].Images, img)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "rows")
	}

	rows, err = r.pool.Query(ctx,
		`SELECT product_id, promotion_id FROM store_product_promotions WHERE product_id = ANY($1) ORDER BY promotion_id`, ids)
	if err != nil {
		return errors.Wrap(err, "select product promotions")
	}
	defer rows.Close()
	for rows.Next() {
		var productID, promotionID int64
		if err := rows.Scan(&productID, &promotionID); err != nil {
			return errors.Wrap(err, "scan product promotion")
		}
		if i, ok := index[productID]; ok {
			products[i].Promotions = append(products[i].Promotions, promotionID)
		}
	}
	return errors.Wrap(rows.Err(), "rows")
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO store_product (title, slug, description, unit_price, inventory, collection_id, last_update)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING id, last_update
		`, p.Title, p.Slug, p.Description, db.Numeric(p.UnitPrice), p.Inventory, p.CollectionID).Scan(&p.ID, &p.LastUpdate); err != nil {
			return productWriteError(err, "insert product")
		}
		if p.Promotions != nil {
			return setPromotions(ctx, tx, p.ID, p.Promotions)
		}
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			UPDATE store_product
			SET title = $2, slug = $3, description = $4, unit_price = $5, inventory = $6,
			    collection_id = $7, last_update = NOW()
			WHERE id = $1
			RETURNING last_update
		`, p.ID, p.Title, p.Slug, p.Description, db.Numeric(p.UnitPrice), p.Inventory, p.CollectionID).Scan(&p.LastUpdate); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return productWriteError(err, "update product")
		}
		if p.Promotions != nil {
			return setPromotions(ctx, tx, p.ID, p.Promotions)
		}
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func setPromotions(ctx context.Context, tx pgx.Tx, productID int64, promotionIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM store_product_promotions WHERE product_id = $1`, productID); err != nil {
		return errors.Wrap(err, "clear product promotions")
	}
	if len(promotionIDs) == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO store_product_promotions (product_id, promotion_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`, productID, promotionIDs); err != nil {
		return productWriteError(err, "insert product promotions")
	}
	return nil
}

// productWriteError turns dangling references into field errors.
func productWriteError(err error, op string) error {
	if constraint, ok := db.ForeignKeyViolation(err); ok {
		switch {
		case strings.Contains(constraint, "collection"):
			return validate.FieldErrors{"collection": {"Invalid pk - object does not exist."}}
		case strings.Contains(constraint, "promotion"):
			return validate.FieldErrors{"promotions": {"Invalid pk - object does not exist."}}
		}
	}
	return errors.Wrap(err, op)
}

// DeleteProduct refuses to delete a product that appears in any order.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		if err := tx.QueryRow(ctx,
			`SELECT id FROM store_product WHERE id = $1 FOR UPDATE`, id,
		).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return errors.Wrap(err, "lock product")
		}

		var ordered bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM store_orderitem WHERE product_id = $1)`, id,
		).Scan(&ordered); err != nil {
			return errors.Wrap(err, "count product order items")
		}
		if ordered {
			return ErrProductHasOrderItems
		}

		if _, err := tx.Exec(ctx, `DELETE FROM store_product WHERE id = $1`, id); err != nil {
			return errors.Wrap(err, "delete product")
		}
		return nil
	})
}

// --- promotions ---

func (r *PostgresRepository) ListPromotions(ctx context.Context) ([]Promotion, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, description, discount FROM store_promotion ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "select promotions")
	}
	defer rows.Close()

	promotions := []Promotion{}
	for rows.Next() {
		var p Promotion
		if err := rows.Scan(&p.ID, &p.Description, &p.Discount); err != nil {
			return nil, errors.Wrap(err, "scan promotion")
		}
		promotions = append(promotions, p)
	}
	return promotions, errors.Wrap(rows.Err(), "rows")
}

func (r *PostgresRepository) CreatePromotion(ctx context.Context, p Promotion) (Promotion, error) {
	if err := r.pool.QueryRow(ctx,
		`INSERT INTO store_promotion (description, discount) VALUES ($1, $2) RETURNING id`,
		p.Description, p.Discount,
	).Scan(&p.ID); err != nil {
		return Promotion{}, errors.Wrap(err, "insert promotion")
	}
	return p, nil
}

// --- reviews ---

func (r *PostgresRepository) ListReviews(ctx context.Context, productID int64) ([]Review, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, name, description, date FROM store_review WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, errors.Wrap(err, "select reviews")
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.Name, &rv.Description, &rv.Date); err != nil {
			return nil, errors.Wrap(err, "scan review")
		}
		reviews = append(reviews, rv)
	}
	return reviews, errors.Wrap(rows.Err(), "rows")
}

func (r *PostgresRepository) GetReview(ctx context.Context, productID, id int64) (Review, error) {
	var rv Review
	err := r.pool.QueryRow(ctx,
		`SELECT id, product_id, name, description, date FROM store_review WHERE product_id = $1 AND id = $2`,
		productID, id,
	).Scan(&rv.ID, &rv.ProductID, &rv.Name, &rv.Description, &rv.Date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, errors.Wrap(err, "select review")
	}
	return rv, nil
}

func (r *PostgresRepository) CreateReview(ctx context.Context, rv Review) (Review, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO store_review (product_id, name, description) VALUES ($1, $2, $3) RETURNING id, date`,
		rv.ProductID, rv.Name, rv.Description,
	).Scan(&rv.ID, &rv.Date)
	if err != nil {
		if _, ok := db.ForeignKeyViolation(err); ok {
			return Review{}, ErrNotFound
		}
		return Review{}, errors.Wrap(err, "insert review")
	}
	return rv, nil
}

func (r *PostgresRepository) UpdateReview(ctx context.Context, rv Review) (Review, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE store_review SET name = $3, description = $4 WHERE product_id = $1 AND id = $2 RETURNING date`,
		rv.ProductID, rv.ID, rv.Name, rv.Description,
	).Scan(&rv.Date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, errors.Wrap(err, "update review")
	}
	return rv, nil
}

func (r *PostgresRepository) DeleteReview(ctx context.Context, productID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM store_review WHERE product_id = $1 AND id = $2`, productID, id)
	if err != nil {
		return errors.Wrap(err, "delete review")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- images ---

func (r *PostgresRepository) ListImages(ctx context.Context, productID int64) ([]ProductImage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, image FROM store_productimage WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, errors.Wrap(err, "select images")
	}
	defer rows.Close()

	images := []ProductImage{}
	for rows.Next() {
		var img ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.Image); err != nil {
			return nil, errors.Wrap(err, "scan image")
		}
		images = append(images, img)
	}
	return images, errors.Wrap(rows.Err(), "rows")
}

func (r *PostgresRepository) GetImage(ctx context.Context, productID, id int64) (ProductImage, error) {
	var img ProductImage
	err := r.pool.QueryRow(ctx,
		`SELECT id, product_id, image FROM store_productimage WHERE product_id = $1 AND id = $2`, productID, id,
	).Scan(&img.ID, &img.ProductID, &img.Image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductImage{}, ErrNotFound
		}
		return ProductImage{}, errors.Wrap(err, "select image")
	}
	return img, nil
}

func (r *PostgresRepository) CreateImage(ctx context.Context, img ProductImage) (ProductImage, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO store_productimage (product_id, image) VALUES ($1, $2) RETURNING id`,
		img.ProductID, img.Image,
	).Scan(&img.ID)
	if err != nil {
		if _, ok := db.ForeignKeyViolation(err); ok {
			return ProductImage{}, ErrNotFound
		}
		return ProductImage{}, errors.Wrap(err, "insert image")
	}
	return img, nil
}

// DeleteImage removes the row and returns it so the caller can drop the stored file.
func (r *PostgresRepository) DeleteImage(ctx context.Context, productID, id int64) (ProductImage, error) {
	var img ProductImage
	err := r.pool.QueryRow(ctx,
		`DELETE FROM store_productimage WHERE product_id = $1 AND id = $2 RETURNING id, product_id, image`,
		productID, id,
	).Scan(&img.ID, &img.ProductID, &img.Image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductImage{}, ErrNotFound
		}
		return ProductImage{}, errors.Wrap(err, "delete image")
	}
	return img, nil
}
