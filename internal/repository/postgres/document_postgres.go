package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// Corpus order is the insertion order recorded by the seq column.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, name, path, type, size, major_head, minor_head, document_date, document_remarks, tags, uploaded_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var d model.Document
	var tags pq.StringArray
	if err := s.Scan(
		&d.ID,
		&d.Name,
		&d.Path,
		&d.Type,
		&d.Size,
		&d.MajorHead,
		&d.MinorHead,
		&d.DocumentDate,
		&d.DocumentRemarks,
		&tags,
		&d.UploadedAt,
	); err != nil {
		return nil, err
	}
	d.Tags = []string(tags)
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, name, path, type, size, major_head, minor_head, document_date, document_remarks, tags, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + documentColumns

	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Name,
		doc.Path,
		doc.Type,
		doc.Size,
		doc.MajorHead,
		doc.MinorHead,
		doc.DocumentDate,
		doc.DocumentRemarks,
		pq.Array(tags),
		doc.UploadedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID. The id column is a UUID, so
// any other id cannot match a row.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}

	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// All returns every document in insertion order.
func (r *DocumentPostgres) All(ctx context.Context) ([]model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, page repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `SELECT ` + documentColumns + ` FROM documents ORDER BY seq ASC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, qList, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items, err := collect(rows)
	if err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// PingContext checks database connectivity.
func (r *DocumentPostgres) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func collect(rows *sql.Rows) ([]model.Document, error) {
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
