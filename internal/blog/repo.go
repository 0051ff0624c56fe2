package blog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/fitlog/internal/telemetry/tracing"
	"github.com/2beens/fitlog/pkg"
)

// manual caching of blog posts not needed (at least for this use case):
// https://github.com/jackc/pgx/wiki/Automatic-Prepared-Statement-Caching

const selectBlogs = `
	SELECT
		b.id, b.title, b.content, b.author_id, b.tags, b.claps, b.created_at,
		u.name, u.email, u.img
	FROM blog b
	JOIN app_user u ON u.id = b.author_id`

var _ blogRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) AddBlog(ctx context.Context, blog *Blog) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	blog.Title = strings.TrimSpace(blog.Title)
	if blog.Content == "" || blog.Title == "" {
		return ErrBlogTitleOrContentEmpty
	}

	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = time.Now()
	}
	if blog.Tags == nil {
		blog.Tags = []string{}
	}

	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO blog (title, content, author_id, tags, claps, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id;`,
		blog.Title, blog.Content, blog.AuthorID, blog.Tags, blog.Claps, blog.CreatedAt,
	).Scan(&blog.ID); err != nil {
		// token outlived its user
		if pkg.IsForeignKeyViolationError(err) {
			return ErrAuthorNotFound
		}
		return fmt.Errorf("insert blog: %w", err)
	}

	return nil
}

func (r *Repo) BlogClapped(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `UPDATE blog SET claps = claps + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// DeleteBlog removes the blog only if authorID wrote it, ErrBlogNotFound otherwise.
func (r *Repo) DeleteBlog(ctx context.Context, id, authorID int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM blog WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// All returns every blog, newest first.
func (r *Repo) All(ctx context.Context) ([]*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.all")
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		selectBlogs+` ORDER BY b.created_at DESC, b.id DESC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2blogs(rows)
}

func (r *Repo) BlogsCount(ctx context.Context) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.count")
	defer span.End()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM blog`).Scan(&count); err != nil {
		return -1, err
	}
	return count, nil
}

// GetBlogsPage returns the page-th (1 based) page of size blogs, newest first.
func (r *Repo) GetBlogsPage(ctx context.Context, page, size int) ([]*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.page")
	span.SetAttributes(attribute.Int("page", page))
	span.SetAttributes(attribute.Int("size", size))
	defer span.End()

	limit := size
	offset := (page - 1) * size
	log.Tracef("getting blogs, limit %d, offset %d", limit, offset)

	rows, err := r.db.Query(
		ctx,
		selectBlogs+`
			ORDER BY b.created_at DESC, b.id DESC
			LIMIT $1
			OFFSET $2;
		`,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2blogs(rows)
}

func (r *Repo) GetBlog(ctx context.Context, id int) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.get")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	rows, err := r.db.Query(ctx, selectBlogs+` WHERE b.id = $1;`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs, err := r.rows2blogs(rows)
	if err != nil {
		return nil, err
	}
	if len(blogs) == 0 {
		return nil, ErrBlogNotFound
	}

	return blogs[0], nil
}

func (r *Repo) rows2blogs(rows pgx.Rows) ([]*Blog, error) {
	blogs := make([]*Blog, 0)
	for rows.Next() {
		b := &Blog{Author: &Author{}}
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Content, &b.AuthorID, &b.Tags, &b.Claps, &b.CreatedAt,
			&b.Author.Name, &b.Author.Email, &b.Author.Img,
		); err != nil {
			return nil, err
		}
		b.Author.ID = b.AuthorID
		blogs = append(blogs, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}
