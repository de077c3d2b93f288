package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thryvyng/club-api/internal/catalog"
)

// CatalogRepo implements catalog.Querier on Postgres.
type CatalogRepo struct {
	Pool *pgxpool.Pool
}

// ListProducts returns all store items.
func (r CatalogRepo) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), price,
		       COALESCE(cv_percentage, 0), COALESCE(image_url, ''), COALESCE(variants, '{}')
		FROM products
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CVPercentage, &p.ImageURL, &p.Variants); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct returns one store item.
func (r CatalogRepo) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	var p catalog.Product
	err := r.Pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(description, ''), price,
		       COALESCE(cv_percentage, 0), COALESCE(image_url, ''), COALESCE(variants, '{}')
		FROM products
		WHERE id = $1`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CVPercentage, &p.ImageURL, &p.Variants)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, catalog.ErrNotFound
		}
		return catalog.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListCourses returns the course summaries without module detail.
func (r CatalogRepo) ListCourses(ctx context.Context) ([]catalog.Course, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT id, title, COALESCE(description, ''), price, COALESCE(image_url, '')
		FROM courses
		ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []catalog.Course
	for rows.Next() {
		var c catalog.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Price, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// GetCourse returns a course with its modules and lessons.
func (r CatalogRepo) GetCourse(ctx context.Context, id string) (catalog.Course, error) {
	var c catalog.Course
	err := r.Pool.QueryRow(ctx, `
		SELECT id, title, COALESCE(description, ''), price, COALESCE(image_url, '')
		FROM courses
		WHERE id = $1`, id).Scan(&c.ID, &c.Title, &c.Description, &c.Price, &c.ImageURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Course{}, catalog.ErrNotFound
		}
		return catalog.Course{}, fmt.Errorf("get course: %w", err)
	}

	moduleRows, err := r.Pool.Query(ctx, `
		SELECT id, title, position
		FROM course_modules
		WHERE course_id = $1
		ORDER BY position`, id)
	if err != nil {
		return catalog.Course{}, fmt.Errorf("list modules: %w", err)
	}
	defer moduleRows.Close()
	for moduleRows.Next() {
		var m catalog.Module
		if err := moduleRows.Scan(&m.ID, &m.Title, &m.Position); err != nil {
			return catalog.Course{}, fmt.Errorf("scan module: %w", err)
		}
		c.Modules = append(c.Modules, m)
	}
	if err := moduleRows.Err(); err != nil {
		return catalog.Course{}, err
	}

	for i := range c.Modules {
		lessons, err := r.listLessons(ctx, c.Modules[i].ID)
		if err != nil {
			return catalog.Course{}, err
		}
		c.Modules[i].Lessons = lessons
	}
	return c, nil
}

func (r CatalogRepo) listLessons(ctx context.Context, moduleID string) ([]catalog.Lesson, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT id, title, position, COALESCE(video_url, ''), COALESCE(duration_seconds, 0)
		FROM course_lessons
		WHERE module_id = $1
		ORDER BY position`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []catalog.Lesson
	for rows.Next() {
		var l catalog.Lesson
		if err := rows.Scan(&l.ID, &l.Title, &l.Position, &l.VideoURL, &l.DurationSeconds); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// ListEnrollments returns a player's course enrollments with progress.
func (r CatalogRepo) ListEnrollments(ctx context.Context, playerID string) ([]catalog.Enrollment, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT e.id, e.player_id, e.course_id, c.title,
		       e.progress_percent, e.started_at, e.completed_at
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.player_id = $1
		ORDER BY e.started_at DESC`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []catalog.Enrollment
	for rows.Next() {
		var (
			e         catalog.Enrollment
			completed pgtype.Timestamptz
		)
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.CourseID, &e.CourseTitle, &e.ProgressPercent, &e.StartedAt, &completed); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			e.CompletedAt = &t
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// ListCertificates returns the certificates issued to a player.
func (r CatalogRepo) ListCertificates(ctx context.Context, playerID string) ([]catalog.Certificate, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT cert.id, cert.player_id, cert.course_id, c.title, cert.issued_at, COALESCE(cert.url, '')
		FROM certificates cert
		JOIN courses c ON c.id = cert.course_id
		WHERE cert.player_id = $1
		ORDER BY cert.issued_at DESC`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var certs []catalog.Certificate
	for rows.Next() {
		var cert catalog.Certificate
		if err := rows.Scan(&cert.ID, &cert.PlayerID, &cert.CourseID, &cert.CourseTitle, &cert.IssuedAt, &cert.URL); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	return certs, rows.Err()
}
