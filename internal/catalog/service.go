package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrNotFound indicates the requested catalog entry does not exist.
var ErrNotFound = errors.New("catalog entry not found")

// Querier is the persistence surface the catalog needs.
type Querier interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	ListCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, id string) (Course, error)
	ListEnrollments(ctx context.Context, playerID string) ([]Enrollment, error)
	ListCertificates(ctx context.Context, playerID string) ([]Certificate, error)
}

// Service serves store and course reads, with the course list going through
// the Redis cache since it is the heaviest and least volatile payload.
type Service struct {
	Q     Querier
	Cache *Cache
	Log   zerolog.Logger
}

const courseListCacheKey = "catalog:courses:list"

// Products lists the store items.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("catalog service not configured")
	}
	products, err := s.Q.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Product returns one store item by id.
func (s *Service) Product(ctx context.Context, id string) (Product, error) {
	if s == nil || s.Q == nil {
		return Product{}, errors.New("catalog service not configured")
	}
	return s.Q.GetProduct(ctx, id)
}

// Courses lists the course summaries, cached for the configured TTL. Cache
// errors fall through to the database.
func (s *Service) Courses(ctx context.Context) ([]Course, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("catalog service not configured")
	}
	if s.Cache != nil {
		var cached []Course
		if ok, err := s.Cache.GetJSON(ctx, courseListCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}
	courses, err := s.Q.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, courseListCacheKey, courses); err != nil {
			s.Log.Warn().Err(err).Msg("cache course list")
		}
	}
	return courses, nil
}

// Course returns a course with its modules and lessons.
func (s *Service) Course(ctx context.Context, id string) (Course, error) {
	if s == nil || s.Q == nil {
		return Course{}, errors.New("catalog service not configured")
	}
	return s.Q.GetCourse(ctx, id)
}

// Enrollments lists a player's course enrollments with progress.
func (s *Service) Enrollments(ctx context.Context, playerID string) ([]Enrollment, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("catalog service not configured")
	}
	enrollments, err := s.Q.ListEnrollments(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// Certificates lists the certificates issued to a player.
func (s *Service) Certificates(ctx context.Context, playerID string) ([]Certificate, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("catalog service not configured")
	}
	certs, err := s.Q.ListCertificates(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}
