package catalog

import (
	"time"

	"github.com/thryvyng/club-api/internal/pricing"
)

// Product is a store item (merchandise, equipment) sold through the cart.
type Product struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Price        pricing.Money `json:"price"`
	CVPercentage float64       `json:"cvPercentage,omitempty"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	Variants     []string      `json:"variants,omitempty"`
}

// Course is a training program with nested modules and video lessons.
type Course struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Price       pricing.Money `json:"price"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	Modules     []Module      `json:"modules,omitempty"`
}

// Module groups lessons inside a course.
type Module struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Position int      `json:"position"`
	Lessons  []Lesson `json:"lessons,omitempty"`
}

// Lesson is one video unit of a module.
type Lesson struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Position        int    `json:"position"`
	VideoURL        string `json:"videoUrl,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

// Enrollment tracks a player's progress through a course.
type Enrollment struct {
	ID              string     `json:"id"`
	PlayerID        string     `json:"playerId"`
	CourseID        string     `json:"courseId"`
	CourseTitle     string     `json:"courseTitle"`
	ProgressPercent int        `json:"progressPercent"`
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// Certificate is issued when a player completes a course.
type Certificate struct {
	ID          string    `json:"id"`
	PlayerID    string    `json:"playerId"`
	CourseID    string    `json:"courseId"`
	CourseTitle string    `json:"courseTitle"`
	IssuedAt    time.Time `json:"issuedAt"`
	URL         string    `json:"url,omitempty"`
}
