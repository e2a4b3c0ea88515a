package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursegen-backend/internal/models"
)

var ErrNotFound = errors.New("record not found")

// CourseRepo stores each course as a single row; roadmap and lessons are JSONB
// documents so the aggregate is read and written as a whole.
type CourseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

const courseColumns = `id, title, original_prompt, roadmap, lessons, created_at`

func (r *CourseRepo) Create(ctx context.Context, title, prompt string, roadmap []models.RoadmapItem) (*models.Course, error) {
	c := models.NewCourse(title, prompt, roadmap)

	roadmapBytes, err := json.Marshal(c.Roadmap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode roadmap: %w", err)
	}
	lessonBytes, err := json.Marshal(c.Lessons)
	if err != nil {
		return nil, fmt.Errorf("failed to encode lessons: %w", err)
	}

	query := `INSERT INTO courses (id, title, original_prompt, roadmap, lessons, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	err = r.pool.QueryRow(ctx, query,
		c.ID, c.Title, c.OriginalPrompt, roadmapBytes, lessonBytes, c.CreatedAt,
	).Scan(&c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	c, err := scanCourse(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns every course, newest first.
func (r *CourseRepo) List(ctx context.Context) ([]*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// ReplaceLesson upserts lesson under title: an existing lesson with that title
// is overwritten in place, otherwise the lesson is appended. The course row is
// locked for the read-modify-write so concurrent upserts of different lessons
// do not overwrite each other.
func (r *CourseRepo) ReplaceLesson(ctx context.Context, courseID uuid.UUID, title string, lesson models.Lesson) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var lessonBytes []byte
	err = tx.QueryRow(ctx, "SELECT lessons FROM courses WHERE id = $1 FOR UPDATE", courseID).Scan(&lessonBytes)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var lessons []models.Lesson
	if err := json.Unmarshal(lessonBytes, &lessons); err != nil {
		return fmt.Errorf("failed to decode lessons for course %s: %w", courseID, err)
	}

	lessons = models.UpsertLesson(lessons, title, lesson)
	updated, err := json.Marshal(lessons)
	if err != nil {
		return fmt.Errorf("failed to encode lessons: %w", err)
	}

	if _, err := tx.Exec(ctx, "UPDATE courses SET lessons = $1, updated_at = NOW() WHERE id = $2", updated, courseID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes the course and reports whether it existed.
func (r *CourseRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	c := &models.Course{}
	var roadmapBytes, lessonBytes []byte

	if err := row.Scan(&c.ID, &c.Title, &c.OriginalPrompt, &roadmapBytes, &lessonBytes, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(roadmapBytes, &c.Roadmap); err != nil {
		return nil, fmt.Errorf("failed to decode roadmap for course %s: %w", c.ID, err)
	}
	if err := json.Unmarshal(lessonBytes, &c.Lessons); err != nil {
		return nil, fmt.Errorf("failed to decode lessons for course %s: %w", c.ID, err)
	}
	for i := range c.Lessons {
		c.Lessons[i].Normalize()
	}
	if c.Roadmap == nil {
		c.Roadmap = []models.RoadmapItem{}
	}
	return c, nil
}
