package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/youruser/certapp/internal/logging"
)

const maxShortIDAttempts = 8

const setColumns = `s.id, s.name, s.study_center_id, s.finished_date, s.status, s.active`

const certificateColumns = `
	c.id, c.uuid, c.name, c.birthdate, c.contact_number, c.social_status,
	c.certificate_set_id, c.course_id,
	co.name, co.type, co.image,
	co.name_coordinates, co.id_coordinates, co.finished_date_coordinates, co.qr_code_coordinates`

type scanner interface {
	Scan(dest ...any) error
}

// Repository reads and writes certificate records.
type Repository struct {
	db      *sql.DB
	shortID func() string
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, shortID: NewShortID}
}

// ListSets returns active sets matching f, newest first.
func (r *Repository) ListSets(ctx context.Context, f SetFilter) ([]CertificateSet, error) {
	cond, args := f.where()
	q := `SELECT ` + setColumns + ` FROM certificate_sets s WHERE ` + cond + ` ORDER BY s.finished_date DESC, s.id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sets: %w", err)
	}
	defer rows.Close()

	sets := []CertificateSet{}
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan set: %w", err)
		}
		sets = append(sets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sets: %w", err)
	}
	return sets, nil
}

// FindSet returns the active set with the given id.
func (r *Repository) FindSet(ctx context.Context, id int64) (*CertificateSet, error) {
	q := `SELECT ` + setColumns + ` FROM certificate_sets s WHERE s.id = $1 AND s.active = TRUE`
	s, err := scanSet(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

// SetCertificates returns the active certificates of a set with their
// courses, in insertion order.
func (r *Repository) SetCertificates(ctx context.Context, setID int64) ([]Certificate, error) {
	q := `SELECT ` + certificateColumns + `
		FROM certificates c
		LEFT JOIN courses co ON co.id = c.course_id
		WHERE c.certificate_set_id = $1 AND c.active = TRUE
		ORDER BY c.id`

	rows, err := r.db.QueryContext(ctx, q, setID)
	if err != nil {
		return nil, fmt.Errorf("query certificates: %w", err)
	}
	defer rows.Close()

	certs := []Certificate{}
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		certs = append(certs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}
	return certs, nil
}

// FindCertificate looks a certificate up by its public id.
func (r *Repository) FindCertificate(ctx context.Context, uuid string) (*CertificateDetail, error) {
	q := `SELECT ` + certificateColumns + `, ` + setColumns + `, sc.name
		FROM certificates c
		LEFT JOIN courses co ON co.id = c.course_id
		JOIN certificate_sets s ON s.id = c.certificate_set_id
		JOIN study_centers sc ON sc.id = s.study_center_id
		WHERE c.uuid = $1`

	var (
		d   CertificateDetail
		err error
	)
	d.Certificate, err = scanCertificate(r.db.QueryRowContext(ctx, q, uuid),
		&d.Set.ID, &d.Set.Name, &d.Set.StudyCenterID, &d.Set.FinishedDate, &d.Set.Status, &d.Set.Active,
		&d.StudyCenter,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

// ImportCertificates issues one certificate per holder in a single
// transaction and returns them in roster order.
func (r *Repository) ImportCertificates(ctx context.Context, setID, courseID int64, holders []Holder) ([]Certificate, error) {
	if len(holders) == 0 {
		return nil, ErrEmptyRoster
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var one int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM certificate_sets WHERE id = $1`, setID).Scan(&one); err != nil {
		return nil, fmt.Errorf("certificate set %d: %w", setID, mapError(err))
	}
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM courses WHERE id = $1`, courseID).Scan(&one); err != nil {
		return nil, fmt.Errorf("course %d: %w", courseID, mapError(err))
	}

	q := `
		INSERT INTO certificates (uuid, name, birthdate, contact_number, social_status, certificate_set_id, course_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (uuid) DO NOTHING
		RETURNING id`

	out := make([]Certificate, 0, len(holders))
	for _, h := range holders {
		c := Certificate{
			Name:          h.Name,
			Birthdate:     h.Birthdate,
			ContactNumber: h.ContactNumber,
			SocialStatus:  h.SocialStatus,
			SetID:         setID,
			CourseID:      &courseID,
		}
		inserted := false
		for attempt := 0; attempt < maxShortIDAttempts && !inserted; attempt++ {
			c.UUID = r.shortID()
			err := tx.QueryRowContext(ctx, q,
				c.UUID, c.Name, c.Birthdate, c.ContactNumber, c.SocialStatus, setID, courseID,
			).Scan(&c.ID)
			switch {
			case err == nil:
				inserted = true
			case errors.Is(err, sql.ErrNoRows):
				logging.Debug("short id taken, retrying", "uuid", c.UUID)
			default:
				return nil, fmt.Errorf("insert certificate %q: %w", h.Name, mapError(err))
			}
		}
		if !inserted {
			return nil, fmt.Errorf("%w for %q", ErrShortIDExhausted, h.Name)
		}
		out = append(out, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	logging.Info("certificates imported", "set_id", setID, "course_id", courseID, "count", len(out))
	return out, nil
}

func scanSet(s scanner) (CertificateSet, error) {
	var cs CertificateSet
	err := s.Scan(&cs.ID, &cs.Name, &cs.StudyCenterID, &cs.FinishedDate, &cs.Status, &cs.Active)
	return cs, err
}

// scanCertificate reads certificateColumns followed by any extra columns.
func scanCertificate(s scanner, extra ...any) (Certificate, error) {
	var (
		c                                   Certificate
		course                              Course
		courseName, courseType, courseImage sql.NullString
	)
	dest := []any{
		&c.ID, &c.UUID, &c.Name, &c.Birthdate, &c.ContactNumber, &c.SocialStatus,
		&c.SetID, &c.CourseID,
		&courseName, &courseType, &courseImage,
		&course.NameCoords, &course.IDCoords, &course.FinishedDateCoords, &course.QRCoords,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return Certificate{}, err
	}
	if c.CourseID != nil {
		course.ID = *c.CourseID
		course.Name = courseName.String
		course.Type = courseType.String
		course.Image = courseImage.String
		c.Course = &course
	}
	return c, nil
}
