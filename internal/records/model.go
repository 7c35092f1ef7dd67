// Package records is the persistence layer for study centers, courses,
// certificate sets and certificates.
package records

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Status is the lifecycle state of a certificate set.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Coordinates places one stamp on a course template. Keys absent from the
// stored JSON, or holding anything but an integral number, stay nil.
type Coordinates struct {
	X    *int `json:"x,omitempty"`
	Y    *int `json:"y,omitempty"`
	Size *int `json:"size,omitempty"`
}

// Scan implements sql.Scanner for jsonb columns.
func (c *Coordinates) Scan(src any) error {
	*c = Coordinates{}
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("coordinates: unsupported type %T", src)
	}
}

// UnmarshalJSON decodes each key on its own so one bad value only drops
// that key.
func (c *Coordinates) UnmarshalJSON(b []byte) error {
	*c = Coordinates{}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		// null, arrays and scalars carry no coordinates.
		return nil
	}
	c.X = coordinate(obj["x"])
	c.Y = coordinate(obj["y"])
	c.Size = coordinate(obj["size"])
	return nil
}

func coordinate(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// Value implements driver.Valuer.
func (c Coordinates) Value() (driver.Value, error) {
	if c.X == nil && c.Y == nil && c.Size == nil {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type StudyCenter struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	ContactNumber *string `json:"contact_number"`
	Address       string  `json:"address"`
	Active        bool    `json:"active"`
}

// Course owns the certificate template and where each value is stamped.
type Course struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Type               string      `json:"type"`
	Image              string      `json:"image"`
	NameCoords         Coordinates `json:"name_coordinates"`
	IDCoords           Coordinates `json:"id_coordinates"`
	FinishedDateCoords Coordinates `json:"finished_date_coordinates"`
	QRCoords           Coordinates `json:"qr_code_coordinates"`
}

type CertificateSet struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	StudyCenterID int64     `json:"study_center"`
	FinishedDate  time.Time `json:"finished_date"`
	Status        Status    `json:"status"`
	Active        bool      `json:"active"`
}

type Certificate struct {
	ID            int64      `json:"id"`
	UUID          string     `json:"UUID"`
	Name          string     `json:"name"`
	Birthdate     *time.Time `json:"birthdate"`
	ContactNumber *string    `json:"contact_number"`
	SocialStatus  *string    `json:"social_status"`
	SetID         int64      `json:"certificates_set"`
	CourseID      *int64     `json:"-"`
	Course        *Course    `json:"course"`
}

// CertificateDetail is the public view of one certificate.
type CertificateDetail struct {
	Certificate
	Set         CertificateSet `json:"certificates_set"`
	StudyCenter string         `json:"study_center"`
}

// Holder is one roster row to be issued a certificate.
type Holder struct {
	Name          string
	Birthdate     *time.Time
	ContactNumber *string
	SocialStatus  *string
}
