package labels

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	AttendeeLabel                = "attendee_label"
	FacilityLabel                = "facility_label"
	FactionLabel                 = "faction_label"
	SubFactionLabel              = "sub_faction_label"
	FacultyLabel                 = "faculty_label"
	LeaderLabel                  = "leader_label"
	FacultyQuartersLabel         = "faculty_quarters_label"
	FactionQuartersLabel         = "faction_quarters_label"
	LeaderQuartersLabel          = "leader_quarters_label"
	AttendeeQuartersLabel        = "attendee_quarters_label"
	CourseLabel                  = "course_label"
	FacilityEnrollmentLabel      = "facility_enrollment_label"
	FactionEnrollmentLabel       = "faction_enrollment_label"
	LeaderEnrollmentLabel        = "leader_enrollment_label"
	AttendeeEnrollmentLabel      = "attendee_enrollment_label"
	AttendeeClassEnrollmentLabel = "attendee_class_enrollment_label"
	WeekLabel                    = "week_label"
	PeriodLabel                  = "period_label"
)

// MaxLength is the longest value a single label slot may hold.
const MaxLength = 255

var ErrNotFound = errors.New("organization labels not found")

var keys = []string{
	AttendeeLabel,
	FacilityLabel,
	FactionLabel,
	SubFactionLabel,
	FacultyLabel,
	LeaderLabel,
	FacultyQuartersLabel,
	FactionQuartersLabel,
	LeaderQuartersLabel,
	AttendeeQuartersLabel,
	CourseLabel,
	FacilityEnrollmentLabel,
	FactionEnrollmentLabel,
	LeaderEnrollmentLabel,
	AttendeeEnrollmentLabel,
	AttendeeClassEnrollmentLabel,
	WeekLabel,
	PeriodLabel,
}

var defaults = map[string]string{
	AttendeeLabel:                "Attendee",
	FacilityLabel:                "Facility",
	FactionLabel:                 "Faction",
	SubFactionLabel:              "Sub-Faction",
	FacultyLabel:                 "Faculty",
	LeaderLabel:                  "Leader",
	FacultyQuartersLabel:         "Faculty Quarters",
	FactionQuartersLabel:         "Faction Quarters",
	LeaderQuartersLabel:          "Leader Quarters",
	AttendeeQuartersLabel:        "Attendee Quarters",
	CourseLabel:                  "Course",
	FacilityEnrollmentLabel:      "Facility Enrollment",
	FactionEnrollmentLabel:       "Faction Enrollment",
	LeaderEnrollmentLabel:        "Leader Enrollment",
	AttendeeEnrollmentLabel:      "Attendee Enrollment",
	AttendeeClassEnrollmentLabel: "Attendee Class Enrollment",
	WeekLabel:                    "Week",
	PeriodLabel:                  "Period",
}

// Keys returns the label slots in their canonical order.
func Keys() []string {
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

func Default(key string) (string, bool) {
	v, ok := defaults[key]
	return v, ok
}

func IsKnown(key string) bool {
	_, ok := defaults[key]
	return ok
}

type Repository interface {
	GetByOrganizationID(ctx context.Context, organizationID int64) (*Labels, error)
	Create(ctx context.Context, l *Labels) (*Labels, error)
	Update(ctx context.Context, l *Labels) (*Labels, error)
}

type Option func(l *Labels)

func WithID(id int64) Option {
	return func(l *Labels) {
		l.id = id
	}
}

// WithValues applies overrides the same way Update does.
func WithValues(values map[string]string) Option {
	return func(l *Labels) {
		l.Update(values)
	}
}

func WithCreatedAt(t time.Time) Option {
	return func(l *Labels) {
		l.createdAt = t
	}
}

func WithUpdatedAt(t time.Time) Option {
	return func(l *Labels) {
		l.updatedAt = t
	}
}

// Labels is the per-organization set of terminology overrides. Every slot
// always holds a non-empty value.
type Labels struct {
	id             int64
	organizationID int64
	values         map[string]string
	createdAt      time.Time
	updatedAt      time.Time
}

func New(organizationID int64, opts ...Option) *Labels {
	now := time.Now()
	l := &Labels{
		organizationID: organizationID,
		values:         make(map[string]string, len(keys)),
		createdAt:      now,
		updatedAt:      now,
	}
	l.FillDefaults()
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Labels) ID() int64 {
	return l.id
}

func (l *Labels) OrganizationID() int64 {
	return l.organizationID
}

func (l *Labels) CreatedAt() time.Time {
	return l.createdAt
}

func (l *Labels) UpdatedAt() time.Time {
	return l.updatedAt
}

func (l *Labels) Get(key string) string {
	return l.values[key]
}

// Set stores value under key. A blank value resets the slot to its default.
// Unknown keys are rejected.
func (l *Labels) Set(key, value string) bool {
	def, ok := defaults[key]
	if !ok {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		value = def
	}
	l.values[key] = value
	return true
}

// Update applies every known key from values and ignores the rest.
func (l *Labels) Update(values map[string]string) {
	for k, v := range values {
		l.Set(k, v)
	}
	l.updatedAt = time.Now()
}

// FillDefaults restores the default for every empty slot.
func (l *Labels) FillDefaults() {
	for _, k := range keys {
		if strings.TrimSpace(l.values[k]) == "" {
			l.values[k] = defaults[k]
		}
	}
}

// Values returns a copy of the slot values keyed by slot name.
func (l *Labels) Values() map[string]string {
	out := make(map[string]string, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}
