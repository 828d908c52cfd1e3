package user

// ProfileKind is the role a user plays inside an organization. A user holds
// at most one.
type ProfileKind int

const (
	ProfileNone ProfileKind = iota
	ProfileAttendee
	ProfileLeader
	ProfileFaculty
)

func (k ProfileKind) String() string {
	switch k {
	case ProfileAttendee:
		return "attendee"
	case ProfileLeader:
		return "leader"
	case ProfileFaculty:
		return "faculty"
	default:
		return "none"
	}
}

// Profile links a user to the organization they belong to.
type Profile struct {
	kind           ProfileKind
	organizationID int64
}

func NoProfile() Profile {
	return Profile{kind: ProfileNone}
}

func AttendeeProfile(organizationID int64) Profile {
	return Profile{kind: ProfileAttendee, organizationID: organizationID}
}

func LeaderProfile(organizationID int64) Profile {
	return Profile{kind: ProfileLeader, organizationID: organizationID}
}

func FacultyProfile(organizationID int64) Profile {
	return Profile{kind: ProfileFaculty, organizationID: organizationID}
}

// ResolveProfile picks the profile by precedence attendee, leader, faculty
// from whichever memberships are present.
func ResolveProfile(attendeeOrg, leaderOrg, facultyOrg *int64) Profile {
	switch {
	case attendeeOrg != nil:
		return AttendeeProfile(*attendeeOrg)
	case leaderOrg != nil:
		return LeaderProfile(*leaderOrg)
	case facultyOrg != nil:
		return FacultyProfile(*facultyOrg)
	default:
		return NoProfile()
	}
}

func (p Profile) Kind() ProfileKind {
	return p.kind
}

// OrganizationID returns false for ProfileNone.
func (p Profile) OrganizationID() (int64, bool) {
	if p.kind == ProfileNone {
		return 0, false
	}
	return p.organizationID, true
}
