package model

import (
	"github.com/lib/pq"
)

type Availability string

const (
	Available    Availability = "available"
	NotAvailable Availability = "not_available"
)

// StaffMember is an escort or translator that can be bound to requests.
// Availability is never persisted; it is projected from the open request
// set on every read.
type StaffMember struct {
	Base
	Name      string         `db:"name" json:"name"`
	Email     string         `db:"email" json:"email"`
	Phone     string         `db:"phone" json:"phone"`
	Role      string         `db:"role" json:"role"`
	Languages pq.StringArray `db:"languages" json:"languages,omitempty"`
	Skills    pq.StringArray `db:"skills" json:"skills,omitempty"`
	Status    string         `db:"status" json:"status"`
}

// StaffWithAvailability is the read model returned by the staff listing.
type StaffWithAvailability struct {
	StaffMember
	Availability Availability `json:"availability"`
}

type StaffFilters struct {
	Role     string `form:"role"`
	Language string `form:"language"`
	Status   string `form:"status"`
}
