package domain

// User is the identity provider's user record. Only the fields the dashboard
// reads are typed; the rest is carried through untouched in Attributes.
type User struct {
	ID               string              `json:"id"`
	Username         string              `json:"username,omitempty"`
	FirstName        string              `json:"firstName,omitempty"`
	LastName         string              `json:"lastName,omitempty"`
	Email            string              `json:"email,omitempty"`
	Enabled          bool                `json:"enabled"`
	CreatedTimestamp int64               `json:"createdTimestamp,omitempty"`
	Attributes       map[string][]string `json:"attributes,omitempty"`
}

// Group is a realm group.
type Group struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Path      string  `json:"path,omitempty"`
	SubGroups []Group `json:"subGroups,omitempty"`
}

// Role is a realm-scoped role.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Composite   bool   `json:"composite"`
	ClientRole  bool   `json:"clientRole"`
	ContainerID string `json:"containerId,omitempty"`
}

// UserDetail joins a user profile with its realm roles and groups.
type UserDetail struct {
	User   User    `json:"user"`
	Roles  []Role  `json:"roles"`
	Groups []Group `json:"groups"`
}

// AdminGroup is the administrative cohort group name.
const AdminGroup = "CIO"

// Realm role names.
const (
	RoleCIO = "CIO"
	RolePO  = "PO"
)
