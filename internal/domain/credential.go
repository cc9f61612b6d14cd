package domain

import "time"

// CredentialGroup is one document in the credentialkeys collection: a named
// batch of terminal credentials that were provisioned together.
type CredentialGroup struct {
	Key         string            `bson:"key" json:"key"`
	Credentials []CredentialEntry `bson:"credentials" json:"credentials"`
	CreatedAt   time.Time         `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt   time.Time         `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// CredentialEntry is a single terminal login inside a group.
type CredentialEntry struct {
	LoginID          string     `bson:"loginId" json:"loginId"`
	Password         string     `bson:"password" json:"password"`
	IsActive         bool       `bson:"isActive" json:"isActive"`
	AssignedTo       string     `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AssignedOrderID  string     `bson:"assignedOrderId,omitempty" json:"assignedOrderId,omitempty"`
	AssignedAt       *time.Time `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`
	IsBreached       *bool      `bson:"isBreached,omitempty" json:"isBreached,omitempty"`
	LastChecked      *time.Time `bson:"lastChecked,omitempty" json:"lastChecked,omitempty"`
	BreachedMetadata string     `bson:"breachedMetadata,omitempty" json:"breachedMetadata,omitempty"`
}

// Eligible reports whether the entry should be processed. An entry qualifies
// when it is active and not known to be breached; a missing or null breach
// flag means the account has never been evaluated and still qualifies.
func (e CredentialEntry) Eligible() bool {
	return e.IsActive && (e.IsBreached == nil || !*e.IsBreached)
}

// EligibleEntries returns the entries of g that qualify for processing,
// preserving document order.
func (g CredentialGroup) EligibleEntries() []CredentialEntry {
	var out []CredentialEntry
	for _, e := range g.Credentials {
		if e.Eligible() {
			out = append(out, e)
		}
	}
	return out
}

// Candidate is one eligible login queued for processing: the entry itself,
// the group it must be reported back to, and the server it authenticates
// against.
type Candidate struct {
	GroupKey string
	Entry    CredentialEntry
	Server   string
}
