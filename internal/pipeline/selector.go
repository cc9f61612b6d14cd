// Package pipeline turns credential groups into processed report documents:
// selection, one terminal session per account, extraction, normalization,
// evaluation and persistence, with every account isolated from its
// neighbours' failures.
package pipeline

import (
	"fmt"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
)

// SelectionError describes one credential entry that could not be queued.
// Ineligible entries (inactive or already breached) are a normal filter
// result and never produce one; only malformed entries do.
type SelectionError struct {
	GroupKey string
	Position int // index within the group's credentials array
	Reason   string
}

// Error implements the error interface.
func (e SelectionError) Error() string {
	return fmt.Sprintf("group %s entry %d: %s", e.GroupKey, e.Position, e.Reason)
}

// Select flattens the groups into the processing queue, preserving group
// order and entry order within each group. Eligible entries missing a login
// id or password cannot be driven through the terminal and are reported as
// selection errors. Pure; no I/O.
func Select(groups []domain.CredentialGroup, server string) ([]domain.Candidate, []SelectionError) {
	var candidates []domain.Candidate
	var errs []SelectionError

	for _, g := range groups {
		for i, e := range g.Credentials {
			if !e.Eligible() {
				continue
			}
			if e.LoginID == "" {
				errs = append(errs, SelectionError{GroupKey: g.Key, Position: i, Reason: "empty loginId"})
				continue
			}
			if e.Password == "" {
				errs = append(errs, SelectionError{GroupKey: g.Key, Position: i, Reason: "empty password"})
				continue
			}
			candidates = append(candidates, domain.Candidate{
				GroupKey: g.Key,
				Entry:    e,
				Server:   server,
			})
		}
	}
	return candidates, errs
}
