// Package model holds the types that identify a model version in the
// tracking server's registry.
package model

import "errors"

// ErrInvalidReference is returned when a model is identified by a mix of a
// uid and the name/repository/version triple, or by neither.
var ErrInvalidReference = errors.New("please provide either a uid or a name, repository, and version")

// Reference identifies one model version, either by uid or by the full
// (name, repository, version) triple. Built once per command invocation and
// never mutated.
type Reference struct {
	Name       string
	Repository string
	Version    string
	UID        string
}

// Validate checks that exactly one identification shape was supplied: a uid
// with no triple fields, or triple fields with no uid. The triple counts as
// absent only when all three fields are empty.
func (r Reference) Validate() error {
	hasCommon := r.Name == "" && r.Version == "" && r.Repository == ""
	hasUID := r.UID == ""

	if hasCommon != hasUID {
		return nil
	}
	return ErrInvalidReference
}
