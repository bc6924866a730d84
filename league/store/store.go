// Package store provides typed access to league documents over any
// docstore.Session, so the same code runs inside and outside transactions.
package store

import (
	"errors"
	"fmt"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

// Collection names.
const (
	TeamsCollection   = "teams"
	GroupsCollection  = "groups"
	MatchesCollection = "matches"
)

// translate maps document store errors onto the league error kinds. Records
// that cannot be decoded are reported as validation failures.
func translate(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return models.NotFoundf("%s %s not found", entity, id)
	}
	var decodeErr *docstore.DecodeError
	if errors.As(err, &decodeErr) {
		return models.Validationf("stored %s %s is malformed: %v", entity, decodeErr.ID, decodeErr.Err)
	}
	if id == "" {
		return fmt.Errorf("failed to access %s: %w", entity, err)
	}
	return fmt.Errorf("failed to access %s %s: %w", entity, id, err)
}
