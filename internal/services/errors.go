package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Error classes. Handlers switch on these with errors.Is; specific errors
// below wrap one of them.
var (
	ErrUnauthenticated = errors.New("you must be signed in")
	ErrUnauthorized    = errors.New("you are not allowed to do this")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrInvalidInput    = errors.New("invalid input")
)

var (
	ErrProductNotFound    = fmt.Errorf("%w: activity", ErrNotFound)
	ErrMembershipNotFound = fmt.Errorf("%w: membership", ErrNotFound)
	ErrTicketNotFound     = fmt.Errorf("%w: support ticket", ErrNotFound)
	ErrReviewNotFound     = fmt.Errorf("%w: review", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("%w: user", ErrNotFound)

	ErrAlreadyRequested  = fmt.Errorf("%w: you already asked to join this activity", ErrConflict)
	ErrFeedbackExists    = fmt.Errorf("%w: feedback already submitted", ErrConflict)
	ErrMembershipRemoved = fmt.Errorf("%w: you were removed from this activity", ErrUnauthorized)
	ErrInvalidTransition = fmt.Errorf("%w: membership is not in a state that allows this", ErrInvalidInput)
	ErrOwnProduct        = fmt.Errorf("%w: you organise this activity", ErrInvalidInput)
	ErrContentRejected   = fmt.Errorf("%w: content rejected", ErrInvalidInput)
	ErrTicketResolved    = fmt.Errorf("%w: ticket is resolved", ErrInvalidInput)
	ErrNotConnected      = fmt.Errorf("%w: strava account", ErrNotFound)
)

// isDuplicateKey reports a unique-constraint violation from the store.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// notFound maps gorm.ErrRecordNotFound onto the given domain error.
func notFound(err error, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}
