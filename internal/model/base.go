package model

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document keys shared by every record type.
const (
	KeyID        = "_id"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
)

// ErrInvalidID is returned when a string cannot be coerced into an ObjectID.
var ErrInvalidID = errors.New("invalid object id")

// NewID returns a fresh identifier in the 24 character hex form used by every backend.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// CoerceObjectID converts the string form of an identifier into the store's
// native ObjectID. Foreign keys such as Schedule.reportID are stored as plain
// strings, so every join through them goes through this step.
func CoerceObjectID(s string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return oid, nil
}

// CanonicalID normalizes an identifier string, e.g. upper-case hex, to the form
// the stores index by.
func CanonicalID(s string) (string, error) {
	oid, err := CoerceObjectID(s)
	if err != nil {
		return "", err
	}
	return oid.Hex(), nil
}

// FindOptions controls ordering and paging of a store read.
type FindOptions struct {
	// Sort is a document field path; empty keeps store order.
	Sort string
	Desc bool
	Skip int64
	// Limit <= 0 means no limit.
	Limit int64
}
