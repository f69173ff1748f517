package storage

import "errors"

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when creating a record whose id is taken.
var ErrAlreadyExists = errors.New("record already exists")

// ErrNoUnitsAvailable is returned when taking a unit from a spot with none left.
var ErrNoUnitsAvailable = errors.New("no units available")

// ErrAllUnitsFree is returned when returning a unit to a spot that has all units free.
var ErrAllUnitsFree = errors.New("all units already free")

// ErrStatusConflict is returned when a conditional booking write finds a different stored status.
var ErrStatusConflict = errors.New("booking status changed concurrently")

// ErrUnitsInUse is returned when a spot edit or removal would strand occupied units.
var ErrUnitsInUse = errors.New("spot has units in use")
