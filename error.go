package main

import "errors"

var (
	ErrDestinationExists     = errors.New("destination already exists")
	ErrJournalNotFound       = errors.New("journal not found")
	ErrUnknownOverrideAction = errors.New("unknown override action")
	ErrUnknownDedupeMode     = errors.New("unknown dedupe mode")
	ErrDatabaseInUse         = errors.New("another instance is already using this database")
)
