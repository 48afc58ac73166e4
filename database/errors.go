package database

import "gorm.io/gorm"

// Translated driver errors, matched by stores with errors.Is.
var (
	ErrDuplicatedKey  = gorm.ErrDuplicatedKey
	ErrRecordNotFound = gorm.ErrRecordNotFound
)
