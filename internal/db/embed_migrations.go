package db

import "embed"

// DirectoryMigrationFS embeds the migration files of the global directory
// database (approved domains, email directory, signup tokens, audit trail).
//
//go:embed migrations/directory/*.sql
var DirectoryMigrationFS embed.FS

// RegionalMigrationFS embeds the migration files applied to every regional
// database (users and the token lifecycle table).
//
//go:embed migrations/regional/*.sql
var RegionalMigrationFS embed.FS
