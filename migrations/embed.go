// Copyright 2025 James Ross

// Package migrations embeds the SQL schema migrations so the binary can
// bring a fresh database up to date without any files on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
