// Package appfs holds the files shipped inside the binaries: SQL migrations,
// email templates and static data.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/* data/*
var FS embed.FS
