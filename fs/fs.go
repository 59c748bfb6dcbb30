package appfs

import "embed"

// FS holds the database migrations and email templates that ship inside the
// binary.
//go:embed migrations assets assets/templates/email/_base.txt assets/templates/email/_base.gohtml
var FS embed.FS
