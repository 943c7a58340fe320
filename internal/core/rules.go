package core

import (
	"regexp"
	"text/template"
)

const ruler = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Rule names, in evaluation order.
const (
	RuleRecursiveForceDelete  = "recursive-force-delete"
	RulePrivilegedDelete      = "privileged-delete"
	RuleRemoteScriptExecution = "remote-script-execution"
	RuleSystemDirectoryDelete = "system-directory-delete"
	RuleWorldWritableChmod    = "world-writable-chmod"
)

// TrashCommand replaces the destructive rm flag cluster in suggestions.
const TrashCommand = "gomi"

// rmFlagCluster matches "rm -<flags>" where the cluster holds both r and f.
var rmFlagCluster = regexp.MustCompile(`rm\s+-\w*(?:r\w*f|f\w*r)\w*`)

// SuggestTrash rewrites a recursive force delete into the recoverable trash command.
func SuggestTrash(command string) string {
	return rmFlagCluster.ReplaceAllLiteralString(command, TrashCommand)
}

// BuiltinRules returns a fresh copy of the builtin rule table in evaluation order.
// The order is part of the contract: rule 1 claims "rm -rf /etc" before the
// system directory rule gets to see it.
func BuiltinRules() []*Rule {
	rules := []*Rule{
		{
			Name:        RuleRecursiveForceDelete,
			Expr:        `rm\s+(-\w*r\w*f|-\w*f\w*r)`,
			Severity:    SeverityBlock,
			Description: "recursive force delete (rm -rf / rm -fr)",
			Message: newTemplate(RuleRecursiveForceDelete, `
🚨 `+ruler+`
   Dangerous command detected!
🚨 `+ruler+`

⚠️  Command: {{.Command}}
💀 Risk: high (permanent deletion, cannot be undone)

✅ Alternatives:
   1. Move to the trash instead (recoverable): {{.Suggestion}}

   2. Delete more carefully:
      - list the contents with ls first
      - delete step by step (rm -r without -f)

❌ This command was blocked.

`+ruler+`
`),
			Suggest: SuggestTrash,
		},
		{
			Name:        RulePrivilegedDelete,
			Expr:        `sudo\s+rm\s+`,
			Severity:    SeverityBlock,
			Description: "delete with elevated privileges (sudo rm)",
			Message: newTemplate(RulePrivilegedDelete, `
🚨 System-level delete command detected
`+ruler+`

⚠️  Command: {{.Command}}
🔒 Privilege: administrator

❌ Blocked by security policy.
`),
		},
		{
			Name:        RuleRemoteScriptExecution,
			Expr:        `(curl|wget)\s+.*\|\s*(bash|sh)`,
			Severity:    SeverityBlock,
			Description: "remote script piped into a shell (curl | bash)",
			Message: newTemplate(RuleRemoteScriptExecution, `
🚨 Execution of an unverified script detected
`+ruler+`

⚠️  Command: {{.Command}}
🔍 Risk: runs unreviewed code directly

✅ Recommended steps:
   1. Download the script first
   2. Read its contents
   3. Run it only after verifying it is safe

❌ This command was blocked.
`),
		},
		{
			Name:        RuleSystemDirectoryDelete,
			Expr:        `rm\s+(.*\s)?/\*?(\s|$)|rm\s+.*(/bin|/etc|/usr|/var|/System|/Library)`,
			Severity:    SeverityBlock,
			Description: "delete targeting a system directory",
			Message: newTemplate(RuleSystemDirectoryDelete, `
🚨 Operation on a system directory detected
`+ruler+`

⛔ Never run this!
💀 Command: {{.Command}}

❌ Blocked.
`),
		},
		{
			Name:        RuleWorldWritableChmod,
			Expr:        `chmod\s+777`,
			Severity:    SeverityWarn,
			Description: "permission change granting everyone full access (chmod 777)",
			Message: newTemplate(RuleWorldWritableChmod, `
⚠️  Command with a security risk
`+ruler+`

🔓 Command: {{.Command}}
🚨 Risk: gives every user full permissions

💡 Safer alternatives:
   - chmod 755 (executables)
   - chmod 644 (regular files)
   - chmod 600 (sensitive files)

⚠️  Proceed with care.
`),
		},
	}
	for _, r := range rules {
		r.Pattern = regexp.MustCompile(r.Expr)
	}
	return rules
}

func newTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}
