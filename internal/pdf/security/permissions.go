package security

import "strings"

// Permission is one user access bit of the /P entry of an encryption
// dictionary
type Permission int32

const (
	PermPrint            Permission = 1 << 2
	PermModify           Permission = 1 << 3
	PermCopy             Permission = 1 << 4
	PermAnnotate         Permission = 1 << 5
	PermFillForms        Permission = 1 << 8
	PermExtract          Permission = 1 << 9
	PermAssemble         Permission = 1 << 10
	PermPrintHighQuality Permission = 1 << 11
)

var permissionNames = []struct {
	perm Permission
	name string
}{
	{PermPrint, "print"},
	{PermModify, "modify"},
	{PermCopy, "copy"},
	{PermAnnotate, "annotate"},
	{PermFillForms, "fill_forms"},
	{PermExtract, "extract"},
	{PermAssemble, "assemble"},
	{PermPrintHighQuality, "print_high_quality"},
}

// Permissions holds the decoded /P value of an encrypted document
type Permissions struct {
	bits int32
}

// NewPermissions decodes a /P value
func NewPermissions(p int32) Permissions {
	return Permissions{bits: p}
}

// FullPermissions grants every operation, as for unencrypted documents
func FullPermissions() Permissions {
	return Permissions{bits: -1}
}

// Has reports whether perm is granted
func (p Permissions) Has(perm Permission) bool {
	return p.bits&int32(perm) != 0
}

// CanFillForms reports whether field values may be changed. Bit 9 only
// matters for revision 3 handlers and later; bit 6 grants filling too.
func (p Permissions) CanFillForms() bool {
	return p.Has(PermFillForms) || p.Has(PermAnnotate)
}

// Allowed returns the names of the granted operations
func (p Permissions) Allowed() []string {
	return p.names(true)
}

// Denied returns the names of the refused operations
func (p Permissions) Denied() []string {
	return p.names(false)
}

func (p Permissions) names(granted bool) []string {
	var out []string
	for _, pn := range permissionNames {
		if p.Has(pn.perm) == granted {
			out = append(out, pn.name)
		}
	}
	return out
}

// Restricted reports whether any operation is refused
func (p Permissions) Restricted() bool {
	return len(p.Denied()) > 0
}

func (p Permissions) String() string {
	denied := p.Denied()
	if len(denied) == 0 {
		return "all operations allowed"
	}
	return "denied: " + strings.Join(denied, ", ")
}
