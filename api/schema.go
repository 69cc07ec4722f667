package api

import (
	"io/fs"
	"strings"
)

// Description is the root of a parsed tree description.
// It maps an ordered list of declarations to a directory structure.
type Description struct {
	// Version of the description format.
	Version string
	// Decls are the top-level declarations, materialized in order.
	Decls []Declaration
}

// Declaration is one of *Folder, *File, *Loop, *Output or *Input. The set
// is closed: the marker method is unexported, so consumers can switch
// exhaustively.
type Declaration interface {
	declaration()
	// Label is a short human-readable form used in diagnostics.
	Label() string
}

// Folder represents a directory. Nesting is expressed via Children,
// never via separators in Name.
type Folder struct {
	// Name of the directory. Can reference loop variables.
	Name string `validate:"required,segment"`
	// Children are materialized inside the folder, in order.
	Children []Declaration
	// Attributes defines permissions (optional).
	Attributes Attributes
}

// File represents a file within the enclosing folder.
type File struct {
	// Name of the file. Can reference loop variables.
	Name string `validate:"required,segment"`
	// Encoding is informational; bodies are written as UTF-8 bytes.
	Encoding string
	// AllowOverwrite controls whether an existing file is replaced.
	AllowOverwrite bool
	// Body is the raw content template.
	Body string
	// Template names a configured template used when Body is empty.
	Template string
	// Type selects a default body when no other content source applies.
	Type FileType `validate:"omitempty,oneof=text binary json yaml xml"`
	// Format runs Go sources through gofumpt before writing.
	Format bool
	// Attributes defines permissions (optional).
	Attributes Attributes
}

// Loop is a counted repetition of Body. It does not add a path segment:
// every iteration materializes into the enclosing folder.
type Loop struct {
	Var  string `validate:"required,ident"`
	Init string `validate:"required"`
	Cond string `validate:"required"`
	Step string `validate:"required"`
	Body []Declaration
}

// Output prints Text, with variables substituted, when traversal reaches
// it. It creates nothing.
type Output struct {
	Text string
}

// Input binds Var for the declarations that follow it in the same block.
// Values are supplied by the caller; a missing value is an unbound
// variable.
type Input struct {
	Var string `validate:"required,ident"`
}

// Attributes defines optional metadata for folders and files.
type Attributes struct {
	Mode       fs.FileMode // Permission bits (e.g., 0o644); zero means default
	Executable bool        // Adds the execute bits to Mode
}

// FileType is the coarse kind of a file's default content.
type FileType string

const (
	FileText   FileType = "text"
	FileBinary FileType = "binary"
	FileJSON   FileType = "json"
	FileYAML   FileType = "yaml"
	FileXML    FileType = "xml"
)

const DefaultEncoding = "UTF-8"

func (*Folder) declaration() {}
func (*File) declaration()   {}
func (*Loop) declaration()   {}
func (*Output) declaration() {}
func (*Input) declaration()  {}

func (f *Folder) Label() string { return "folder " + quote(f.Name) }
func (f *File) Label() string   { return "file " + quote(f.Name) }
func (l *Loop) Label() string {
	return "for [" + l.Var + " = " + l.Init + "; " + l.Cond + "; " + l.Step + "]"
}

func (o *Output) Label() string { return "stdout << " + quote(o.Text) }
func (i *Input) Label() string  { return "stdin >> " + i.Var }

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// FileDefaults seeds attributes a description leaves unset.
type FileDefaults struct {
	Encoding       string
	AllowOverwrite bool
	Type           FileType
	Mode           fs.FileMode
	Executable     bool
	Format         bool
}

// DefaultFileDefaults mirrors the documented attribute defaults.
func DefaultFileDefaults() FileDefaults {
	return FileDefaults{
		Encoding:       DefaultEncoding,
		AllowOverwrite: true,
	}
}

// NewFile returns a file named name with the defaults applied.
func (d FileDefaults) NewFile(name string) *File {
	enc := d.Encoding
	if enc == "" {
		enc = DefaultEncoding
	}
	return &File{
		Name:           name,
		Encoding:       enc,
		AllowOverwrite: d.AllowOverwrite,
		Type:           d.Type,
		Format:         d.Format,
		Attributes: Attributes{
			Mode:       d.Mode,
			Executable: d.Executable,
		},
	}
}

// EntryKind distinguishes resolved directories from files.
type EntryKind int

const (
	EntryDirectory EntryKind = iota
	EntryFile
)

func (k EntryKind) String() string {
	if k == EntryDirectory {
		return "dir"
	}
	return "file"
}

// Entry is one resolved unit of output, produced in traversal order.
type Entry struct {
	Path    string
	Kind    EntryKind
	Content []byte // nil for directories
	Mode    fs.FileMode
}
