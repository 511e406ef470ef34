package dictionary

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/vitalvas/radwire/pkg/log"
)

// MaxTLVNesting is how deep BEGIN-TLV blocks may nest
const MaxTLVNesting = 24

// fileID identifies a file independently of the path used to reach it
type fileID struct {
	dev uint64
	ino uint64
}

type fileStat struct {
	modTime time.Time
}

// fileSystem abstracts the OS and embedded file trees the loader reads from
type fileSystem interface {
	join(dir, name string) string
	dir(name string) string
	stat(name string) (fs.FileInfo, error)
	readFile(name string) ([]byte, error)
}

type osFiles struct{}

func (osFiles) join(dir, name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(dir, name)
}

func (osFiles) dir(name string) string                { return filepath.Dir(name) }
func (osFiles) stat(name string) (fs.FileInfo, error) { return os.Stat(name) }
func (osFiles) readFile(name string) ([]byte, error)  { return os.ReadFile(name) }

type fsFiles struct {
	fsys fs.FS
}

func (f fsFiles) join(dir, name string) string {
	if strings.HasPrefix(name, "/") {
		return path.Clean(strings.TrimPrefix(name, "/"))
	}
	return path.Join(dir, name)
}

func (f fsFiles) dir(name string) string                { return path.Dir(name) }
func (f fsFiles) stat(name string) (fs.FileInfo, error) { return fs.Stat(f.fsys, name) }
func (f fsFiles) readFile(name string) ([]byte, error)  { return fs.ReadFile(f.fsys, name) }

// loader reads dictionary files into a Dictionary
type loader struct {
	dict  *Dictionary
	files fileSystem
}

// fileState is the block context of the file being read
type fileState struct {
	name        string
	line        int
	parent      *Attribute
	blockVendor uint32
	tlvStack    []*Attribute
}

// Load creates a dictionary named after protocol from filename in dir,
// following includes and resolving every deferred VALUE.
func Load(dir, filename, protocol string, opts ...Option) (*Dictionary, error) {
	d := New(protocol, opts...)

	if err := d.ReadFile(dir, filename); err != nil {
		return nil, err
	}

	if err := d.ResolveFixups(); err != nil {
		return nil, err
	}

	return d, nil
}

// LoadFS is Load for a file tree such as an embed.FS
func LoadFS(fsys fs.FS, filename, protocol string, opts ...Option) (*Dictionary, error) {
	d := New(protocol, opts...)

	if err := d.ReadFS(fsys, filename); err != nil {
		return nil, err
	}

	if err := d.ResolveFixups(); err != nil {
		return nil, err
	}

	return d, nil
}

// ReadFile merges filename from dir into the dictionary. VALUEs for
// attributes that are still undefined stay pending until ResolveFixups.
func (d *Dictionary) ReadFile(dir, filename string) error {
	l := &loader{dict: d, files: osFiles{}}
	return l.read(dir, filename, nil)
}

// ReadFS merges filename from fsys into the dictionary
func (d *Dictionary) ReadFS(fsys fs.FS, filename string) error {
	l := &loader{dict: d, files: fsFiles{fsys: fsys}}
	return l.read(".", filename, nil)
}

// Reload returns d unchanged if filename has not been modified since it
// was read, otherwise a freshly loaded dictionary.
func (d *Dictionary) Reload(dir, filename string) (*Dictionary, error) {
	files := osFiles{}
	if d.unchanged(files, files.join(dir, filename)) {
		d.logger.Debugf("dictionary %s unchanged, not reloading", filename)
		return d, nil
	}

	return Load(dir, filename, d.root.Name, WithLogger(d.logger))
}

// unchanged reports whether the file was read before and has not been modified since
func (d *Dictionary) unchanged(files fileSystem, name string) bool {
	if len(d.stats) == 0 {
		return false
	}

	info, err := files.stat(name)
	if err != nil {
		return false
	}

	id, ok := statID(info)
	if !ok {
		return false
	}

	st, ok := d.stats[id]
	if !ok {
		return false
	}

	return !st.modTime.Before(info.ModTime())
}

func (d *Dictionary) rememberStat(info fs.FileInfo) {
	if id, ok := statID(info); ok {
		d.stats[id] = fileStat{modTime: info.ModTime()}
	}
}

func includedFrom(from *fileState) string {
	if from == nil {
		return "-"
	}
	return fmt.Sprintf("%s[%d]", from.name, from.line)
}

// openError marks a file that could not be opened, so optional includes can skip it
type openError struct {
	err error
}

func (e *openError) Error() string { return e.err.Error() }
func (e *openError) Unwrap() error { return e.err }

func (l *loader) read(dir, filename string, from *fileState) error {
	d := l.dict
	name := l.files.join(dir, filename)

	// Skip files we've loaded before
	if d.unchanged(l.files, name) {
		d.logger.Debugf("skipping unchanged dictionary %s", name)
		return nil
	}

	data, err := l.files.readFile(name)
	if err != nil {
		err = &openError{err: fmt.Errorf("couldn't open dictionary '%s': %w", name, err)}
		if from != nil {
			return &LoadError{File: from.name, Line: from.line, Err: err}
		}
		return err
	}

	info, err := l.files.stat(name)
	if err != nil {
		return fmt.Errorf("failed to stat dictionary '%s': %w", name, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: dictionary '%s' is not a regular file", ErrInsecureFile, name)
	}

	// Globally writable dictionaries let anyone control the configuration
	if info.Mode().Perm()&0o002 != 0 {
		return fmt.Errorf("%w: dictionary '%s' is globally writable, refusing to start due to insecure configuration",
			ErrInsecureFile, name)
	}

	d.rememberStat(info)
	log.With(d.logger, "file", name).Debugf("reading dictionary, included from %s", includedFrom(from))

	st := &fileState{
		name:   name,
		parent: d.root,
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		st.line++

		text := scanner.Text()
		if text == "" || text[0] == '#' || text[0] == '\r' {
			continue
		}

		args := splitArgs(text)
		if len(args) == 0 {
			continue
		}

		if err := l.processLine(st, args); err != nil {
			var le *LoadError
			if errors.As(err, &le) && le.File == st.name {
				return err
			}
			return &LoadError{File: st.name, Line: st.line, Err: err}
		}
	}

	if err := scanner.Err(); err != nil {
		return &LoadError{File: st.name, Line: st.line, Err: err}
	}

	return nil
}

func (l *loader) processLine(st *fileState, args []string) error {
	d := l.dict

	if len(args) == 1 {
		return fmt.Errorf("%w: invalid entry", ErrSyntax)
	}

	switch strings.ToUpper(args[0]) {
	case "VALUE":
		return d.processValue(args[1:])

	case "ATTRIBUTE":
		return d.processAttribute(st.parent, st.blockVendor, args[1:])

	case "$INCLUDE":
		return l.read(l.files.dir(st.name), args[1], st)

	case "$INCLUDE-":
		err := l.read(l.files.dir(st.name), args[1], st)

		// Only a missing file is tolerated, not errors from inside it
		var le *LoadError
		if errors.As(err, &le) && le.File == st.name {
			if oe, ok := le.Err.(*openError); ok && errors.Is(oe, fs.ErrNotExist) {
				return nil
			}
		}
		return err

	case "VENDOR":
		return d.processVendor(args[1:])

	case "BEGIN-TLV":
		return l.beginTLV(st, args)

	case "END-TLV":
		return l.endTLV(st, args)

	case "BEGIN-VENDOR":
		return l.beginVendor(st, args)

	case "END-VENDOR":
		return l.endVendor(st, args)

	default:
		return fmt.Errorf("%w: invalid keyword '%s'", ErrSyntax, args[0])
	}
}

func (l *loader) beginTLV(st *fileState, args []string) error {
	if len(st.tlvStack)+1 > MaxTLVNesting {
		return fmt.Errorf("%w: TLVs are nested too deep", ErrSyntax)
	}

	if len(args) != 2 {
		return fmt.Errorf("%w: invalid BEGIN-TLV entry", ErrSyntax)
	}

	da, ok := l.dict.AttrByName(args[1])
	if !ok {
		return fmt.Errorf("%w: unknown attribute '%s'", ErrNotFound, args[1])
	}

	if da.Type != TypeTLV {
		return fmt.Errorf("%w: attribute '%s' should be a 'tlv', but is a '%s'", ErrInvalidType, args[1], da.Type)
	}

	common := CommonAncestor(st.parent, da, true)
	if common == nil || common.Flags.IsRoot || common.Type == TypeVSA || common.Type == TypeEVS {
		return fmt.Errorf("%w: attribute '%s' is not a child of '%s'", ErrInvalidType, args[1], st.parent.Name)
	}

	st.tlvStack = append(st.tlvStack, st.parent)
	st.parent = da

	return nil
}

func (l *loader) endTLV(st *fileState, args []string) error {
	if len(st.tlvStack) == 0 {
		return fmt.Errorf("%w: too many END-TLV entries, mismatch at END-TLV %s", ErrSyntax, args[1])
	}

	if len(args) != 2 {
		return fmt.Errorf("%w: invalid END-TLV entry", ErrSyntax)
	}

	da, ok := l.dict.AttrByName(args[1])
	if !ok {
		return fmt.Errorf("%w: unknown attribute '%s'", ErrNotFound, args[1])
	}

	if da != st.parent {
		return fmt.Errorf("%w: END-TLV %s does not match previous BEGIN-TLV %s", ErrSyntax, args[1], st.parent.Name)
	}

	st.parent = st.tlvStack[len(st.tlvStack)-1]
	st.tlvStack = st.tlvStack[:len(st.tlvStack)-1]

	return nil
}

func (l *loader) beginVendor(st *fileState, args []string) error {
	d := l.dict

	v, ok := d.VendorByName(args[1])
	if !ok {
		return fmt.Errorf("%w: unknown vendor '%s'", ErrUnknownVendor, args[1])
	}

	var vsa *Attribute

	// BEGIN-VENDOR foo format=Foo-Encapsulation-Attr
	if len(args) > 2 {
		attrName, found := strings.CutPrefix(args[2], "format=")
		if !found {
			return fmt.Errorf("%w: invalid format %s", ErrSyntax, args[2])
		}

		da, ok := d.AttrByName(attrName)
		if !ok {
			return fmt.Errorf("%w: invalid format for BEGIN-VENDOR: unknown attribute '%s'", ErrNotFound, attrName)
		}

		if da.Type != TypeEVS {
			return fmt.Errorf("%w: invalid format for BEGIN-VENDOR, attribute '%s' should be 'evs' but is '%s'",
				ErrInvalidType, attrName, da.Type)
		}

		vsa = da
	}

	vda, err := d.vendorNode(st.parent, vsa, v)
	if err != nil {
		return err
	}

	st.parent = vda
	st.blockVendor = v.Number

	return nil
}

func (l *loader) endVendor(st *fileState, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: invalid END-VENDOR entry", ErrSyntax)
	}

	v, ok := l.dict.VendorByName(args[1])
	if !ok {
		return fmt.Errorf("%w: unknown vendor '%s'", ErrUnknownVendor, args[1])
	}

	if v.Number != st.blockVendor {
		return fmt.Errorf("%w: END-VENDOR '%s' does not match any previous BEGIN-VENDOR", ErrSyntax, args[1])
	}

	st.parent = l.dict.root
	st.blockVendor = 0

	return nil
}
