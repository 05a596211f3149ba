// Package catalog loads the instrument presets: the built-in ones embedded in
// the binary and the user's own from a preset directory.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shapetone/shapetone"
)

//go:embed presets/*.yml
var builtinFS embed.FS

type (
	// Catalog is an immutable set of presets keyed by instrument id. The id
	// of a preset loaded from a file is the file name without extension.
	Catalog struct {
		entries map[string]entry
		ids     []string
	}

	entry struct {
		preset shapetone.Preset
		user   bool
	}
)

// New creates a catalog of the given presets, e.g. for tests.
func New(presets map[string]shapetone.Preset) *Catalog {
	c := &Catalog{entries: make(map[string]entry, len(presets))}
	for id, p := range presets {
		c.entries[id] = entry{preset: p.Copy()}
	}
	c.sort()
	return c
}

// Builtin returns the catalog of the presets embedded in the binary.
func Builtin() (*Catalog, error) {
	c := &Catalog{entries: map[string]entry{}}
	if err := c.loadFS(builtinFS, "presets", false); err != nil {
		return nil, err
	}
	c.sort()
	return c, nil
}

// Load returns the built-in presets overlaid with the presets found in
// userDir. A missing userDir is not an error. Presets in userDir that fail to
// decode are skipped and reported in the returned error, together with a
// usable catalog of everything else.
func Load(userDir string) (*Catalog, error) {
	c, err := Builtin()
	if err != nil {
		return nil, err
	}
	if userDir == "" {
		return c, nil
	}
	if _, err := os.Stat(userDir); errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	err = c.loadFS(os.DirFS(userDir), ".", true)
	c.sort()
	return c, err
}

// Preset returns a copy of the preset with the given id.
func (c *Catalog) Preset(id string) (shapetone.Preset, bool) {
	e, ok := c.entries[id]
	if !ok {
		return shapetone.Preset{}, false
	}
	return e.preset.Copy(), true
}

// IDs returns the instrument ids, sorted.
func (c *Catalog) IDs() []string { return slices.Clone(c.ids) }

// User tells if the preset id was loaded from the user's preset directory.
func (c *Catalog) User(id string) bool { return c.entries[id].user }

func (c *Catalog) Len() int { return len(c.ids) }

func (c *Catalog) loadFS(fsys fs.FS, root string, user bool) error {
	var errs []error
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root {
				return fs.SkipDir
			}
			return nil
		}
		ext := path.Ext(p)
		if ext != ".yml" && ext != ".yaml" {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		preset, err := Decode(bytes.NewReader(data))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			return nil
		}
		id := strings.TrimSuffix(path.Base(p), ext)
		if preset.Name == "" {
			preset.Name = idToName(id)
		}
		c.entries[id] = entry{preset: preset, user: user}
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Catalog) sort() {
	c.ids = make([]string, 0, len(c.entries))
	for id := range c.entries {
		c.ids = append(c.ids, id)
	}
	slices.Sort(c.ids)
}

// Decode reads one preset from r. Unknown fields are rejected.
func Decode(r io.Reader) (shapetone.Preset, error) {
	var p shapetone.Preset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return shapetone.Preset{}, fmt.Errorf("decode preset: %w", err)
	}
	return p, nil
}

// Encode writes p to w in the same format Decode reads.
func Encode(w io.Writer, p shapetone.Preset) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&p); err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}
	return enc.Close()
}

func idToName(id string) string {
	return strings.ReplaceAll(id, "_", " ")
}
