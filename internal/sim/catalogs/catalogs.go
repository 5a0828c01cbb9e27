package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// Table file names inside the data directory.
const (
	WineNotesFile        = "wine_notes.csv"
	WineFeelsFile        = "wine_feels.csv"
	LiquidContainersFile = "liquid_containers.csv"
	GemTypesFile         = "gem_types.csv"
	GemCutsFile          = "gem_cuts.csv"
	GemSizesFile         = "gem_sizes.csv"
	GemQualitiesFile     = "gem_qualities.csv"
)

type Catalogs struct {
	Gems  GemCatalog
	Wines WineCatalog
}

type GemCatalog struct {
	Types     Table[GemType]
	Cuts      Table[GemAttribute]
	Sizes     Table[GemAttribute]
	Qualities Table[GemAttribute]
}

type WineCatalog struct {
	Notes      Table[Trait]
	Feels      Table[Trait]
	Containers Table[LiquidContainer]
}

// Table is one loaded reference table. Digest is the sha256 of the raw file.
type Table[T any] struct {
	Name   string
	Path   string
	Rows   []T
	Digest string
}

// Trait is a generic attribute row: a wine note or feel.
type Trait struct {
	Name     string  `json:"name"`
	ValueMod float64 `json:"value_mod"`
	Weight   float64 `json:"weight"`
	ExPool   string  `json:"ex_pool,omitempty"` // "" means no exclusion group
}

type LiquidContainer struct {
	Name     string  `json:"name"`
	ValueMod float64 `json:"value_mod"`
	Weight   float64 `json:"weight"`
	Oz       int     `json:"oz"`
}

type GemType struct {
	Name          string  `json:"name"`
	ValueMin      int     `json:"value_min"`
	ValueMax      int     `json:"value_max"`
	ValueCategory int     `json:"value_category"`
	Weight        float64 `json:"weight"`
}

// GemAttribute is a cut, size or clarity row.
type GemAttribute struct {
	Name               string  `json:"name"`
	ValueCategoryDelta int     `json:"value_category_delta"`
	Weight             float64 `json:"weight"`
}

// TableRef is the shape-free view of a table used by the catalog index.
type TableRef struct {
	Name   string
	Path   string
	Digest string
	Rows   any
	Count  int
}

func Load(dataDir string) (*Catalogs, error) {
	gems, err := LoadGems(dataDir)
	if err != nil {
		return nil, err
	}
	wines, err := LoadWines(dataDir)
	if err != nil {
		return nil, err
	}
	return &Catalogs{Gems: *gems, Wines: *wines}, nil
}

func LoadGems(dataDir string) (*GemCatalog, error) {
	var c GemCatalog
	var err error
	if c.Types, err = loadTable(filepath.Join(dataDir, GemTypesFile), gemTypeColumns, parseGemType); err != nil {
		return nil, err
	}
	if c.Cuts, err = loadTable(filepath.Join(dataDir, GemCutsFile), gemAttributeColumns, parseGemAttribute); err != nil {
		return nil, err
	}
	if c.Sizes, err = loadTable(filepath.Join(dataDir, GemSizesFile), gemAttributeColumns, parseGemAttribute); err != nil {
		return nil, err
	}
	if c.Qualities, err = loadTable(filepath.Join(dataDir, GemQualitiesFile), gemAttributeColumns, parseGemAttribute); err != nil {
		return nil, err
	}
	return &c, nil
}

func LoadWines(dataDir string) (*WineCatalog, error) {
	var c WineCatalog
	var err error
	if c.Notes, err = loadTable(filepath.Join(dataDir, WineNotesFile), traitColumns, parseTrait); err != nil {
		return nil, err
	}
	if c.Feels, err = loadTable(filepath.Join(dataDir, WineFeelsFile), traitColumns, parseTrait); err != nil {
		return nil, err
	}
	if c.Containers, err = loadTable(filepath.Join(dataDir, LiquidContainersFile), containerColumns, parseContainer); err != nil {
		return nil, err
	}
	return &c, nil
}

// Refs lists every loaded table in file-name order.
func (c *Catalogs) Refs() []TableRef {
	if c == nil {
		return nil
	}
	return append(c.Gems.Refs(), c.Wines.Refs()...)
}

func (c *GemCatalog) Refs() []TableRef {
	return []TableRef{
		ref(c.Cuts), ref(c.Qualities), ref(c.Sizes), ref(c.Types),
	}
}

func (c *WineCatalog) Refs() []TableRef {
	return []TableRef{
		ref(c.Containers), ref(c.Feels), ref(c.Notes),
	}
}

// Digest combines the digests of refs in order.
func Digest(refs []TableRef) string {
	h := sha256.New()
	for _, r := range refs {
		h.Write([]byte(r.Name))
		h.Write([]byte{0})
		h.Write([]byte(r.Digest))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func ref[T any](t Table[T]) TableRef {
	return TableRef{Name: t.Name, Path: t.Path, Digest: t.Digest, Rows: t.Rows, Count: len(t.Rows)}
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
