// Package catalog holds the immutable crop definitions the engine reads.
//
// The built-in catalog is embedded as YAML and validated against an embedded
// JSON schema before decoding. A user file may add crops or replace built-in
// ones by id.
package catalog

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/components"
)

//go:embed crops.yaml
var defaultCropsYAML []byte

//go:embed crops.schema.json
var cropsSchemaJSON string

// UpgradeMode says how repeated basic upgrades stack.
type UpgradeMode string

const (
	UpgradeMultiplicative UpgradeMode = "multiplicative" // factor^n
	UpgradeAdditive       UpgradeMode = "additive"       // 1 + factor·n
)

// Upgrade is a crop's basic upgrade.
type Upgrade struct {
	Mode       UpgradeMode
	Factor     float64
	Cost       components.Vector
	CostGrowth float64
}

// Stack returns the multiplier of n purchased upgrades. It may be non-finite
// for pathological counts; callers truncate.
func (u *Upgrade) Stack(n int) bignum.Decimal {
	if n <= 0 {
		return bignum.One
	}
	if u.Mode == UpgradeAdditive {
		return bignum.FromFloat(1 + u.Factor*float64(n))
	}
	return bignum.FromFloat(u.Factor).Pow(float64(n))
}

// CostAt returns the price of the upgrade after n have been bought.
func (u *Upgrade) CostAt(n int) components.Vector {
	growth := u.CostGrowth
	if growth < 1 {
		growth = 1
	}
	return u.Cost.ScaleDecimal(bignum.FromFloat(growth).Pow(float64(n)))
}

// Crop is an immutable crop definition.
type Crop struct {
	ID       string
	Category components.Category
	Tier     int
	// Growth is seconds to mature; for short-lived crops it is the lifetime.
	Growth     float64
	Boost      float64
	Cost       components.Vector
	Production components.Vector
	Upgrade    *Upgrade
}

// Catalog is the crop lookup table. It is immutable after loading.
type Catalog struct {
	crops  map[string]*Crop
	byCat  [components.NumCategories][]*Crop
	ids    []string
	digest string
}

type rawUpgrade struct {
	Mode       string             `yaml:"mode" json:"mode"`
	Factor     float64            `yaml:"factor" json:"factor"`
	Cost       map[string]float64 `yaml:"cost" json:"cost,omitempty"`
	CostGrowth float64            `yaml:"cost_growth" json:"cost_growth,omitempty"`
}

type rawCrop struct {
	ID         string             `yaml:"id" json:"id"`
	Category   string             `yaml:"category" json:"category"`
	Tier       int                `yaml:"tier" json:"tier"`
	Growth     float64            `yaml:"growth" json:"growth"`
	Boost      float64            `yaml:"boost" json:"boost,omitempty"`
	Cost       map[string]float64 `yaml:"cost" json:"cost,omitempty"`
	Production map[string]float64 `yaml:"production" json:"production,omitempty"`
	Upgrade    *rawUpgrade        `yaml:"upgrade" json:"upgrade,omitempty"`
}

type rawCatalog struct {
	Crops []rawCrop `yaml:"crops" json:"crops"`
}

var schema = jsonschema.MustCompileString("crops.schema.json", cropsSchemaJSON)

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog invalid: %v", err))
	}
	return c
}

// Load returns the embedded catalog overlaid with the crops in path. If path
// is empty only the embedded catalog is used.
func Load(path string) (*Catalog, error) {
	base, err := parseRaw(defaultCropsYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog file: %w", err)
		}
		overlay, err := parseRaw(data)
		if err != nil {
			return nil, fmt.Errorf("catalog file %s: %w", path, err)
		}
		base = merge(base, overlay)
	}
	return build(base)
}

// Parse builds a catalog from YAML without the embedded crops.
func Parse(data []byte) (*Catalog, error) {
	raw, err := parseRaw(data)
	if err != nil {
		return nil, err
	}
	return build(raw)
}

// parseRaw validates data against the schema and decodes it.
func parseRaw(data []byte) (rawCatalog, error) {
	var raw rawCatalog

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return raw, fmt.Errorf("parsing yaml: %w", err)
	}
	// The validator wants plain JSON values
	js, err := json.Marshal(doc)
	if err != nil {
		return raw, fmt.Errorf("converting to json: %w", err)
	}
	var jsDoc any
	if err := json.Unmarshal(js, &jsDoc); err != nil {
		return raw, fmt.Errorf("converting to json: %w", err)
	}
	if err := schema.Validate(jsDoc); err != nil {
		return raw, fmt.Errorf("schema: %w", err)
	}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return raw, fmt.Errorf("decoding crops: %w", err)
	}
	return raw, nil
}

// merge replaces base crops by id and appends new ones.
func merge(base, overlay rawCatalog) rawCatalog {
	idx := make(map[string]int, len(base.Crops))
	for i, c := range base.Crops {
		idx[c.ID] = i
	}
	for _, c := range overlay.Crops {
		if i, ok := idx[c.ID]; ok {
			base.Crops[i] = c
			continue
		}
		idx[c.ID] = len(base.Crops)
		base.Crops = append(base.Crops, c)
	}
	return base
}

func build(raw rawCatalog) (*Catalog, error) {
	sort.Slice(raw.Crops, func(i, j int) bool { return raw.Crops[i].ID < raw.Crops[j].ID })

	c := &Catalog{crops: make(map[string]*Crop, len(raw.Crops))}
	seenTier := make(map[[2]int]string)
	for _, rc := range raw.Crops {
		if _, dup := c.crops[rc.ID]; dup {
			return nil, fmt.Errorf("duplicate crop id %q", rc.ID)
		}
		crop, err := convert(rc)
		if err != nil {
			return nil, fmt.Errorf("crop %q: %w", rc.ID, err)
		}
		key := [2]int{int(crop.Category), crop.Tier}
		if other, ok := seenTier[key]; ok {
			return nil, fmt.Errorf("crops %q and %q share %s tier %d", other, rc.ID, crop.Category, crop.Tier)
		}
		seenTier[key] = rc.ID

		c.crops[crop.ID] = crop
		c.ids = append(c.ids, crop.ID)
		c.byCat[crop.Category] = append(c.byCat[crop.Category], crop)
	}
	for cat := range c.byCat {
		list := c.byCat[cat]
		sort.Slice(list, func(i, j int) bool { return list[i].Tier < list[j].Tier })
	}

	canonical, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("digest: %w", err)
	}
	sum := sha256.Sum256(canonical)
	c.digest = hex.EncodeToString(sum[:])
	return c, nil
}

func convert(rc rawCrop) (*Crop, error) {
	cat, err := components.ParseCategory(rc.Category)
	if err != nil {
		return nil, err
	}
	cost, err := components.VectorFromMap(rc.Cost)
	if err != nil {
		return nil, fmt.Errorf("cost: %w", err)
	}
	prod, err := components.VectorFromMap(rc.Production)
	if err != nil {
		return nil, fmt.Errorf("production: %w", err)
	}
	crop := &Crop{
		ID:         rc.ID,
		Category:   cat,
		Tier:       rc.Tier,
		Growth:     rc.Growth,
		Boost:      rc.Boost,
		Cost:       cost,
		Production: prod,
	}
	if rc.Upgrade != nil {
		upCost, err := components.VectorFromMap(rc.Upgrade.Cost)
		if err != nil {
			return nil, fmt.Errorf("upgrade cost: %w", err)
		}
		crop.Upgrade = &Upgrade{
			Mode:       UpgradeMode(rc.Upgrade.Mode),
			Factor:     rc.Upgrade.Factor,
			Cost:       upCost,
			CostGrowth: rc.Upgrade.CostGrowth,
		}
	}
	return crop, nil
}

// Get looks up a crop by id.
func (c *Catalog) Get(id string) (*Crop, bool) {
	crop, ok := c.crops[id]
	return crop, ok
}

// ByCategoryTier looks up the crop of a category at a tier.
func (c *Catalog) ByCategoryTier(cat components.Category, tier int) (*Crop, bool) {
	if cat >= components.NumCategories {
		return nil, false
	}
	for _, crop := range c.byCat[cat] {
		if crop.Tier == tier {
			return crop, true
		}
	}
	return nil, false
}

// Category returns the crops of cat ordered by tier. The slice is shared.
func (c *Catalog) Category(cat components.Category) []*Crop {
	if cat >= components.NumCategories {
		return nil
	}
	return c.byCat[cat]
}

// IDs returns every crop id in sorted order. The slice is shared.
func (c *Catalog) IDs() []string {
	return c.ids
}

// Len returns the number of crops.
func (c *Catalog) Len() int {
	return len(c.crops)
}

// Digest returns a sha256 of the canonical catalog, for run snapshots.
func (c *Catalog) Digest() string {
	return c.digest
}
