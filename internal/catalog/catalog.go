package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Catalog is the read-only vendor and industry table consumed by the engine.
// It is never mutated after New returns, and every accessor hands out copies.
type Catalog struct {
	vendors    []Vendor
	industries []Industry
	vendorIdx  map[string]int
	industIdx  map[string]int
}

type fileFormat struct {
	Vendors    []Vendor   `yaml:"vendors"`
	Industries []Industry `yaml:"industries"`
}

func New(vendors []Vendor, industries []Industry) (*Catalog, error) {
	c := &Catalog{
		vendorIdx: map[string]int{},
		industIdx: map[string]int{},
	}
	if len(vendors) == 0 {
		return nil, errors.New("catalog has no vendors")
	}
	if len(industries) == 0 {
		return nil, errors.New("catalog has no industries")
	}
	for _, v := range vendors {
		v.ID = strings.TrimSpace(v.ID)
		if err := validate.Struct(v); err != nil {
			return nil, fmt.Errorf("vendor %q: %w", v.ID, formatValidationError(err))
		}
		if _, dup := c.vendorIdx[v.ID]; dup {
			return nil, fmt.Errorf("duplicate vendor id %q", v.ID)
		}
		for tier := range v.Pricing {
			if !tier.Valid() {
				return nil, fmt.Errorf("vendor %q: unknown pricing tier %q", v.ID, tier)
			}
		}
		for cat := range v.Mitigation {
			if !validCategory(cat) {
				return nil, fmt.Errorf("vendor %q: unknown threat category %q", v.ID, cat)
			}
		}
		c.vendorIdx[v.ID] = len(c.vendors)
		c.vendors = append(c.vendors, copyVendor(v))
	}
	for _, ind := range industries {
		ind.ID = strings.TrimSpace(ind.ID)
		if err := validate.Struct(ind); err != nil {
			return nil, fmt.Errorf("industry %q: %w", ind.ID, formatValidationError(err))
		}
		key := strings.ToLower(ind.ID)
		if _, dup := c.industIdx[key]; dup {
			return nil, fmt.Errorf("duplicate industry id %q", ind.ID)
		}
		for _, tv := range ind.ThreatVectors {
			if !validCategory(tv.Category) {
				return nil, fmt.Errorf("industry %q: unknown threat category %q", ind.ID, tv.Category)
			}
		}
		c.industIdx[key] = len(c.industries)
		c.industries = append(c.industries, copyIndustry(ind))
	}
	return c, nil
}

// Load reads a YAML catalog from disk. See Parse.
func Load(path string) (*Catalog, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(blob)
}

// Parse decodes a YAML catalog. A document without an industries section
// uses the built-in industry table.
func Parse(blob []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(blob, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Industries) == 0 {
		f.Industries = defaultIndustries
	}
	return New(f.Vendors, f.Industries)
}

func (c *Catalog) Vendor(id string) (Vendor, bool) {
	i, ok := c.vendorIdx[strings.TrimSpace(id)]
	if !ok {
		return Vendor{}, false
	}
	return copyVendor(c.vendors[i]), true
}

// Vendors returns every vendor in catalog order.
func (c *Catalog) Vendors() []Vendor {
	out := make([]Vendor, 0, len(c.vendors))
	for _, v := range c.vendors {
		out = append(out, copyVendor(v))
	}
	return out
}

func (c *Catalog) VendorIDs() []string {
	out := make([]string, 0, len(c.vendors))
	for _, v := range c.vendors {
		out = append(out, v.ID)
	}
	return out
}

func (c *Catalog) Industry(id string) (Industry, bool) {
	i, ok := c.industIdx[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Industry{}, false
	}
	return copyIndustry(c.industries[i]), true
}

func (c *Catalog) Industries() []Industry {
	out := make([]Industry, 0, len(c.industries))
	for _, ind := range c.industries {
		out = append(out, copyIndustry(ind))
	}
	return out
}

// DefaultIndustry is the fallback profile for organizations that do not name
// an industry: the financial profile when present, otherwise the first entry.
func (c *Catalog) DefaultIndustry() Industry {
	if ind, ok := c.Industry(DefaultIndustryID); ok {
		return ind
	}
	return copyIndustry(c.industries[0])
}

// Frameworks lists every compliance framework id known to the catalog.
func (c *Catalog) Frameworks() []string {
	seen := map[string]struct{}{}
	for _, v := range c.vendors {
		for fw := range v.Compliance {
			seen[fw] = struct{}{}
		}
	}
	for _, ind := range c.industries {
		for _, fw := range ind.ComplianceFrameworks {
			seen[fw] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for fw := range seen {
		out = append(out, fw)
	}
	sort.Strings(out)
	return out
}

func validCategory(c ThreatCategory) bool {
	for _, known := range ThreatCategories {
		if known == c {
			return true
		}
	}
	return false
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func copyVendor(v Vendor) Vendor {
	v.Pricing = copyTierMap(v.Pricing)
	v.Hardware = copyTierMap(v.Hardware)
	if v.Mitigation != nil {
		m := make(map[ThreatCategory]float64, len(v.Mitigation))
		for k, val := range v.Mitigation {
			m[k] = val
		}
		v.Mitigation = m
	}
	if v.Compliance != nil {
		m := make(map[string]Coverage, len(v.Compliance))
		for k, val := range v.Compliance {
			m[k] = val
		}
		v.Compliance = m
	}
	if v.Features != nil {
		m := make(map[string]bool, len(v.Features))
		for k, val := range v.Features {
			m[k] = val
		}
		v.Features = m
	}
	return v
}

func copyTierMap(in map[SizeTier]float64) map[SizeTier]float64 {
	if in == nil {
		return nil
	}
	out := make(map[SizeTier]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyIndustry(ind Industry) Industry {
	ind.ThreatVectors = append([]ThreatVector(nil), ind.ThreatVectors...)
	ind.ComplianceFrameworks = append([]string(nil), ind.ComplianceFrameworks...)
	return ind
}
