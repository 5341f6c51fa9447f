package scrape

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Catalog holds the business-name vocabulary the directory source draws
// from. The default is embedded; deployments can point
// scraping.catalog_path at a YAML file to localize the inventory.
type Catalog struct {
	Stems    []string `yaml:"stems"`
	Suffixes []string `yaml:"suffixes"`
}

// DefaultCatalog returns the embedded name vocabulary.
func DefaultCatalog() Catalog {
	return Catalog{
		Stems: []string{
			"BrightStar", "Sunrise", "Evergreen", "Golden Gate", "Blue Lotus",
			"Prime", "Summit", "Harbor", "Cedar", "Silverline",
			"Metro", "Pioneer", "Crescent", "Lakeside", "Royal Orchid",
		},
		Suffixes: []string{
			"Co", "Group", "Services", "Solutions", "Center", "Works", "Partners",
		},
	}
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, eris.Wrapf(err, "scrape: read catalog %s", path)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, eris.Wrap(err, "scrape: parse catalog")
	}
	if len(c.Stems) == 0 {
		return Catalog{}, eris.Errorf("scrape: catalog %s has no stems", path)
	}
	if len(c.Suffixes) == 0 {
		c.Suffixes = DefaultCatalog().Suffixes
	}
	return c, nil
}
