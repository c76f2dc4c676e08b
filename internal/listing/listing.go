// Package listing holds the listing catalog consulted by the concierge tools.
package listing

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultListingID is the listing used when a request names none.
const DefaultListingID = "DEMO"

//go:embed demo.yaml
var demoCatalog []byte

// Listing couples the public description of a property with the data only
// verified guests may receive.
type Listing struct {
	ID      string          `yaml:"id"`
	Public  map[string]any  `yaml:"public"`
	Private PrivateHostData `yaml:"private"`
}

// PrivateHostData is the sensitive part of a listing.
type PrivateHostData struct {
	Internet          InternetAccess    `yaml:"internet"`
	Stay              StayAccess        `yaml:"stay"`
	HotTub            HotTubInfo        `yaml:"hotTub"`
	EmergencyContacts EmergencyContacts `yaml:"emergencyContacts"`
}

type InternetAccess struct {
	NetworkName              string   `yaml:"networkName"`
	Password                 string   `yaml:"password"`
	TroubleshootingProcedure []string `yaml:"troubleshootingProcedure"`
}

type StayAccess struct {
	LockboxCode      string `yaml:"lockboxCode"`
	ConfirmationCode string `yaml:"confirmationCode"`
}

type HotTubInfo struct {
	WinterNote string `yaml:"winterNote"`
}

type HostContact struct {
	Name             string `yaml:"name" json:"name"`
	PreferredContact string `yaml:"preferredContact" json:"preferredContact"`
}

type EmergencyContacts struct {
	Host      HostContact `yaml:"host" json:"host"`
	Emergency string      `yaml:"emergency" json:"emergency"`
	Police    string      `yaml:"police" json:"police"`
	Medical   string      `yaml:"medical" json:"medical"`
	Fire      string      `yaml:"fire" json:"fire"`
}

// DisclosedHostData is what get_private_host_data hands to the model.
// The Wi-Fi password and the confirmation code are never part of it.
type DisclosedHostData struct {
	Internet struct {
		NetworkName              string   `json:"networkName"`
		TroubleshootingProcedure []string `json:"troubleshootingProcedure"`
	} `json:"internet"`
	Stay struct {
		LockboxCode string `json:"lockboxCode"`
	} `json:"stay"`
	HotTub struct {
		WinterNote string `json:"winterNote,omitempty"`
	} `json:"hotTub"`
	EmergencyContacts EmergencyContacts `json:"emergencyContacts"`
}

// Disclose narrows the private data to the operationally necessary fields.
func (p PrivateHostData) Disclose() DisclosedHostData {
	var d DisclosedHostData
	d.Internet.NetworkName = p.Internet.NetworkName
	d.Internet.TroubleshootingProcedure = append([]string(nil), p.Internet.TroubleshootingProcedure...)
	d.Stay.LockboxCode = p.Stay.LockboxCode
	d.HotTub.WinterNote = p.HotTub.WinterNote
	d.EmergencyContacts = p.EmergencyContacts
	return d
}

// MatchesConfirmationCode compares code with the stay code, ignoring case
// and surrounding whitespace.
func (l *Listing) MatchesConfirmationCode(code string) bool {
	expected := strings.TrimSpace(l.Private.Stay.ConfirmationCode)
	if expected == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(code), expected)
}

// Catalog indexes listings by id.
type Catalog struct {
	listings  map[string]*Listing
	defaultID string
}

type catalogFile struct {
	Listings []*Listing `yaml:"listings"`
}

// Parse builds a catalog from YAML content.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing listing catalog: %w", err)
	}
	if len(f.Listings) == 0 {
		return nil, fmt.Errorf("listing catalog is empty")
	}

	c := &Catalog{listings: make(map[string]*Listing, len(f.Listings))}
	for _, l := range f.Listings {
		if l.ID == "" {
			return nil, fmt.Errorf("listing without id")
		}
		if _, dup := c.listings[l.ID]; dup {
			return nil, fmt.Errorf("duplicate listing id %q", l.ID)
		}
		c.listings[l.ID] = l
	}
	c.defaultID = f.Listings[0].ID
	if _, ok := c.listings[DefaultListingID]; ok {
		c.defaultID = DefaultListingID
	}
	return c, nil
}

// Demo returns the built-in catalog.
func Demo() *Catalog {
	c, err := Parse(demoCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog from path, or returns the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Demo(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading listing catalog: %w", err)
	}
	return Parse(data)
}

// Get returns the listing with the given id.
func (c *Catalog) Get(id string) (*Listing, bool) {
	l, ok := c.listings[id]
	return l, ok
}

// Resolve returns the listing with the given id, falling back to the
// catalog's default listing for empty or unknown ids.
func (c *Catalog) Resolve(id string) *Listing {
	if l, ok := c.listings[id]; ok {
		return l
	}
	return c.listings[c.defaultID]
}

// DefaultID returns the id of the fallback listing.
func (c *Catalog) DefaultID() string {
	return c.defaultID
}
