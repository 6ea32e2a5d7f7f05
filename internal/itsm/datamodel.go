package itsm

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Datamodel is the YAML description of the host classes the bridge works
// with: the ticket class, the contact/user classes used for lookups, and
// optional seed objects for local setups.
type Datamodel struct {
	Classes []classSpec  `yaml:"classes"`
	Objects []objectSpec `yaml:"objects"`
}

type classSpec struct {
	Name          string          `yaml:"name"`
	NameAttribute string          `yaml:"name_attribute"`
	StateAttr     string          `yaml:"state_attribute"`
	Attributes    []attributeSpec `yaml:"attributes"`
}

type attributeSpec struct {
	Code          string         `yaml:"code"`
	Label         string         `yaml:"label"`
	Kind          string         `yaml:"kind"`
	Format        string         `yaml:"format"`
	Nullable      *bool          `yaml:"nullable"`
	Writable      *bool          `yaml:"writable"`
	Magic         bool           `yaml:"magic"`
	Default       string         `yaml:"default"`
	AllowedValues []AllowedValue `yaml:"allowed_values"`
}

type objectSpec struct {
	Class  string            `yaml:"class"`
	Values map[string]string `yaml:"values"`
}

// LoadDatamodel reads a datamodel file and builds a memory store from it.
func LoadDatamodel(path string) (*MemoryStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read datamodel file: %w", err)
	}

	var dm Datamodel
	if err := yaml.Unmarshal(raw, &dm); err != nil {
		return nil, fmt.Errorf("parse datamodel file: %w", err)
	}
	if len(dm.Classes) == 0 {
		return nil, fmt.Errorf("datamodel file %s declares no classes", path)
	}

	metas := make([]*ClassMeta, 0, len(dm.Classes))
	for _, c := range dm.Classes {
		if c.Name == "" {
			return nil, fmt.Errorf("datamodel class with empty name")
		}
		meta := &ClassMeta{
			Name:          c.Name,
			NameAttribute: c.NameAttribute,
			StateAttr:     c.StateAttr,
		}
		for _, a := range c.Attributes {
			if a.Code == "" {
				return nil, fmt.Errorf("class %q has an attribute with empty code", c.Name)
			}
			meta.Attributes = append(meta.Attributes, AttributeMeta{
				Code:          a.Code,
				Label:         orDefault(a.Label, a.Code),
				Kind:          ParseEditKind(a.Kind),
				Format:        a.Format,
				Nullable:      boolOr(a.Nullable, true),
				Writable:      boolOr(a.Writable, true),
				Magic:         a.Magic,
				DefaultValue:  a.Default,
				AllowedValues: a.AllowedValues,
			})
		}
		metas = append(metas, meta)
	}

	store := NewMemoryStore(metas...)
	for _, o := range dm.Objects {
		attrs := make(map[string]any, len(o.Values))
		for k, v := range o.Values {
			attrs[k] = v
		}
		obj, err := store.Create(context.Background(), o.Class, attrs)
		if err != nil {
			return nil, fmt.Errorf("seed object: %w", err)
		}
		if err := store.Save(context.Background(), obj); err != nil {
			return nil, fmt.Errorf("seed object: %w", err)
		}
	}
	return store, nil
}

// DefaultDatamodel returns the class metadata matching the default bridge
// settings, used when no datamodel file is configured and by tests.
func DefaultDatamodel() []*ClassMeta {
	statusValues := []AllowedValue{
		{Key: "new", Label: "New"},
		{Key: "assigned", Label: "Assigned"},
		{Key: "resolved", Label: "Resolved"},
		{Key: "closed", Label: "Closed"},
	}
	syncValues := []AllowedValue{
		{Key: "yes", Label: "Yes"},
		{Key: "no", Label: "No"},
	}

	return []*ClassMeta{
		{
			Name:          "UserRequest",
			NameAttribute: "title",
			StateAttr:     "status",
			Attributes: []AttributeMeta{
				{Code: "title", Label: "Title", Kind: KindString, Nullable: false, Writable: true},
				{Code: "description", Label: "Description", Kind: KindHTML, Format: "html", Nullable: false, Writable: true},
				{Code: "status", Label: "Status", Kind: KindEnum, Nullable: true, Writable: true, DefaultValue: "new", AllowedValues: statusValues},
				{Code: "caller_id", Label: "Caller", Kind: KindExternalKey, Nullable: true, Writable: true},
				{Code: "org_id", Label: "Organization", Kind: KindExternalKey, Nullable: true, Writable: true},
				{Code: "intercom_ref", Label: "Intercom conversation", Kind: KindString, Nullable: true, Writable: true},
				{Code: "intercom_sync_activated", Label: "Intercom synchronization", Kind: KindEnum, Nullable: true, Writable: true, DefaultValue: "no", AllowedValues: syncValues},
				{Code: "public_log", Label: "Public log", Kind: KindCaseLog, Nullable: true, Writable: true},
				{Code: "private_log", Label: "Private log", Kind: KindCaseLog, Nullable: true, Writable: true},
				{Code: "ref", Label: "Ref", Kind: KindString, Nullable: true, Writable: false, Magic: true},
			},
		},
		{
			Name:          "Person",
			NameAttribute: "name",
			Attributes: []AttributeMeta{
				{Code: "name", Label: "Name", Kind: KindString, Nullable: false, Writable: true},
				{Code: "email", Label: "Email", Kind: KindString, Nullable: true, Writable: true},
				{Code: "org_id", Label: "Organization", Kind: KindExternalKey, Nullable: true, Writable: true},
			},
		},
		{
			Name:          "User",
			NameAttribute: "friendlyname",
			Attributes: []AttributeMeta{
				{Code: "login", Label: "Login", Kind: KindString, Nullable: false, Writable: true},
				{Code: "friendlyname", Label: "Full name", Kind: KindString, Nullable: true, Writable: true},
				{Code: "contactid", Label: "Contact", Kind: KindExternalKey, Nullable: true, Writable: true},
			},
		},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
