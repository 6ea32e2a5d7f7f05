// Package itsm defines the interface to the host ITSM object store and an
// in-memory implementation of it.
//
// The bridge only ever talks to the store through the Store interface; the
// real host datastore lives in another process and is out of scope here.
package itsm

import (
	"context"
	"time"
)

// EditKind is the closed set of attribute edit kinds the host datamodel
// exposes. Rendering dispatches on this tag; anything unmapped falls through
// to KindUnsupported rather than runtime type inspection.
type EditKind int

const (
	KindString EditKind = iota
	KindInteger
	KindText
	KindHTML
	KindExternalKey
	KindEnum
	KindDate
	KindDateTime
	KindDuration
	KindDocument
	KindImage
	KindCaseLog
	KindLinkSet
	KindExternalField
	KindComputed
	KindUnsupported
)

var kindNames = map[EditKind]string{
	KindString:        "string",
	KindInteger:       "integer",
	KindText:          "text",
	KindHTML:          "html",
	KindExternalKey:   "external_key",
	KindEnum:          "enum",
	KindDate:          "date",
	KindDateTime:      "datetime",
	KindDuration:      "duration",
	KindDocument:      "document",
	KindImage:         "image",
	KindCaseLog:       "case_log",
	KindLinkSet:       "link_set",
	KindExternalField: "external_field",
	KindComputed:      "computed",
	KindUnsupported:   "unsupported",
}

func (k EditKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unsupported"
}

// ParseEditKind maps a datamodel kind name to its EditKind, defaulting to
// KindUnsupported for anything unknown.
func ParseEditKind(name string) EditKind {
	for k, s := range kindNames {
		if s == name {
			return k
		}
	}
	return KindUnsupported
}

// AllowedValue is one permitted value of an enumerated or external-key
// attribute, in display order.
type AllowedValue struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

// AttributeMeta describes one attribute of a class.
type AttributeMeta struct {
	Code          string
	Label         string
	Kind          EditKind
	Format        string // "html" or "text", for KindText/KindHTML
	Nullable      bool
	Writable      bool
	Magic         bool // computed by the host, never user-supplied
	DefaultValue  string
	AllowedValues []AllowedValue
}

// Mandatory reports whether a value must be supplied on creation.
func (m *AttributeMeta) Mandatory() bool {
	return !m.Nullable
}

// ClassMeta describes one class of the host datamodel. Attributes keeps the
// host's display order.
type ClassMeta struct {
	Name          string
	NameAttribute string // attribute used as the object's friendly name
	StateAttr     string // attribute carrying the lifecycle state, may be empty
	Attributes    []AttributeMeta
}

// Attribute returns the metadata of code, or nil.
func (c *ClassMeta) Attribute(code string) *AttributeMeta {
	for i := range c.Attributes {
		if c.Attributes[i].Code == code {
			return &c.Attributes[i]
		}
	}
	return nil
}

// LogEntry is one dated entry of a case-log attribute.
type LogEntry struct {
	UserID    string
	UserLogin string
	Date      time.Time
	Message   string
}

// CaseLog is the value of a case-log attribute, oldest entry first.
type CaseLog []LogEntry

// Filter restricts a Find call. Zero value matches everything.
type Filter struct {
	Equals map[string]string
	NotIn  map[string][]string
}

// Change is an audit record wrapping one persisted mutation.
type Change struct {
	ID       string
	Date     time.Time
	Origin   string
	UserInfo string
}

// CheckResult is the outcome of the host's pre-write consistency check.
type CheckResult struct {
	OK     bool
	Issues []string
}

// Store is the host object store surface the bridge depends on.
//
// Save on a new object assigns its identifier; CheckToWrite must be consulted
// first for creations so a rejected object never consumes an identifier from
// the class sequence. Concurrent requests touching the same object are not
// coordinated here; serialization is the host store's responsibility.
type Store interface {
	// Find returns the objects of class matching f, in insertion order.
	Find(ctx context.Context, class string, f Filter) ([]*Object, error)
	// Get returns the object of class with the given id.
	Get(ctx context.Context, class, id string) (*Object, error)
	// Create builds a new, unsaved object with the given defaults applied.
	Create(ctx context.Context, class string, defaults map[string]any) (*Object, error)
	// CheckToWrite runs the host's pre-write consistency check on obj.
	CheckToWrite(ctx context.Context, obj *Object) (CheckResult, error)
	// Save persists obj, inserting it (and assigning its id) when new.
	Save(ctx context.Context, obj *Object) error
	// RecordChange appends an audit record and returns its id.
	RecordChange(ctx context.Context, ch Change) (string, error)
	// ClassMeta returns the metadata of class.
	ClassMeta(class string) (*ClassMeta, error)
	// AttributeMeta returns the metadata of one attribute of class.
	AttributeMeta(class, attCode string) (*AttributeMeta, error)
}
