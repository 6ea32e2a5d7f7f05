package itsm

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store (would be replaced with a client for the
// host datastore in production). It also backs every test in this module.
// Get and Find hand out the stored objects themselves, not copies; write
// coordination across concurrent requests is the host datastore's concern.
type MemoryStore struct {
	mu      sync.RWMutex
	classes map[string]*ClassMeta
	objects map[string][]*Object // class -> insertion-ordered objects
	nextID  map[string]int
	changes []Change
}

// NewMemoryStore builds a store over the given class metadata.
func NewMemoryStore(classes ...*ClassMeta) *MemoryStore {
	s := &MemoryStore{
		classes: make(map[string]*ClassMeta),
		objects: make(map[string][]*Object),
		nextID:  make(map[string]int),
	}
	for _, c := range classes {
		s.classes[c.Name] = c
		s.nextID[c.Name] = 1
	}
	return s
}

// ClassMeta implements Store.
func (s *MemoryStore) ClassMeta(class string) (*ClassMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.classes[class]
	if !ok {
		return nil, fmt.Errorf("unknown class %q", class)
	}
	return meta, nil
}

// AttributeMeta implements Store.
func (s *MemoryStore) AttributeMeta(class, attCode string) (*AttributeMeta, error) {
	meta, err := s.ClassMeta(class)
	if err != nil {
		return nil, err
	}
	att := meta.Attribute(attCode)
	if att == nil {
		return nil, fmt.Errorf("class %q has no attribute %q", class, attCode)
	}
	return att, nil
}

// Create implements Store. The object is not persisted until Save.
func (s *MemoryStore) Create(ctx context.Context, class string, defaults map[string]any) (*Object, error) {
	meta, err := s.ClassMeta(class)
	if err != nil {
		return nil, err
	}

	obj := NewObject(meta)
	for _, att := range meta.Attributes {
		if att.DefaultValue != "" {
			obj.Set(att.Code, att.DefaultValue)
		}
	}
	for code, value := range defaults {
		obj.Set(code, value)
	}
	return obj, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, class, id string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, obj := range s.objects[class] {
		if obj.id == id {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("no %s object with id %s", class, id)
}

// Find implements Store.
func (s *MemoryStore) Find(ctx context.Context, class string, f Filter) ([]*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.classes[class]; !ok {
		return nil, fmt.Errorf("unknown class %q", class)
	}

	var matched []*Object
	for _, obj := range s.objects[class] {
		if matches(obj, f) {
			matched = append(matched, obj)
		}
	}
	return matched, nil
}

func matches(obj *Object, f Filter) bool {
	for code, want := range f.Equals {
		if fieldValue(obj, code) != want {
			return false
		}
	}
	for code, excluded := range f.NotIn {
		got := fieldValue(obj, code)
		for _, v := range excluded {
			if got == v {
				return false
			}
		}
	}
	return true
}

// fieldValue resolves the pseudo-attributes the host query language exposes
// alongside real ones.
func fieldValue(obj *Object, code string) string {
	switch code {
	case "id":
		return obj.Key()
	case "friendlyname":
		return obj.FriendlyName()
	default:
		return obj.GetString(code)
	}
}

// CheckToWrite implements Store: every mandatory attribute must have a
// non-empty value, and enumerated values must be among the allowed set.
func (s *MemoryStore) CheckToWrite(ctx context.Context, obj *Object) (CheckResult, error) {
	meta, err := s.ClassMeta(obj.Class())
	if err != nil {
		return CheckResult{}, err
	}

	var issues []string
	for _, att := range meta.Attributes {
		if att.Kind == KindCaseLog || att.Kind == KindLinkSet || att.Kind == KindExternalField {
			continue
		}
		value := obj.GetString(att.Code)
		if att.Mandatory() && value == "" {
			issues = append(issues, fmt.Sprintf("attribute %q must not be empty", att.Code))
			continue
		}
		if value != "" && len(att.AllowedValues) > 0 && (att.Kind == KindEnum || att.Kind == KindExternalKey) {
			if !allowed(att.AllowedValues, value) {
				issues = append(issues, fmt.Sprintf("value %q not allowed for attribute %q", value, att.Code))
			}
		}
	}
	return CheckResult{OK: len(issues) == 0, Issues: issues}, nil
}

func allowed(values []AllowedValue, key string) bool {
	for _, av := range values {
		if av.Key == key {
			return true
		}
	}
	return false
}

// Save implements Store. New objects get the next identifier of their class;
// the counter only moves on an actual insert, never on a rejected attempt.
func (s *MemoryStore) Save(ctx context.Context, obj *Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.classes[obj.Class()]; !ok {
		return fmt.Errorf("unknown class %q", obj.Class())
	}

	if obj.IsNew() {
		obj.id = strconv.Itoa(s.nextID[obj.Class()])
		s.nextID[obj.Class()]++
		s.objects[obj.Class()] = append(s.objects[obj.Class()], obj)
	}
	return nil
}

// RecordChange implements Store.
func (s *MemoryStore) RecordChange(ctx context.Context, ch Change) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch.ID = strconv.Itoa(len(s.changes) + 1)
	if ch.Date.IsZero() {
		ch.Date = time.Now()
	}
	s.changes = append(s.changes, ch)
	return ch.ID, nil
}

// Changes returns the recorded audit entries, oldest first.
func (s *MemoryStore) Changes() []Change {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Change, len(s.changes))
	copy(out, s.changes)
	return out
}

// MustSeed inserts an object with the given attribute values, for fixtures
// and tests. It panics on unknown classes.
func (s *MemoryStore) MustSeed(class string, attrs map[string]any) *Object {
	obj, err := s.Create(context.Background(), class, attrs)
	if err != nil {
		panic(err)
	}
	if err := s.Save(context.Background(), obj); err != nil {
		panic(err)
	}
	return obj
}
