package itsm

import "fmt"

// Object is a single record of the host store. Instances are owned by the
// request that fetched or created them; they are never shared across
// requests.
type Object struct {
	class string
	id    string // empty until first saved
	meta  *ClassMeta
	attrs map[string]any
}

// NewObject builds an unsaved object. Callers normally go through
// Store.Create, which applies defaults from the class metadata.
func NewObject(meta *ClassMeta) *Object {
	return &Object{
		class: meta.Name,
		meta:  meta,
		attrs: make(map[string]any),
	}
}

// Class returns the object's class name.
func (o *Object) Class() string {
	return o.class
}

// Key returns the object's identifier, empty for unsaved objects.
func (o *Object) Key() string {
	return o.id
}

// IsNew reports whether the object has not been inserted yet.
func (o *Object) IsNew() bool {
	return o.id == ""
}

// Get returns the raw value of attCode, nil when unset.
func (o *Object) Get(attCode string) any {
	return o.attrs[attCode]
}

// GetString returns the value of attCode rendered as a string. Case logs and
// other structured values are not meant to go through here.
func (o *Object) GetString(attCode string) string {
	v, ok := o.attrs[attCode]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// CaseLog returns the case-log value of attCode, empty when unset.
func (o *Object) CaseLog(attCode string) CaseLog {
	if log, ok := o.attrs[attCode].(CaseLog); ok {
		return log
	}
	return nil
}

// Set assigns value to attCode.
func (o *Object) Set(attCode string, value any) {
	o.attrs[attCode] = value
}

// AppendLogEntry appends entry to the case-log attribute attCode.
func (o *Object) AppendLogEntry(attCode string, entry LogEntry) {
	o.attrs[attCode] = append(o.CaseLog(attCode), entry)
}

// FriendlyName returns the human-readable name of the object, falling back
// to "Class::ID" when the class has no name attribute or it is empty.
func (o *Object) FriendlyName() string {
	if o.meta != nil && o.meta.NameAttribute != "" {
		if name := o.GetString(o.meta.NameAttribute); name != "" {
			return name
		}
	}
	return o.class + "::" + o.id
}

// StateLabel returns the label of the object's current lifecycle state, or
// the raw value when the state is not among the attribute's allowed values.
func (o *Object) StateLabel() string {
	if o.meta == nil || o.meta.StateAttr == "" {
		return ""
	}
	raw := o.GetString(o.meta.StateAttr)
	if meta := o.meta.Attribute(o.meta.StateAttr); meta != nil {
		for _, av := range meta.AllowedValues {
			if av.Key == raw {
				return av.Label
			}
		}
	}
	return raw
}

// Meta returns the class metadata the object was built from.
func (o *Object) Meta() *ClassMeta {
	return o.meta
}
