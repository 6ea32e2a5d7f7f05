// Package canvas builds the declarative UI trees consumed by the chat
// platform's Canvas Kit renderer.
//
// The JSON field names on these types are an external contract: the remote
// renderer rejects canvases whose components deviate from the documented
// schema, so they are reproduced verbatim and must not be renamed.
package canvas

// Component is any renderable Canvas Kit component.
type Component interface {
	component()
}

// Response is the top-level body returned to the canvas endpoint.
type Response struct {
	Canvas Canvas `json:"canvas"`
}

// Canvas wraps the component tree of a single screen.
type Canvas struct {
	Content Content `json:"content"`
}

// Content holds the ordered component tree.
type Content struct {
	Components []Component `json:"components"`
}

// Action describes what happens when an interactive component is activated.
// Submit actions round-trip through the canvas endpoint; URL actions open a
// new tab on the operator's side.
type Action struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Text is a static text component.
type Text struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Text  string `json:"text"`
	Style string `json:"style"`
	Align string `json:"align,omitempty"`
}

func (Text) component() {}

// Image is a static image component.
type Image struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Align  string `json:"align,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (Image) component() {}

// Button is an interactive button. Disabled is always serialized; the
// renderer treats a missing key the same as false but the existing
// integration emits it explicitly.
type Button struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Label    string `json:"label"`
	Style    string `json:"style"`
	Disabled bool   `json:"disabled"`
	Action   Action `json:"action"`
}

func (Button) component() {}

// Input is a one-line text field.
type Input struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Label       string `json:"label,omitempty"`
	Value       string `json:"value,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	SaveState   string `json:"save_state,omitempty"`
	Disabled    bool   `json:"disabled"`
}

func (Input) component() {}

// Textarea is a multi-line text field.
type Textarea struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Label       string `json:"label,omitempty"`
	Value       string `json:"value,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Error       bool   `json:"error"`
	Disabled    bool   `json:"disabled"`
}

func (Textarea) component() {}

// Option is a single dropdown choice.
type Option struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Dropdown is a single-choice selector. The schema requires at least one
// option; use EnumDropdown which degrades to a disabled Input when the
// allowed-value set is empty.
type Dropdown struct {
	Type      string   `json:"type"`
	ID        string   `json:"id"`
	Label     string   `json:"label,omitempty"`
	Value     string   `json:"value,omitempty"`
	SaveState string   `json:"save_state,omitempty"`
	Disabled  bool     `json:"disabled"`
	Action    *Action  `json:"action,omitempty"`
	Options   []Option `json:"options"`
}

func (Dropdown) component() {}

// ListItem is a selectable row in a List.
type ListItem struct {
	Type         string  `json:"type"`
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Subtitle     string  `json:"subtitle,omitempty"`
	TertiaryText string  `json:"tertiary_text,omitempty"`
	Image        string  `json:"image,omitempty"`
	ImageWidth   int     `json:"image_width,omitempty"`
	ImageHeight  int     `json:"image_height,omitempty"`
	Action       *Action `json:"action,omitempty"`
	Disabled     bool    `json:"disabled,omitempty"`
}

// List groups selectable items.
type List struct {
	Type  string     `json:"type"`
	Items []ListItem `json:"items"`
}

func (List) component() {}

// Divider is a horizontal rule.
type Divider struct {
	Type         string `json:"type"`
	MarginBottom string `json:"margin_bottom"`
}

func (Divider) component() {}

// Spacer adds vertical whitespace.
type Spacer struct {
	Type string `json:"type"`
	Size string `json:"size"`
}

func (Spacer) component() {}

// Save states used as a visual hint on interactive components.
const (
	SaveStateUnsaved = "unsaved"
	SaveStateSaved   = "saved"
	SaveStateFailed  = "failed"
)
