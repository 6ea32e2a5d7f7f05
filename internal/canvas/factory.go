package canvas

// AllowedValue is one permitted value of an enumerated attribute, in display
// order. Key is what gets submitted back; Label is what the operator sees.
type AllowedValue struct {
	Key   string
	Label string
}

// NewDivider returns a divider component.
func NewDivider() Divider {
	return Divider{Type: "divider", MarginBottom: "none"}
}

// NewSpacer returns a spacer of the given size (xs, s, m, l, xl).
func NewSpacer(size string) Spacer {
	return Spacer{Type: "spacer", Size: size}
}

// SubmitButton returns a primary button that round-trips through the canvas
// endpoint with id as its component id.
func SubmitButton(id, label string, disabled bool) Button {
	return Button{
		Type:     "button",
		ID:       id,
		Label:    label,
		Style:    "primary",
		Disabled: disabled,
		Action:   Action{Type: "submit"},
	}
}

// BackButton returns a link-style button whose component id is the screen to
// go back to. The id is the only cross-screen state channel; see Token.
func BackButton(targetID, label string) Button {
	return Button{
		Type:   "button",
		ID:     targetID,
		Label:  label,
		Style:  "link",
		Action: Action{Type: "submit"},
	}
}

// URLButton returns a secondary button opening url in a new tab.
func URLButton(id, label, url string) Button {
	return Button{
		Type:   "button",
		ID:     id,
		Label:  label,
		Style:  "secondary",
		Action: Action{Type: "url", URL: url},
	}
}

// StringField returns a one-line input field.
func StringField(id, label, value, placeholder string) Input {
	return Input{
		Type:        "input",
		ID:          id,
		Label:       label,
		Value:       value,
		Placeholder: placeholder,
		SaveState:   SaveStateUnsaved,
	}
}

// TextareaField returns a multi-line input field.
func TextareaField(id, label, value, placeholder string) Textarea {
	return Textarea{
		Type:        "textarea",
		ID:          id,
		Label:       label,
		Value:       value,
		Placeholder: placeholder,
	}
}

// EnumDropdown returns a dropdown over the allowed values. The dropdown
// schema requires at least one option, so an empty set degrades to a disabled
// input instead. The preselected value is dropped when it is not among the
// allowed keys: the renderer rejects a dropdown whose value is not an option.
func EnumDropdown(id, label, value string, allowed []AllowedValue, submitAction bool) Component {
	if len(allowed) == 0 {
		return Input{
			Type:     "input",
			ID:       id,
			Label:    label,
			Disabled: true,
		}
	}

	dd := Dropdown{
		Type:      "dropdown",
		ID:        id,
		Label:     label,
		SaveState: SaveStateUnsaved,
		Options:   make([]Option, 0, len(allowed)),
	}
	for _, av := range allowed {
		dd.Options = append(dd.Options, Option{Type: "option", ID: av.Key, Text: av.Label})
		if av.Key == value {
			dd.Value = value
		}
	}
	if submitAction {
		dd.Action = &Action{Type: "submit"}
	}

	return dd
}

// HeaderText returns a header-style text component.
func HeaderText(text string) Text {
	return Text{Type: "text", Style: "header", Text: text}
}

// ParagraphText returns a paragraph-style text component.
func ParagraphText(text string) Text {
	return Text{Type: "text", Style: "paragraph", Text: text}
}

// MutedText returns a muted-style text component.
func MutedText(text string) Text {
	return Text{Type: "text", Style: "muted", Text: text}
}

// SingleCanvas wraps components into a complete endpoint response.
func SingleCanvas(components ...Component) *Response {
	return &Response{Canvas: Canvas{Content: Content{Components: components}}}
}
