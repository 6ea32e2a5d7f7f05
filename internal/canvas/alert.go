package canvas

// Alert kinds. Each maps to a header icon shipped with the module's static
// assets.
const (
	alertKindError   = "error"
	alertKindSuccess = "success"
	alertKindLink    = "link"
)

// Header icon dimensions in pixels.
const (
	headerIconWidth  = 32
	headerIconHeight = 32
)

// List item icon dimensions in pixels.
const (
	// ListItemIconWidth is the width of a decorative list item icon.
	ListItemIconWidth = 18
	// ListItemIconHeight is the height of a decorative list item icon.
	ListItemIconHeight = 18
)

// Icons resolves icon names against the base URL the module's static assets
// are served from.
type Icons struct {
	BaseURL string
}

// Material returns the absolute URL of a Material icon.
func (i Icons) Material(name string) string {
	if i.BaseURL == "" {
		return ""
	}
	return i.BaseURL + "/material/" + name
}

// Alert returns the absolute URL of an alert header icon.
func (i Icons) Alert(name string) string {
	if i.BaseURL == "" {
		return ""
	}
	return i.BaseURL + "/alerts/" + name
}

// Alerts builds alert component groups (icon, centered title, description)
// used as feedback headers on result screens.
type Alerts struct {
	Icons Icons
}

// Error returns the components of an error alert.
func (a Alerts) Error(title, description string) []Component {
	return a.build(alertKindError, title, description)
}

// Success returns the components of a success alert.
func (a Alerts) Success(title, description string) []Component {
	return a.build(alertKindSuccess, title, description)
}

// Link returns the components of a "something was linked" alert.
func (a Alerts) Link(title, description string) []Component {
	return a.build(alertKindLink, title, description)
}

func (a Alerts) build(kind, title, description string) []Component {
	var components []Component

	var iconName string
	switch kind {
	case alertKindError:
		iconName = "error-cloud.svg"
	case alertKindSuccess:
		iconName = "check-mark.svg"
	case alertKindLink:
		iconName = "link.svg"
	}

	if url := a.Icons.Alert(iconName); url != "" {
		components = append(components, Image{
			Type:   "image",
			URL:    url,
			Align:  "center",
			Width:  headerIconWidth,
			Height: headerIconHeight,
		})
	}
	if title != "" {
		components = append(components, Text{
			Type:  "text",
			Style: "header",
			Align: "center",
			Text:  title,
		})
	}
	if description != "" {
		components = append(components, ParagraphText(description))
	}

	return components
}
