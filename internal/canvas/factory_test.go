package canvas

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEnumDropdownDegradesWhenEmpty(t *testing.T) {
	t.Parallel()

	component := EnumDropdown("att::status", "Status", "new", nil, true)
	input, ok := component.(Input)
	if !ok {
		t.Fatalf("EnumDropdown with no values = %T, want Input", component)
	}
	if !input.Disabled {
		t.Error("fallback input should be disabled")
	}
	if input.ID != "att::status" {
		t.Errorf("fallback input id = %q, want att::status", input.ID)
	}
}

func TestEnumDropdownDropsUnknownValue(t *testing.T) {
	t.Parallel()

	allowed := []AllowedValue{{Key: "new", Label: "New"}, {Key: "closed", Label: "Closed"}}

	component := EnumDropdown("att::status", "Status", "bogus", allowed, false)
	dd, ok := component.(Dropdown)
	if !ok {
		t.Fatalf("EnumDropdown = %T, want Dropdown", component)
	}
	if dd.Value != "" {
		t.Errorf("unknown preselected value kept: %q", dd.Value)
	}

	component = EnumDropdown("att::status", "Status", "closed", allowed, false)
	dd = component.(Dropdown)
	if dd.Value != "closed" {
		t.Errorf("allowed preselected value dropped, value = %q", dd.Value)
	}
	if len(dd.Options) != 2 {
		t.Fatalf("options = %d, want 2", len(dd.Options))
	}
}

// The component field names are an external contract with the remote
// renderer; this pins the serialized shapes.
func TestComponentSerialization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		component Component
		want      string
	}{
		{
			"submit button keeps disabled key",
			SubmitButton("link-ticket::Ticket::42", "Link", false),
			`{"type":"button","id":"link-ticket::Ticket::42","label":"Link","style":"primary","disabled":false,"action":{"type":"submit"}}`,
		},
		{
			"url button",
			URLButton("open", "Open", "https://example.org/t/42"),
			`{"type":"button","id":"open","label":"Open","style":"secondary","disabled":false,"action":{"type":"url","url":"https://example.org/t/42"}}`,
		},
		{
			"divider",
			NewDivider(),
			`{"type":"divider","margin_bottom":"none"}`,
		},
		{
			"spacer",
			NewSpacer("m"),
			`{"type":"spacer","size":"m"}`,
		},
		{
			"header text",
			HeaderText("Linked ticket(s)"),
			`{"type":"text","text":"Linked ticket(s)","style":"header"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw, err := json.Marshal(tt.component)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(raw) != tt.want {
				t.Errorf("serialized = %s\nwant         %s", raw, tt.want)
			}
		})
	}
}

func TestSingleCanvasShape(t *testing.T) {
	t.Parallel()

	resp := SingleCanvas(HeaderText("hi"), NewDivider())
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.HasPrefix(string(raw), `{"canvas":{"content":{"components":[`) {
		t.Errorf("response shape wrong: %s", raw)
	}
}

func TestAlertsComponents(t *testing.T) {
	t.Parallel()

	alerts := Alerts{Icons: Icons{BaseURL: "https://assets.example.org"}}
	components := alerts.Error("Error", "something broke")
	if len(components) != 3 {
		t.Fatalf("components = %d, want icon + title + description", len(components))
	}

	img, ok := components[0].(Image)
	if !ok {
		t.Fatalf("first component = %T, want Image", components[0])
	}
	if img.Width != 32 || img.Height != 32 {
		t.Errorf("alert icon size = %dx%d, want 32x32", img.Width, img.Height)
	}
	if img.URL != "https://assets.example.org/alerts/error-cloud.svg" {
		t.Errorf("alert icon url = %q", img.URL)
	}

	// Without an icons base URL the icon is omitted, not broken.
	bare := Alerts{}
	components = bare.Success("OK", "done")
	if len(components) != 2 {
		t.Fatalf("components without icons = %d, want 2", len(components))
	}
}
