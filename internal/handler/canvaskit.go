package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/k3a/html2text"
	"go.uber.org/zap"

	"github.com/itsm-tools/intercom-bridge/internal/apperr"
	"github.com/itsm-tools/intercom-bridge/internal/canvas"
	"github.com/itsm-tools/intercom-bridge/internal/config"
	"github.com/itsm-tools/intercom-bridge/internal/i18n"
	"github.com/itsm-tools/intercom-bridge/internal/itsm"
	"github.com/itsm-tools/intercom-bridge/internal/model"
	"github.com/itsm-tools/intercom-bridge/internal/service"
	"github.com/itsm-tools/intercom-bridge/pkg/logger"
	"github.com/itsm-tools/intercom-bridge/pkg/metrics"
)

// Referrer list kinds, used to build the "back" component id of the ticket
// view screen.
const (
	listKindLinked  = "linked"
	listKindOngoing = "ongoing"
)

// screenFunc renders one canvas screen.
type screenFunc func(ctx context.Context, req *model.CanvasRequest) (*canvas.Response, error)

// CanvasKitHandler serves the interactive canvas endpoint. The platform
// carries no server-side session between screens, so every transition is
// driven entirely by the component id echoed back in the request.
type CanvasKitHandler struct {
	guard   *Guard
	tickets *service.TicketService
	cfg     *config.Config
	alerts  canvas.Alerts
	logger  *logger.Logger

	// routes maps a normalized component id prefix to its screen. Composite
	// component ids ("prefix::class::id") are normalized to their prefix
	// before lookup; the full token travels with the request for the screen
	// to re-parse.
	routes map[string]screenFunc
}

// NewCanvasKitHandler creates the canvas endpoint handler.
func NewCanvasKitHandler(guard *Guard, tickets *service.TicketService, cfg *config.Config, log *logger.Logger) *CanvasKitHandler {
	h := &CanvasKitHandler{
		guard:   guard,
		tickets: tickets,
		cfg:     cfg,
		alerts:  canvas.Alerts{Icons: canvas.Icons{BaseURL: cfg.IconsBaseURL}},
		logger:  log,
	}
	h.routes = map[string]screenFunc{
		"home":                         h.homeScreen,
		"list-linked-tickets":          h.listLinkedScreen,
		"list-ongoing-tickets":         h.listOngoingScreen,
		canvas.PrefixViewLinkedTicket:  h.viewLinkedScreen,
		canvas.PrefixViewOngoingTicket: h.viewOngoingScreen,
		canvas.PrefixLinkTicket:        h.linkTicketScreen,
		"create-ticket":                h.createTicketScreen,
	}
	return h
}

// Handle handles POST /hooks/canvas.
func (h *CanvasKitHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := h.guard.Admit(r, CanvasScheme)
	if err != nil {
		failRequest(w, err)
		return
	}

	var req model.CanvasRequest
	if err := json.Unmarshal(body, &req); err != nil {
		failRequest(w, apperr.MalformedPayload("canvas request could not be decoded: %v", err))
		return
	}

	screen, normalized, err := h.route(&req)
	if err != nil {
		metrics.RecordCanvasOperation(req.Operation, normalized, "unknown")
		failRequest(w, err)
		return
	}

	resp, err := screen(r.Context(), &req)
	if err != nil {
		metrics.RecordCanvasOperation(req.Operation, normalized, "error")
		failRequest(w, err)
		return
	}

	metrics.RecordCanvasOperation(req.Operation, normalized, "ok")
	writeJSON(w, http.StatusOK, resp)
}

// route resolves the screen for a request. Unknown operations and unbound
// component ids fail loudly; routing never silently no-ops.
func (h *CanvasKitHandler) route(req *model.CanvasRequest) (screenFunc, string, error) {
	switch req.Operation {
	case model.OperationInitialize:
		return h.homeScreen, "home", nil

	case model.OperationSubmit:
		normalized := canvas.TokenPrefix(req.ComponentID)
		screen, ok := h.routes[normalized]
		if !ok {
			err := &apperr.UnknownOperationError{
				Operation:   req.Operation,
				ComponentID: req.ComponentID,
				Normalized:  normalized,
			}
			h.logger.Error("no screen bound for component",
				zap.String("operation", req.Operation),
				zap.String("component_id", req.ComponentID),
				zap.String("normalized", normalized),
			)
			return nil, normalized, err
		}
		return screen, normalized, nil

	default:
		err := &apperr.UnknownOperationError{Operation: req.Operation}
		h.logger.Error("operation not supported", zap.String("operation", req.Operation))
		return nil, "", err
	}
}

//-------------------------------
// Screens
//-------------------------------

// homeScreen shows counts of linked and ongoing tickets plus the entry
// points of the other flows.
func (h *CanvasKitHandler) homeScreen(ctx context.Context, req *model.CanvasRequest) (*canvas.Response, error) {
	conv, err := req.ConversationDetails()
	if err != nil {
		return nil, err
	}
	contact, err := req.Contact()
	if err != nil {
		return nil, err
	}

	icons := canvas.Icons{BaseURL: h.cfg.IconsBaseURL}

	linkedTitle := i18n.S("SyncApp:HomeCanvas:LinkedTickets:NoTicket")
	linkedDisabled := true
	if linked, err := h.tickets.LinkedTickets(ctx, conv.RemoteID); err == nil && len(linked) > 0 {
		linkedTitle = i18n.F("SyncApp:HomeCanvas:LinkedTickets:SomeTickets", len(linked))
		linkedDisabled = false
	}

	ongoingTitle := i18n.S("SyncApp:HomeCanvas:OngoingTickets:NoTicket")
	ongoingDisabled := true
	if ongoing, err := h.tickets.OngoingTickets(ctx, contact); err == nil && len(ongoing) > 0 {
		ongoingTitle = i18n.F("SyncApp:HomeCanvas:OngoingTickets:SomeTickets", len(ongoing))
		ongoingDisabled = false
	}

	submit := &canvas.Action{Type: "submit"}
	list := canvas.List{
		Type: "list",
		Items: []canvas.ListItem{
			{
				Type:        "item",
				ID:          "create-ticket",
				Title:       i18n.S("SyncApp:HomeCanvas:CreateTicket"),
				Image:       icons.Material("add_black_18dp.svg"),
				ImageWidth:  canvas.ListItemIconWidth,
				ImageHeight: canvas.ListItemIconHeight,
				Action:      submit,
			},
			{
				Type:        "item",
				ID:          "list-linked-tickets",
				Title:       linkedTitle,
				Image:       icons.Material("link_black_18dp.svg"),
				ImageWidth:  canvas.ListItemIconWidth,
				ImageHeight: canvas.ListItemIconHeight,
				Action:      submit,
				Disabled:    linkedDisabled,
			},
			{
				Type:        "item",
				ID:          "list-ongoing-tickets",
				Title:       ongoingTitle,
				Image:       icons.Material("format_list_bulleted_black_18dp.svg"),
				ImageWidth:  canvas.ListItemIconWidth,
				ImageHeight: canvas.ListItemIconHeight,
				Action:      submit,
				Disabled:    ongoingDisabled,
			},
		},
	}

	return canvas.SingleCanvas(
		list,
		canvas.NewSpacer("m"),
		canvas.HeaderText("*"+i18n.S("SyncApp:HomeCanvas:Hint:Title")+"*"),
		canvas.ParagraphText(i18n.S("SyncApp:HomeCanvas:Hint:Text")),
	), nil
}

func (h *CanvasKitHandler) listLinkedScreen(ctx context.Context, req *model.CanvasRequest) (*canvas.Response, error) {
	conv, err := req.ConversationDetails()
	if err != nil {
		return nil, err
	}
	tickets, err := h.tickets.LinkedTickets(ctx, conv.RemoteID)
	if err != nil {
		return h.domainFailure("SyncApp:ListLinkedTicketsCanvas:Title", err), nil
	}
	return h.ticketsListCanvas(tickets, listKindLinked), nil
}

func (h *CanvasKitHandler) listOngoingScreen(ctx context.Context, req *model.CanvasRequest) (*canvas.Response, error) {
	contact, err := req.Contact()
	if err != nil {
		return nil, err
	}
	tickets, err := h.tickets.OngoingTickets(ctx, contact)
	if err != nil {
		return h.domainFailure("SyncApp:ListOngoingTicketsCanvas:Title", err), nil
	}
	return h.ticketsListCanvas(tickets, listKindOngoing), nil
}

// ticketsListCanvas renders a selectable ticket list. Selecting an item
// routes to the view screen with the ticket reference embedded in the id.
func (h *CanvasKitHandler) ticketsListCanvas(tickets []*itsm.Object, kind string) *canvas.Response {
	prefix := canvas.PrefixViewLinkedTicket
	titleKey := "SyncApp:ListLinkedTicketsCanvas:Title"
	if kind == listKindOngoing {
		prefix = canvas.PrefixViewOngoingTicket
		titleKey = "SyncApp:ListOngoingTicketsCanvas:Title"
	}

	icons := canvas.Icons{BaseURL: h.cfg.IconsBaseURL}
	items := make([]canvas.ListItem, 0, len(tickets))
	for _, ticket := range tickets {
		ref := canvas.TicketRef{Class: ticket.Class(), ID: ticket.Key()}
		id, err := canvas.EncodeTicketToken(prefix, ref)
		if err != nil {
			h.logger.Warn("ticket skipped from list, reference not encodable",
				zap.String("ticket", ref.String()),
				zap.Error(err),
			)
			continue
		}
		items = append(items, canvas.ListItem{
			Type:        "item",
			ID:          id,
			Title:       ticket.FriendlyName(),
			Subtitle:    ticket.GetString(h.cfg.Bridge.SubtitleAttribute),
			Image:       icons.Material("confirmation_number_black_18dp.svg"),
			ImageWidth:  canvas.ListItemIconWidth,
			ImageHeight: canvas.ListItemIconHeight,
			Action:      &canvas.Action{Type: "submit"},
		})
	}

	return canvas.SingleCanvas(
		canvas.HeaderText(i18n.S(titleKey)),
		canvas.NewSpacer("xs"),
		canvas.List{Type: "list", Items: items},
		canvas.NewSpacer("m"),
		canvas.BackButton("home", i18n.S("SyncApp:BackButton:Title")),
	)
}

func (h *CanvasKitHandler) viewLinkedScreen(ctx context.Context, req *model.CanvasRequest) (*canvas.Response, error) {
	return h.viewTicketScreen(ctx, req, listKindLinked)
}

func (h *CanvasKitHandler) viewOngoingScreen(ctx context.Context, req *model.CanvasRequest) (*canvas.Response, error) {
	return h.viewTicketScreen(ctx, req, listKindOngoing)
}

// viewTicketScreen renders a read-only ticket view: configured detail
// attributes, a linkage subtitle and the link / backoffice / back actions.
func (h *CanvasKitHandler) viewTicketScreen(ctx context.Context, req *model.CanvasRequest, referrer string) (*canvas.Response, error) {
	conv, err := req.ConversationDetails()
	if err != nil {
		return nil, err
	}
	ref, err := canvas.DecodeTicketToken(req.ComponentID)
	if err != nil {
		return nil, apperr.MalformedPayload("%v", err)
	}

	ticket, err := h.tickets.GetTicket(ctx, ref)
	if err != nil {
		return h.domainFailure("SyncApp:LinkTicketCanvas:Failure:Title", err), nil
	}

	remoteRef := h.tickets.RemoteRef(ticket)
	linkedHere := remoteRef != "" && remoteRef == conv.RemoteID
	linkedElsewhere := remoteRef != "" && remoteRef != conv.RemoteID

	var subtitle string
	switch {
	case linkedHere:
		subtitle = i18n.S("SyncApp:ViewTicketCanvas:Subtitle:LinkedToThisConversation")
	case linkedElsewhere:
		subtitle = i18n.F("SyncApp:ViewTicketCanvas:Subtitle:LinkedToAnotherConversation", remoteRef, req.WorkspaceID)
	default:
		subtitle = i18n.S("SyncApp:ViewTicketCanvas:Subtitle:LinkedToNoConversation")
	}

	components := []canvas.Component{
		canvas.HeaderText(ticket.FriendlyName()),
		canvas.MutedText(subtitle),
		canvas.NewDivider(),
	}
	components = append(components, h.detailComponents(ticket)...)

	components = append(components, canvas.NewSpacer("m"))
	linkID, err := canvas.EncodeTicketToken(canvas.PrefixLinkTicket, ref)
	if err != nil {
		return nil, apperr.MalformedPayload("%v", err)
	}
	components = append(components, canvas.SubmitButton(
		linkID,
		i18n.S("SyncApp:ViewTicketCanvas:LinkTicket"),
		linkedHere,
	))
	if url := h.tickets.BackofficeURL(ticket); url != "" {
		components = append(components, canvas.URLButton(
			"open-ticket-in-backoffice",
			i18n.S("SyncApp:ViewTicketCanvas:OpenInBackoffice"),
			url,
		))
	}
	components = append(components, canvas.BackButton("list-"+referrer+"-tickets", i18n.S("SyncApp:BackButton:Title")))

	return canvas.SingleCanvas(components...), nil
}

// detailComponents renders the configured detail attributes as label/value
// text pairs, per attribute edit kind. Case logs are skipped as the renderer
// has no component for them.
func (h *CanvasKitHandler) detailComponents(ticket *itsm.Object) []canvas.Component {
	meta := ticket.Meta()
	var components []canvas.Component
	for _, attCode := range h.cfg.Bridge.DetailAttributes {
		att := meta.Attribute(attCode)
		if att == nil {
			continue
		}

		var value string
		switch att.Kind {
		case itsm.KindCaseLog:
			continue
		case itsm.KindText, itsm.KindHTML:
			value = ticket.GetString(attCode)
			if att.Format == "html" {
				value = html2text.HTML2Text(value)
			}
		case itsm.KindExternalKey, itsm.KindEnum:
			value = valueLabel(att, ticket.GetString(attCode))
		default:
			value = ticket.GetString(attCode)
		}

		components = append(components,
			canvas.HeaderText(att.Label),
			canvas.ParagraphText(value),
		)
	}
	return components
}

// valueLabel resolves a stored key to its display label.
func valueLabel(att *itsm.AttributeMeta, key string) string {
	for _, av := range att.AllowedValues {
		if av.Key == key {
			return av.Label
		}
	}
	return key
}

// linkTicketScreen links the ticket carried by the component id to the
// current conversation. Domain failures render an error alert; the screen
// always ends with a "done" button back to home.
func (h *CanvasKitHandler) linkTicketScreen(ctx context.Context, req *model.CanvasRequest) (*canvas.Response, error) {
	conv, err := req.ConversationDetails()
	if err != nil {
		return nil, err
	}
	admin, err := req.Admin()
	if err != nil {
		return nil, err
	}
	ref, err := canvas.DecodeTicketToken(req.ComponentID)
	if err != nil {
		return nil, apperr.MalformedPayload("%v", err)
	}

	var components []canvas.Component
	ticket, err := h.tickets.LinkTicket(ctx, ref, conv, admin)
	if err != nil {
		h.logger.Error("could not link ticket to conversation",
			zap.String("ticket", ref.String()),
			zap.String("conversation_id", conv.RemoteID),
			zap.Error(err),
		)
		components = h.alerts.Error(
			i18n.S("SyncApp:LinkTicketCanvas:Failure:Title"),
			i18n.F("SyncApp:LinkTicketCanvas:Failure:Description", err.Error()),
		)
	} else {
		components = h.alerts.Link(
			i18n.S("SyncApp:LinkTicketCanvas:Success:Title"),
			i18n.F("SyncApp:LinkTicketCanvas:Success:Description", ticket.FriendlyName()),
		)
	}

	components = append(components,
		canvas.NewDivider(),
		canvas.BackButton("home", i18n.S("SyncApp:DoneButton:Title")),
	)
	return canvas.SingleCanvas(components...), nil
}

// createTicketScreen renders the creation form and, once submitted, either
// the confirmation screen or the form again with an error alert and the
// posted values preserved.
func (h *CanvasKitHandler) createTicketScreen(ctx context.Context, req *model.CanvasRequest) (*canvas.Response, error) {
	contact, err := req.Contact()
	if err != nil {
		return nil, err
	}
	conv, err := req.ConversationDetails()
	if err != nil {
		return nil, err
	}

	submitted := len(req.InputValues) > 0
	values := decodeFormValues(req.InputValues)

	if submitted {
		admin, err := req.Admin()
		if err != nil {
			return nil, err
		}
		ticket, err := h.tickets.CreateTicketFromForm(ctx, contact, conv, admin, values)
		if err == nil {
			return canvas.SingleCanvas(h.alerts.Success(
				i18n.S("SyncApp:CreateTicketCanvas:Success:Title"),
				i18n.F("SyncApp:CreateTicketCanvas:Success:Description", ticket.FriendlyName()),
			)...), nil
		}
		h.logger.Error("ticket could not be created",
			zap.String("conversation_id", conv.RemoteID),
			zap.Error(err),
		)
	}

	formResp, err := h.createFormCanvas(ctx, values)
	if err != nil {
		return h.domainFailure("SyncApp:CreateTicketCanvas:Failure:Title", err), nil
	}
	if submitted {
		feedback := h.alerts.Error(
			i18n.S("SyncApp:CreateTicketCanvas:Failure:Title"),
			i18n.S("SyncApp:CreateTicketCanvas:Failure:Description"),
		)
		feedback = append(feedback, canvas.NewSpacer("m"))
		formResp.Canvas.Content.Components = append(feedback, formResp.Canvas.Content.Components...)
	}
	return formResp, nil
}

// createFormCanvas builds the creation form from the field plan, one
// component per renderable edit kind.
func (h *CanvasKitHandler) createFormCanvas(ctx context.Context, values map[string]string) (*canvas.Response, error) {
	fields, err := h.tickets.FormFields(ctx, values)
	if err != nil {
		return nil, err
	}

	components := []canvas.Component{
		canvas.HeaderText(i18n.S("SyncApp:CreateTicketCanvas:Title")),
		canvas.MutedText(i18n.S("SyncApp:CreateTicketCanvas:Subtitle")),
		canvas.NewDivider(),
	}

	for _, field := range fields {
		id := canvas.EncodeFieldToken(field.AttCode)
		switch field.Kind {
		case itsm.KindString, itsm.KindInteger:
			if len(field.Allowed) > 0 {
				components = append(components, canvas.EnumDropdown(id, field.Label, field.Value, allowedValues(field.Allowed), true))
			} else {
				components = append(components, canvas.StringField(id, field.Label, field.Value, ""))
			}
		case itsm.KindEnum, itsm.KindExternalKey:
			components = append(components, canvas.EnumDropdown(id, field.Label, field.Value, allowedValues(field.Allowed), true))
		case itsm.KindText, itsm.KindHTML:
			components = append(components, canvas.TextareaField(id, field.Label, field.Value, ""))
		}
	}

	components = append(components,
		canvas.NewSpacer("m"),
		canvas.SubmitButton("create-ticket", i18n.S("SyncApp:CreateButton:Title"), false),
		canvas.BackButton("home", i18n.S("SyncApp:BackButton:Title")),
	)

	return canvas.SingleCanvas(components...), nil
}

func allowedValues(in []itsm.AllowedValue) []canvas.AllowedValue {
	out := make([]canvas.AllowedValue, 0, len(in))
	for _, av := range in {
		out = append(out, canvas.AllowedValue{Key: av.Key, Label: av.Label})
	}
	return out
}

// decodeFormValues maps posted input component ids back to attribute codes.
// Inputs that are not form fields (navigation buttons echo through
// input_values too) are dropped.
func decodeFormValues(inputValues map[string]string) map[string]string {
	values := make(map[string]string, len(inputValues))
	for componentID, value := range inputValues {
		if attCode, ok := canvas.DecodeFieldToken(componentID); ok {
			values[attCode] = value
		}
	}
	return values
}

// domainFailure renders a soft failure as an error alert canvas with a way
// back home.
func (h *CanvasKitHandler) domainFailure(titleKey string, err error) *canvas.Response {
	components := h.alerts.Error(i18n.S(titleKey), err.Error())
	components = append(components,
		canvas.NewDivider(),
		canvas.BackButton("home", i18n.S("SyncApp:DoneButton:Title")),
	)
	return canvas.SingleCanvas(components...)
}
