// Package i18n provides dictionary lookups for user-visible strings.
package i18n

import "fmt"

// en is the default dictionary. Keys mirror the surface they belong to so
// translators can locate them without reading code.
var en = map[string]string{
	"SyncApp:HomeButton:Title": "Home",
	"SyncApp:BackButton:Title": "Back",
	"SyncApp:DoneButton:Title": "Done",

	"SyncApp:HomeCanvas:CreateTicket":               "Create a new ticket",
	"SyncApp:HomeCanvas:LinkedTickets:NoTicket":     "No ticket linked to this conversation yet",
	"SyncApp:HomeCanvas:LinkedTickets:SomeTickets":  "%d ticket(s) linked to this conversation",
	"SyncApp:HomeCanvas:OngoingTickets:NoTicket":    "No ongoing ticket for this person",
	"SyncApp:HomeCanvas:OngoingTickets:SomeTickets": "%d ongoing ticket(s) for this person",
	"SyncApp:HomeCanvas:Hint:Title":                 "Linked tickets",
	"SyncApp:HomeCanvas:Hint:Text":                  "If you need to link a ticket to this conversation, you can either choose one of the ongoing tickets or create a new one.",

	"SyncApp:ListLinkedTicketsCanvas:Title":  "Linked ticket(s)",
	"SyncApp:ListOngoingTicketsCanvas:Title": "Ongoing ticket(s) for this person",

	"SyncApp:ViewTicketCanvas:Subtitle:LinkedToThisConversation":    "Linked to this conversation",
	"SyncApp:ViewTicketCanvas:Subtitle:LinkedToAnotherConversation": "Linked to conversation [#%[1]s](https://app.intercom.com/a/apps/%[2]s/inbox/inbox/all/conversations/%[1]s)",
	"SyncApp:ViewTicketCanvas:Subtitle:LinkedToNoConversation":      "Not linked to any conversation",
	"SyncApp:ViewTicketCanvas:LinkTicket":                           "Link to conversation",
	"SyncApp:ViewTicketCanvas:OpenInBackoffice":                     "Open in backoffice",

	"SyncApp:LinkTicketCanvas:Success:Title":       "Ticket linked",
	"SyncApp:LinkTicketCanvas:Success:Description": "%s has been linked to this conversation",
	"SyncApp:LinkTicketCanvas:Failure:Title":       "Error",
	"SyncApp:LinkTicketCanvas:Failure:Description": "Ticket could not be linked to this conversation due to the following error: %s",

	"SyncApp:CreateTicketCanvas:Title":               "Create a ticket",
	"SyncApp:CreateTicketCanvas:Subtitle":            "It will be automatically linked to this conversation",
	"SyncApp:CreateTicketCanvas:Success:Title":       "Ticket created",
	"SyncApp:CreateTicketCanvas:Success:Description": "%s has been created and linked to this conversation",
	"SyncApp:CreateTicketCanvas:Failure:Title":       "Error",
	"SyncApp:CreateTicketCanvas:Failure:Description": "Ticket could not be created, check that mandatory fields are filled",
	"SyncApp:CreateButton:Title":                     "Create",

	"SyncApp:TicketLinkedMessage:Title":        "%s linked a ticket",
	"SyncApp:TicketCreatedMessage:Title":       "%s created a ticket",
	"SyncApp:SynchedTicket:LogEntry:NewMessageFromConversation": "New message from the linked chat conversation",
	"SyncApp:SynchedTicket:LogEntry:FallbackUserLogin":          "%s (from chat)",
}

// S returns the dictionary entry for key, or the key itself when missing so a
// forgotten entry is visible instead of blank.
func S(key string) string {
	if s, ok := en[key]; ok {
		return s
	}
	return key
}

// F formats the dictionary entry for key with args.
func F(key string, args ...any) string {
	return fmt.Sprintf(S(key), args...)
}
