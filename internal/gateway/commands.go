package gateway

import "strings"

// Canonical command names. Every alias resolves to one of these.
const (
	cmdHelp     = "help_reminders"
	cmdCreate   = "create_reminder"
	cmdList     = "list_reminders"
	cmdMine     = "my_reminders"
	cmdShow     = "show_reminder"
	cmdDelete   = "delete_reminder"
	cmdDatetime = "datetime"
)

// Command prefixes accepted on the first token of a message.
var prefixes = []string{"!", "$"}

// commandAliases collects the accepted spellings per command, common typos
// included.
var commandAliases = map[string][]string{
	cmdHelp: {
		"reminders_help",
		"reminder_help",
		"help_reminder",
		"help_remindesr",
		"list_remidners",
		"help-reminders",
		"help_r",
	},
	cmdCreate: {
		"remind",
		"r",
		"remidn",
		"remnid",
		"remndi",
		"redimn",
		"renimd",
		"renidm",
		"remnd",
		"remindf",
		"reminde",
		"reminds",
	},
	cmdList: {
		"reminders",
		"all_reminders",
		"show_reminders",
		"reminders_list",
		"reminders_all",
		"reminders_show",
		"list_reminder",
		"reminder_list",
		"list-reminders",
	},
	cmdMine: {
		"reminders_my",
		"my_remindesr",
		"my-reminders",
	},
	cmdShow: {
		"reminder_show",
		"show-reminder",
	},
	cmdDelete: {
		"reminder_delete",
		"cancel_reminder",
		"reminder_cancel",
		"delete-reminder",
		"del_reminder",
		"d_reminder",
	},
	cmdDatetime: {
		"now",
		"time",
	},
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]string {
	index := make(map[string]string)
	for canonical, aliases := range commandAliases {
		index[canonical] = canonical
		for _, alias := range aliases {
			index[alias] = canonical
		}
	}
	return index
}

// splitCommand breaks a raw message into its command token and argument
// tail. Returns ok=false when the message carries no recognized command,
// which includes any message without a command prefix.
func splitCommand(content string) (command, args string, ok bool) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", "", false
	}

	token := fields[0]
	stripped := ""
	for _, p := range prefixes {
		if strings.HasPrefix(token, p) && len(token) > len(p) {
			stripped = token[len(p):]
			break
		}
	}
	if stripped == "" {
		return "", "", false
	}

	canonical, known := aliasIndex[strings.ToLower(stripped)]
	if !known {
		return "", "", false
	}
	return canonical, strings.Join(fields[1:], " "), true
}
