package gateway

// User-facing texts. Kept in one place so the bot's voice stays consistent.

const (
	helpTitle = "NudgeBot"
	helpIntro = "I can remind you of stuff! Use the '!' or '$' prefix.\nCommands list:"

	helpCreate = "A) Adds a reminder on <date>.\nExample: !remind me of the end of the world on 31.12.99 23:59\nB) Adds a reminder in X time units.\nYou can use years, months, days, hours, minutes and seconds.\nExample: !remind me of cake in the oven in 3 days"
	helpList   = "Use when you want to see everyone's reminders."
	helpMine   = "Use when you want to see your reminders."
	helpShow   = "Use when you want to see the details of a certain reminder.\nExample: !show_reminder 32"
	helpDelete = "Use when you want to delete a reminder.\nExample: !delete_reminder 15"

	helpCreateExample = "A) !remind me of <reminder_name> on <DD.MM.YY> <HH:MM>\nB) !remind me of <reminder_name> in <number> <unit>"
	helpListExample   = "!list_reminders"
	helpMineExample   = "!my_reminders"
	helpShowExample   = "!show_reminder <id>"
	helpDeleteExample = "!delete_reminder <id>"
)

const (
	errInsertion        = "I'm sorry, something went wrong and the reminder won't work correctly. Try again!"
	errTryAgain         = "Something went wrong, try again!"
	errCantRemove       = "Something went wrong when removing the reminder!"
	errNoIDForShow      = "You didn't use the correct command!\nCorrect format: !show_reminder <ID>"
	errNoIDForDelete    = "You didn't use the correct command!\nCorrect format: !delete_reminder <ID>"
	errNoReminderByID   = "I can't find a reminder with this ID!"
	errMultipleIDs      = "You can pass only a single ID!"
	errTooLongID        = "That ID is way too long!"
	errNotYourReminder  = "There are no reminders of yours with this ID!"
	errInvalidFormat    = "You didn't use the correct command format!\nCorrect format: !remind me of X on/in Y"
	errNameTooLong      = "That reminder name is too long!"
	errNoSeparator      = "You have to use \"on\" or \"in\" in the message!"
	errBadDatetime      = "Give me a correct datetime format!"
	errBadDuration      = "Give me a correct datetime info!"
	errOnlyZeros        = "You can't give me zeros only!"
	errPastDatetime     = "You can't create a reminder in the past!"
	errTooBigNumber     = "Wow, one of those numbers is way too big!"
	errTooManyActiveTpl = "You've exceeded the limit! You can have maximum of %d active reminders."
	errThrottleTemplate = "You've exceeded the limit! Maximum %d reminders created per %s!"
)

const (
	infoEmptyList    = "There are no reminders. Make one!\nCommand format: !remind me of X in/on Y"
	infoEmptyProfile = "You haven't made any reminders ever. Try making one!\nCommand format: !remind me of X in/on Y"
	infoNoReminders  = "You haven't made any reminders."

	confirmTemplate = "I will remind you of that on **%s**, <@%s>.\nReminder's ID: `%s`"

	listTitle       = ":date: Upcoming reminders:"
	mineTitleFmt    = ":date: Upcoming reminders by %s:"
	showTitleFmt    = "Reminder by %s:"
	deletedTitleFmt = ":x: Deleted reminder set to %s"
)
