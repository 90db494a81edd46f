package session

const bannerText = "Please enter commands ('h' for help, 'quit' to quit, etc.):"

const helpText = `-Help and status-
-Controls:
 - 'h' - open help text and current status, the current open task
 - 'n' or 's' - close current if one is open and create-new/start task
 - 'nc' - close current if one is open, new copy of a previous task
 - 'lunch' - close current if one is open and start lunch break
 - 'bio' - close current if one is open and start biobreak
 - 'd' - change current task description
 - 'dc' - copy the description from a previous task
 - 'a' - append description to current task description
 - 'show' - show all tasks
 - 'quit' - quit the application and save to CSV file
`

// Commands lists every command the session understands, in help order.
var Commands = []string{"h", "n", "s", "nc", "lunch", "bio", "d", "dc", "a", "show", "quit"}
