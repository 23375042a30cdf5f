package service

var focusQuotes = []string{
	"Small steps make big dreams bloom.",
	"Focus like the gentle flow of a stream.",
	"You're doing amazing, one moment at a time.",
	"Every minute of focus is a gift to your future self.",
}

var breakQuotes = []string{
	"Time to rest your mind. You've earned it.",
	"Breathe in peace, breathe out worry.",
	"Stretch a little. Your bunny's proud of you!",
	"Rest isn't wasting time. It's recharging your light.",
}
