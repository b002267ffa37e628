package engine

// GoblinTasks are the small self-care actions offered during a meltdown.
var GoblinTasks = []string{
	"Drink a glass of water",
	"Take 5 deep breaths",
	"Stretch for 2 minutes",
	"Eat a snack",
	"Step outside for 1 minute",
	"Splash cold water on your face",
	"Put on your favorite song",
	"Text someone you love",
}
