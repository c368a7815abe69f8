package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/fatih/color"
)

var (
	titleColor     = color.New(color.FgMagenta, color.Bold)
	separatorColor = color.New(color.FgHiBlack)
	idColor        = color.New(color.FgYellow)
	currentColor   = color.New(color.FgGreen, color.Bold)
	userColor      = color.New(color.FgWhite)
	assistantColor = color.New(color.FgCyan)
	infoColor      = color.New(color.FgHiBlue)
	warnColor      = color.New(color.FgRed)

	// Output of every printer. Tests may replace it.
	Output io.Writer = os.Stdout
)

func width() int {
	if w := goterm.Width(); w > 0 {
		return w
	}
	return 80
}

// Separator printed to cli.
func Separator() {
	separatorColor.Fprintln(Output, strings.Repeat("-", width()))
}

// Title printed to cli.
func Title(text string, args ...any) {
	w := width()
	title := "      " + fmt.Sprintf(text, args...) + "      "
	leftWidth := max((w-len(title))/2, 0)
	separator1 := strings.Repeat("-", leftWidth)
	separator2 := strings.Repeat("-", max(w-len(title)-len(separator1), 0))
	titleColor.Fprintf(Output, "%s%s%s\n", separator1, title, separator2)
}

// SessionLine prints one entry of a session list.
func SessionLine(current bool, id, title, details string) {
	marker := "  "
	if current {
		marker = currentColor.Sprint("* ")
	}
	fmt.Fprintf(Output, "%s%s  %s  %s\n", marker, idColor.Sprint(id), title, separatorColor.Sprint(details))
}

// Message prints one message of a session.
func Message(role, content string) {
	c := userColor
	if role != "user" {
		c = assistantColor
	}
	c.Fprintf(Output, "%s: ", role)
	fmt.Fprintln(Output, content)
}

// Info printed to cli.
func Info(text string, args ...any) {
	infoColor.Fprintf(Output, text+"\n", args...)
}

// Warn printed to cli.
func Warn(text string, args ...any) {
	warnColor.Fprintf(Output, text+"\n", args...)
}

// QueryUser a yes/no question.
func QueryUser(question string) bool {
	surveyQuestion := &survey.Confirm{
		Message: question,
	}
	confirm := false
	survey.AskOne(surveyQuestion, &confirm)
	return confirm
}
