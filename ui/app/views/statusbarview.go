package views

import (
	"context"
	"errors"
	"time"

	"github.com/darkhz/sleepwatch/ui/theme"
	"github.com/darkhz/tview"
	"github.com/gdamore/tcell/v2"
	"go.uber.org/atomic"
)

const (
	statusPromptPage   viewName = "prompt"
	statusMessagesPage viewName = "messages"
)

// messageTimeout is how long a message stays before the status bar
// falls back to the last persistent message.
const messageTimeout = 2 * time.Second

// statusBarView holds the status bar, which shows messages,
// yes/no prompts and the condensed help text.
type statusBarView struct {
	text   *tview.TextView
	keys   *tview.TextView
	prompt *tview.InputField

	prompting atomic.Bool
	messages  chan statusMessage
	stop      context.CancelFunc

	bar *tview.Pages

	*Views
}

// statusMessage is a message to display in the status bar.
// A persistent message is shown again once newer messages time out.
type statusMessage struct {
	text    string
	persist bool
}

// Initialize initializes the status bar.
func (s *statusBarView) Initialize() error {
	background := theme.GetColor(theme.ThemeBackground)

	s.prompt = tview.NewInputField()
	s.prompt.SetLabelColor(theme.GetColor(theme.ThemeText))
	s.prompt.SetFieldTextColor(theme.GetColor(theme.ThemeText))
	s.prompt.SetBackgroundColor(background)
	s.prompt.SetFieldBackgroundColor(background)
	s.prompt.SetAcceptanceFunc(tview.InputFieldMaxLength(1))

	s.text = tview.NewTextView()
	s.text.SetDynamicColors(true)
	s.text.SetBackgroundColor(background)

	s.keys = tview.NewTextView()
	s.keys.SetDynamicColors(true)
	s.keys.SetBackgroundColor(background)

	s.bar = tview.NewPages()
	s.bar.SetBackgroundColor(background)
	s.bar.AddPage(statusPromptPage.String(), s.prompt, true, false)
	s.bar.AddPage(statusMessagesPage.String(), s.text, true, true)

	var ctx context.Context

	s.messages = make(chan statusMessage, 10)
	ctx, s.stop = context.WithCancel(context.Background())

	go s.run(ctx)

	s.layout.AddItem(s.bar, 1, 0, false)

	return nil
}

// SetRootView sets the root view of the status bar.
func (s *statusBarView) SetRootView(root *Views) {
	s.Views = root
}

// Release stops the message loop.
func (s *statusBarView) Release() {
	if s.stop != nil {
		s.stop()
	}
}

// InfoMessage sends an info message to the status bar.
func (s *statusBarView) InfoMessage(text string, persist bool) {
	s.send(statusMessage{theme.ColorWrap(theme.ThemeStatusInfo, text), persist})
}

// ErrorMessage sends an error message to the status bar.
// Cancellations are not errors, and are not shown.
func (s *statusBarView) ErrorMessage(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}

	s.send(statusMessage{theme.ColorWrap(theme.ThemeStatusError, "Error: "+err.Error()), false})
}

// confirm asks a yes/no question in the status bar, and reports whether
// the user answered yes. Any other key, or the end of ctx, is a no.
// It must not be called from the drawing loop.
func (s *statusBarView) confirm(ctx context.Context, question string) bool {
	answer := make(chan bool, 1)

	s.app.InstantDraw(func() {
		s.prompt.SetText("")
		s.prompt.SetLabel("[::b]" + question + " (y/n) ")
		s.prompt.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
			select {
			case answer <- isYes(event):
			default:
			}

			return nil
		})

		s.prompting.Store(true)
		s.bar.SwitchToPage(statusPromptPage.String())
		s.app.FocusPrimitive(s.prompt)
	})

	var yes bool

	select {
	case <-ctx.Done():
	case yes = <-answer:
	}

	s.app.InstantDraw(func() {
		s.prompt.SetInputCapture(nil)
		s.prompting.Store(false)
		s.bar.SwitchToPage(statusMessagesPage.String())
		s.modals.setPrimaryFocus()
	})

	return yes
}

// send queues a message, and drops it if the queue is full.
func (s *statusBarView) send(msg statusMessage) {
	if s.messages == nil {
		return
	}

	select {
	case s.messages <- msg:
	default:
	}
}

// run displays the queued messages until ctx is done.
func (s *statusBarView) run(ctx context.Context) {
	var persistent string

	expire := time.NewTimer(messageTimeout)
	defer expire.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-s.messages:
			persistent = ""
			if msg.persist {
				persistent = msg.text
			}

			s.app.InstantDraw(func() {
				s.text.SetText(msg.text)
			})

			expire.Reset(messageTimeout)

		case <-expire.C:
			text := persistent

			s.app.InstantDraw(func() {
				s.text.SetText(text)
			})
		}
	}
}

// isYes reports whether the key answers yes to a prompt.
func isYes(event *tcell.EventKey) bool {
	return event != nil && event.Key() == tcell.KeyRune &&
		(event.Rune() == 'y' || event.Rune() == 'Y')
}
