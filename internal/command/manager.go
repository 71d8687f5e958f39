package command

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Actor is whoever issued a command, normally a character.
type Actor interface {
	Name() string
	SendNotice(format string, args ...any)
}

// Handler runs a command with the tokens that followed its identifier.
type Handler func(actor Actor, args []string) error

// Command binds an identifier to a handler.
type Command struct {
	Identifier string
	Usage      string
	Handler    Handler
}

// Manager holds the registered commands and dispatches chat text to them.
// Tick goroutine only.
type Manager struct {
	prefix   rune
	commands map[string]Command
	log      *zap.Logger
}

func NewManager(prefix rune, log *zap.Logger) *Manager {
	return &Manager{
		prefix:   prefix,
		commands: make(map[string]Command),
		log:      log.Named("command"),
	}
}

func (m *Manager) Prefix() rune { return m.prefix }

// Register adds cmd under its lower-cased identifier, replacing any command
// already registered under it.
func (m *Manager) Register(cmd Command) {
	id := strings.ToLower(cmd.Identifier)
	if _, ok := m.commands[id]; ok {
		m.log.Debug("command replaced", zap.String("command", id))
	}
	cmd.Identifier = id
	m.commands[id] = cmd
}

// Lookup returns the command registered under identifier.
func (m *Manager) Lookup(identifier string) (Command, bool) {
	cmd, ok := m.commands[strings.ToLower(identifier)]
	return cmd, ok
}

// Identifiers returns every registered identifier in sorted order.
func (m *Manager) Identifiers() []string {
	ids := make([]string, 0, len(m.commands))
	for id := range m.commands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsCommand reports whether text starts with the command prefix.
func (m *Manager) IsCommand(text string) bool {
	r, _ := utf8.DecodeRuneInString(text)
	return r == m.prefix
}

// Execute parses text and runs the matching command. Unknown commands are
// ignored. Parse errors, handler errors and handler panics are logged and
// never reach the caller.
func (m *Manager) Execute(actor Actor, text string) {
	tokens, err := Tokenize(text)
	if err != nil {
		m.log.Info("malformed command",
			zap.String("actor", actor.Name()),
			zap.String("text", text),
			zap.Error(err),
		)
		return
	}
	if len(tokens) == 0 {
		return
	}

	id := tokens[0]
	if r, size := utf8.DecodeRuneInString(id); r == m.prefix {
		id = id[size:]
	}
	id = strings.ToLower(id)

	cmd, ok := m.commands[id]
	if !ok {
		return
	}
	if err := m.call(cmd, actor, tokens[1:]); err != nil {
		m.log.Info("command failed",
			zap.String("command", id),
			zap.String("actor", actor.Name()),
			zap.Error(err),
		)
	}
}

func (m *Manager) call(cmd Command, actor Actor, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return cmd.Handler(actor, args)
}
